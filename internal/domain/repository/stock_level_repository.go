package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockFilter filtros para listar stock materializado.
type StockFilter struct {
	StoreID    string
	ProductID  string
	OnlyAlerts bool
	Limit      int
	Offset     int
}

// StockLevelRepository puerto del stock materializado por (tienda, producto[, lote]).
// Toda escritura debe ocurrir en la misma transacción que el movimiento que la causa.
type StockLevelRepository interface {
	// Get devuelve nil, nil si la fila no existe.
	Get(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error)
	// Increment crea la fila con quantity o suma quantity de forma atómica.
	Increment(ctx context.Context, key entity.StockKey, quantity, defaultThreshold int64) (*entity.StockLevel, error)
	// Decrement resta quantity solo si quantity <= stock actual; devuelve nil, nil si la guarda falla.
	Decrement(ctx context.Context, key entity.StockKey, quantity int64) (*entity.StockLevel, error)
	List(ctx context.Context, filter StockFilter) ([]*entity.StockLevel, error)
	// ListForSnapshot filas existentes de la tienda, restringidas a productIDs si no está vacío.
	ListForSnapshot(ctx context.Context, storeID string, productIDs []string) ([]*entity.StockLevel, error)
	SetThreshold(ctx context.Context, key entity.StockKey, threshold int64) error
	// TotalOnHand suma el stock del producto en todas las tiendas y lotes.
	TotalOnHand(ctx context.Context, productID string) (int64, error)
}
