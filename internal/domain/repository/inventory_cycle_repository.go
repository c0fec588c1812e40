package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CycleFilter filtros para listar ciclos.
type CycleFilter struct {
	StoreID string
	Status  entity.CycleStatus
	Limit   int
	Offset  int
}

// InventoryCycleRepository puerto de persistencia de ciclos de inventario.
type InventoryCycleRepository interface {
	// NextNumber reserva el siguiente número secuencial de la tienda para el año.
	NextNumber(ctx context.Context, storeID string, year int) (int, error)
	Create(ctx context.Context, cycle *entity.InventoryCycle) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.InventoryCycle, error)
	// GetForUpdate bloquea la fila del ciclo (serializa transiciones concurrentes).
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryCycle, error)
	Update(ctx context.Context, cycle *entity.InventoryCycle) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter CycleFilter) ([]*entity.InventoryCycle, error)
}

// InventoryLineRepository puerto de persistencia de líneas de conteo.
type InventoryLineRepository interface {
	CreateBatch(ctx context.Context, lines []*entity.InventoryLine) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.InventoryLine, error)
	ListByCycle(ctx context.Context, cycleID string) ([]*entity.InventoryLine, error)
	Update(ctx context.Context, line *entity.InventoryLine) error
	DeleteByCycle(ctx context.Context, cycleID string) error
}
