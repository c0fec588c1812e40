package stock

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// LedgerCheck compara el libro con el stock materializado de una clave.
type LedgerCheck struct {
	Key            entity.StockKey
	LedgerQuantity int64
	StockQuantity  int64
	Consistent     bool
}

// LedgerAuditor verifica que cada fila materializada sea igual a la suma de su libro.
type LedgerAuditor struct {
	movements repository.MovementRepository
	stock     repository.StockLevelRepository
}

// NewLedgerAuditor construye el auditor.
func NewLedgerAuditor(movements repository.MovementRepository, stock repository.StockLevelRepository) *LedgerAuditor {
	return &LedgerAuditor{movements: movements, stock: stock}
}

// Verify recalcula la suma firmada del libro y la compara con la fila de stock.
func (a *LedgerAuditor) Verify(ctx context.Context, key entity.StockKey) (*LedgerCheck, error) {
	if key.StoreID == "" || key.ProductID == "" {
		return nil, domain.Validationf("store_id y product_id son obligatorios")
	}
	sum, err := a.movements.SumSignedByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	level, err := a.stock.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var qty int64
	if level != nil {
		qty = level.Quantity
	}
	return &LedgerCheck{Key: key, LedgerQuantity: sum, StockQuantity: qty, Consistent: sum == qty}, nil
}
