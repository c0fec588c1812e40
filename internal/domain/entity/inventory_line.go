package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// InventoryLine línea de conteo de un ciclo: una por producto, o por lote si el producto lo exige.
type InventoryLine struct {
	ID                  string
	CycleID             string
	ProductID           string
	LotID               string
	TheoreticalQuantity int64  // snapshot congelado
	CountedQuantity     *int64 // nil hasta que se cuenta
	IsCounted           bool
	Variance            int64 // contado - teórico
	UnitCost            decimal.Decimal
	VarianceValue       decimal.Decimal // Variance * UnitCost
	CountedAt           *time.Time
	UpdatedAt           time.Time
}

// NewInventoryLine crea una línea sin contar.
func NewInventoryLine(id, cycleID, productID, lotID string, theoretical int64, unitCost decimal.Decimal, now time.Time) *InventoryLine {
	return &InventoryLine{
		ID:                  id,
		CycleID:             cycleID,
		ProductID:           productID,
		LotID:               lotID,
		TheoreticalQuantity: theoretical,
		UnitCost:            unitCost,
		VarianceValue:       decimal.Zero,
		UpdatedAt:           now,
	}
}

// Key clave de stock de la línea dentro de la tienda del ciclo.
func (l *InventoryLine) Key(storeID string) StockKey {
	return StockKey{StoreID: storeID, ProductID: l.ProductID, LotID: l.LotID}
}

// RecordCount registra (o sobrescribe) la cantidad contada. No guarda historial de conteos.
func (l *InventoryLine) RecordCount(counted int64, now time.Time) error {
	if counted < 0 {
		return domain.Validationf("cantidad contada negativa: %d", counted)
	}
	l.CountedQuantity = &counted
	l.IsCounted = true
	l.CountedAt = &now
	l.UpdatedAt = now
	l.recompute()
	return nil
}

// Refreeze reemplaza la cantidad teórica con el stock vivo al iniciar el conteo.
func (l *InventoryLine) Refreeze(theoretical int64, now time.Time) {
	l.TheoreticalQuantity = theoretical
	l.UpdatedAt = now
	l.recompute()
}

func (l *InventoryLine) recompute() {
	if !l.IsCounted || l.CountedQuantity == nil {
		l.Variance = 0
		l.VarianceValue = decimal.Zero
		return
	}
	l.Variance = *l.CountedQuantity - l.TheoreticalQuantity
	l.VarianceValue = decimal.NewFromInt(l.Variance).Mul(l.UnitCost)
}
