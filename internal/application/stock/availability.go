package stock

import (
	"context"
	"math"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AvailabilityChecker consultas de solo lectura sobre el stock materializado.
type AvailabilityChecker struct {
	stock repository.StockLevelRepository
}

// NewAvailabilityChecker construye el verificador.
func NewAvailabilityChecker(stock repository.StockLevelRepository) *AvailabilityChecker {
	return &AvailabilityChecker{stock: stock}
}

// AvailabilityItem línea a verificar.
type AvailabilityItem struct {
	ProductID string
	LotID     string
	Quantity  int64
}

// Shortfall faltante de un producto.
type Shortfall struct {
	ProductID string
	LotID     string
	Required  int64
	Available int64
}

// AvailabilityReport resultado de la verificación.
type AvailabilityReport struct {
	AllAvailable bool
	Shortfalls   []Shortfall
}

// CheckAvailability verifica un lote de líneas sin modificar nada. Las líneas repetidas del
// mismo producto se suman antes de comparar; una clave sin fila cuenta como disponible = 0.
// Una línea sin lote suma todas las filas del producto en la tienda (todos sus lotes).
// El procesador vuelve a validar cada línea al aplicar el movimiento.
func (c *AvailabilityChecker) CheckAvailability(ctx context.Context, storeID string, items []AvailabilityItem) (*AvailabilityReport, error) {
	if storeID == "" {
		return nil, domain.Validationf("store_id obligatorio")
	}
	if len(items) == 0 {
		return nil, domain.Validationf("sin líneas que verificar")
	}
	required := make(map[entity.StockKey]int64, len(items))
	order := make([]entity.StockKey, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, domain.Validationf("línea inválida: producto %q cantidad %d", it.ProductID, it.Quantity)
		}
		key := entity.StockKey{StoreID: storeID, ProductID: it.ProductID, LotID: it.LotID}
		if _, seen := required[key]; !seen {
			order = append(order, key)
		}
		required[key] += it.Quantity
	}

	report := &AvailabilityReport{AllAvailable: true, Shortfalls: []Shortfall{}}
	for _, key := range order {
		available, err := c.available(ctx, key)
		if err != nil {
			return nil, err
		}
		if available < required[key] {
			report.AllAvailable = false
			report.Shortfalls = append(report.Shortfalls, Shortfall{
				ProductID: key.ProductID,
				LotID:     key.LotID,
				Required:  required[key],
				Available: available,
			})
		}
	}
	return report, nil
}

func (c *AvailabilityChecker) available(ctx context.Context, key entity.StockKey) (int64, error) {
	if key.HasLot() {
		level, err := c.stock.Get(ctx, key)
		if err != nil || level == nil {
			return 0, err
		}
		return level.Quantity, nil
	}
	levels, err := c.stock.ListForSnapshot(ctx, key.StoreID, []string{key.ProductID})
	if err != nil {
		return 0, err
	}
	var total int64
	for _, l := range levels {
		if total > math.MaxInt64-l.Quantity {
			return math.MaxInt64, nil
		}
		total += l.Quantity
	}
	return total, nil
}

// StockAlertView fila de stock con su indicador de alerta.
type StockAlertView struct {
	*entity.StockLevel
	IsAlert bool
}

// GetStocksWithAlerts lista stock marcando las filas con quantity <= umbral mínimo.
func (c *AvailabilityChecker) GetStocksWithAlerts(ctx context.Context, filter repository.StockFilter) ([]StockAlertView, error) {
	filter.Limit, filter.Offset = normalizePage(filter.Limit, filter.Offset)
	levels, err := c.stock.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]StockAlertView, 0, len(levels))
	for _, l := range levels {
		out = append(out, StockAlertView{StockLevel: l, IsAlert: l.IsAlert()})
	}
	return out, nil
}
