package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ReportUseCase arma el informe de diferencias de un ciclo y delega el formato al generador.
type ReportUseCase struct {
	cycles    repository.InventoryCycleRepository
	lines     repository.InventoryLineRepository
	products  repository.ProductRepository
	stores    repository.StoreRepository
	generator ReportGenerator
}

// NewReportUseCase construye el caso de uso de informes.
func NewReportUseCase(
	cycles repository.InventoryCycleRepository,
	lines repository.InventoryLineRepository,
	products repository.ProductRepository,
	stores repository.StoreRepository,
	generator ReportGenerator,
) *ReportUseCase {
	return &ReportUseCase{cycles: cycles, lines: lines, products: products, stores: stores, generator: generator}
}

// BuildReportData reúne ciclo, líneas ordenadas por SKU y estadísticas.
func (uc *ReportUseCase) BuildReportData(ctx context.Context, cycleID string) (*ReportData, error) {
	cycle, err := uc.cycles.GetByID(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		return nil, domain.NotFoundf("ciclo %s", cycleID)
	}
	lines, err := uc.lines.ListByCycle(ctx, cycle.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products := make(map[string]*entity.Product)
	if ids = dedupe(ids); len(ids) > 0 {
		list, err := uc.products.ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			products[p.ID] = p
		}
	}

	data := &ReportData{Cycle: cycle, Stats: entity.ComputeCycleStats(lines)}
	if store, err := uc.stores.GetByID(ctx, cycle.StoreID); err != nil {
		return nil, err
	} else if store != nil {
		data.StoreName = store.Name
	}
	for _, l := range lines {
		row := ReportRow{Line: l}
		if p, ok := products[l.ProductID]; ok {
			row.SKU = p.SKU
			row.ProductName = p.Name
		}
		data.Rows = append(data.Rows, row)
	}
	sort.SliceStable(data.Rows, func(i, j int) bool {
		if data.Rows[i].SKU != data.Rows[j].SKU {
			return data.Rows[i].SKU < data.Rows[j].SKU
		}
		return data.Rows[i].Line.LotID < data.Rows[j].Line.LotID
	})
	return data, nil
}

// GenerateVarianceReport devuelve el informe de diferencias en el formato del generador (PDF).
func (uc *ReportUseCase) GenerateVarianceReport(ctx context.Context, cycleID string) ([]byte, error) {
	data, err := uc.BuildReportData(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	return uc.generator.GenerateCycleReport(ctx, data)
}
