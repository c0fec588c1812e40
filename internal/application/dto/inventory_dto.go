package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CreateCycleRequest body para POST /api/inventory/cycles.
type CreateCycleRequest struct {
	StoreID    string   `json:"store_id"`
	ProductIDs []string `json:"product_ids,omitempty"` // vacío = todo el stock de la tienda
	Comment    string   `json:"comment,omitempty"`
}

// RecordCountRequest body para PUT /api/inventory/cycles/:id/lines/:lineId/count.
type RecordCountRequest struct {
	CountedQuantity *int64 `json:"counted_quantity"`
}

// CycleDTO cabecera de un ciclo.
type CycleDTO struct {
	ID          string     `json:"id"`
	Reference   string     `json:"reference"`
	StoreID     string     `json:"store_id"`
	Status      string     `json:"status"`
	Comment     string     `json:"comment,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	ValidatedBy string     `json:"validated_by,omitempty"`
}

// LineDTO línea de conteo.
type LineDTO struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	LotID               string          `json:"lot_id,omitempty"`
	TheoreticalQuantity int64           `json:"theoretical_quantity"`
	CountedQuantity     *int64          `json:"counted_quantity"`
	IsCounted           bool            `json:"is_counted"`
	Variance            int64           `json:"variance"`
	UnitCost            decimal.Decimal `json:"unit_cost"`
	VarianceValue       decimal.Decimal `json:"variance_value"`
	CountedAt           *time.Time      `json:"counted_at,omitempty"`
}

// CycleDetailDTO ciclo con sus líneas.
type CycleDetailDTO struct {
	CycleDTO
	Lines []LineDTO `json:"lines"`
}

// CycleStatsDTO avance y valorización.
type CycleStatsDTO struct {
	TotalLines        int             `json:"total_lines"`
	CountedLines      int             `json:"counted_lines"`
	Progression       int             `json:"progression"`
	LinesWithVariance int             `json:"lines_with_variance"`
	Surplus           decimal.Decimal `json:"surplus"`
	Shortage          decimal.Decimal `json:"shortage"`
}

// AdjustmentDTO ajuste aplicado al validar.
type AdjustmentDTO struct {
	LineID     string `json:"line_id"`
	ProductID  string `json:"product_id"`
	LotID      string `json:"lot_id,omitempty"`
	Before     int64  `json:"before"`
	After      int64  `json:"after"`
	MovementID string `json:"movement_id"`
}

// ValidationResponse respuesta de POST /api/inventory/cycles/:id/validate.
type ValidationResponse struct {
	Cycle       CycleDTO        `json:"cycle"`
	Adjustments []AdjustmentDTO `json:"adjustments"`
	Skipped     int             `json:"skipped"`
}

// CycleListResponse listado paginado.
type CycleListResponse struct {
	Items []CycleDTO   `json:"items"`
	Page  PageResponse `json:"page"`
}

func CycleFromEntity(c *entity.InventoryCycle) CycleDTO {
	return CycleDTO{
		ID:          c.ID,
		Reference:   c.Reference(),
		StoreID:     c.StoreID,
		Status:      c.Status.String(),
		Comment:     c.Comment,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		StartedAt:   c.StartedAt,
		EndedAt:     c.EndedAt,
		ValidatedAt: c.ValidatedAt,
		ValidatedBy: c.ValidatedBy,
	}
}

func LineFromEntity(l *entity.InventoryLine) LineDTO {
	return LineDTO{
		ID:                  l.ID,
		ProductID:           l.ProductID,
		LotID:               l.LotID,
		TheoreticalQuantity: l.TheoreticalQuantity,
		CountedQuantity:     l.CountedQuantity,
		IsCounted:           l.IsCounted,
		Variance:            l.Variance,
		UnitCost:            l.UnitCost,
		VarianceValue:       l.VarianceValue,
		CountedAt:           l.CountedAt,
	}
}

func CycleDetailFrom(d *inventory.CycleDetail) CycleDetailDTO {
	out := CycleDetailDTO{CycleDTO: CycleFromEntity(d.Cycle), Lines: make([]LineDTO, 0, len(d.Lines))}
	for _, l := range d.Lines {
		out.Lines = append(out.Lines, LineFromEntity(l))
	}
	return out
}

func StatsFrom(s *entity.CycleStats) CycleStatsDTO {
	return CycleStatsDTO{
		TotalLines:        s.TotalLines,
		CountedLines:      s.CountedLines,
		Progression:       s.Progression,
		LinesWithVariance: s.LinesWithVariance,
		Surplus:           s.Surplus,
		Shortage:          s.Shortage,
	}
}

func ValidationFrom(r *inventory.ValidationResult) ValidationResponse {
	out := ValidationResponse{
		Cycle:       CycleFromEntity(r.Cycle),
		Adjustments: make([]AdjustmentDTO, 0, len(r.Adjustments)),
		Skipped:     r.Skipped,
	}
	for _, a := range r.Adjustments {
		out.Adjustments = append(out.Adjustments, AdjustmentDTO{
			LineID:     a.LineID,
			ProductID:  a.Key.ProductID,
			LotID:      a.Key.LotID,
			Before:     a.Before,
			After:      a.After,
			MovementID: a.Movement.ID,
		})
	}
	return out
}
