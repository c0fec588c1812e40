package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// RecordMovementRequest body para POST /api/stock/movements.
type RecordMovementRequest struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	LotID     string `json:"lot_id,omitempty"`
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"` // obligatoria para AJUSTEMENT y TRANSFERT
	Quantity  int64  `json:"quantity"`
	Reason    string `json:"reason,omitempty"`
}

// TransferRequest body para POST /api/stock/transfers.
type TransferRequest struct {
	FromStoreID string `json:"from_store_id"`
	ToStoreID   string `json:"to_store_id"`
	ProductID   string `json:"product_id"`
	LotID       string `json:"lot_id,omitempty"`
	Quantity    int64  `json:"quantity"`
	Reason      string `json:"reason,omitempty"`
}

// MovementDTO movimiento del libro.
type MovementDTO struct {
	ID            string    `json:"id"`
	StoreID       string    `json:"store_id"`
	ProductID     string    `json:"product_id"`
	LotID         string    `json:"lot_id,omitempty"`
	Type          string    `json:"type"`
	Direction     string    `json:"direction"`
	Quantity      int64     `json:"quantity"`
	QuantityAfter int64     `json:"quantity_after"`
	ActorID       string    `json:"actor_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	SaleID        string    `json:"sale_id,omitempty"`
	PurchaseID    string    `json:"purchase_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StockLevelDTO fila de stock materializado.
type StockLevelDTO struct {
	StoreID          string    `json:"store_id"`
	ProductID        string    `json:"product_id"`
	LotID            string    `json:"lot_id,omitempty"`
	Quantity         int64     `json:"quantity"`
	MinimumThreshold int64     `json:"minimum_threshold"`
	IsAlert          bool      `json:"is_alert"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RecordMovementResponse respuesta de POST /api/stock/movements.
type RecordMovementResponse struct {
	Movement MovementDTO   `json:"movement"`
	Stock    StockLevelDTO `json:"stock"`
}

// TransferResponse respuesta de POST /api/stock/transfers.
type TransferResponse struct {
	Out MovementDTO `json:"out"`
	In  MovementDTO `json:"in"`
}

// AvailabilityLine línea a verificar.
type AvailabilityLine struct {
	ProductID string `json:"product_id"`
	LotID     string `json:"lot_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

// AvailabilityRequest body para POST /api/stock/availability.
type AvailabilityRequest struct {
	StoreID string             `json:"store_id"`
	Lines   []AvailabilityLine `json:"lines"`
}

// ShortfallDTO faltante de un producto.
type ShortfallDTO struct {
	ProductID string `json:"product_id"`
	LotID     string `json:"lot_id,omitempty"`
	Required  int64  `json:"required"`
	Available int64  `json:"available"`
}

// AvailabilityResponse resultado de la verificación.
type AvailabilityResponse struct {
	AllAvailable bool           `json:"all_available"`
	Shortfalls   []ShortfallDTO `json:"shortfalls"`
}

// LedgerCheckResponse resultado de GET /api/stock/ledger-check.
type LedgerCheckResponse struct {
	StoreID        string `json:"store_id"`
	ProductID      string `json:"product_id"`
	LotID          string `json:"lot_id,omitempty"`
	LedgerQuantity int64  `json:"ledger_quantity"`
	StockQuantity  int64  `json:"stock_quantity"`
	Consistent     bool   `json:"consistent"`
}

func MovementFromEntity(m *entity.Movement) MovementDTO {
	return MovementDTO{
		ID:            m.ID,
		StoreID:       m.StoreID,
		ProductID:     m.ProductID,
		LotID:         m.LotID,
		Type:          string(m.Type),
		Direction:     string(m.Direction),
		Quantity:      m.Quantity,
		QuantityAfter: m.QuantityAfter,
		ActorID:       m.ActorID,
		Reason:        m.Reason,
		SaleID:        m.SaleID,
		PurchaseID:    m.PurchaseID,
		CreatedAt:     m.CreatedAt,
	}
}

func MovementsFromEntities(list []*entity.Movement) []MovementDTO {
	out := make([]MovementDTO, 0, len(list))
	for _, m := range list {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

func StockLevelFromEntity(l *entity.StockLevel) StockLevelDTO {
	return StockLevelDTO{
		StoreID:          l.StoreID,
		ProductID:        l.ProductID,
		LotID:            l.LotID,
		Quantity:         l.Quantity,
		MinimumThreshold: l.MinimumThreshold,
		IsAlert:          l.IsAlert(),
		UpdatedAt:        l.UpdatedAt,
	}
}

func AvailabilityFromReport(r *stock.AvailabilityReport) AvailabilityResponse {
	out := AvailabilityResponse{AllAvailable: r.AllAvailable, Shortfalls: ShortfallsFrom(r.Shortfalls)}
	return out
}

func ShortfallsFrom(list []stock.Shortfall) []ShortfallDTO {
	out := make([]ShortfallDTO, 0, len(list))
	for _, s := range list {
		out = append(out, ShortfallDTO{ProductID: s.ProductID, LotID: s.LotID, Required: s.Required, Available: s.Available})
	}
	return out
}
