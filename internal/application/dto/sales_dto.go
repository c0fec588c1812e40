package dto

import "github.com/shopspring/decimal"

// ItemLine línea de venta o devolución.
type ItemLine struct {
	ProductID string `json:"product_id"`
	LotID     string `json:"lot_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

// CheckoutRequest body para POST /api/sales/checkout.
type CheckoutRequest struct {
	StoreID string     `json:"store_id"`
	SaleID  string     `json:"sale_id,omitempty"`
	Lines   []ItemLine `json:"lines"`
}

// ReturnRequest body para POST /api/sales/:id/returns.
type ReturnRequest struct {
	StoreID string     `json:"store_id"`
	Reason  string     `json:"reason,omitempty"`
	Lines   []ItemLine `json:"lines"`
}

// CheckoutResponse movimientos generados por la venta.
type CheckoutResponse struct {
	SaleID    string        `json:"sale_id"`
	Movements []MovementDTO `json:"movements"`
}

// ReceptionLine línea recibida; unit_cost solo se usa en /receive.
type ReceptionLine struct {
	ProductID string           `json:"product_id"`
	LotID     string           `json:"lot_id,omitempty"`
	Quantity  int64            `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// ReceptionRequest body para POST /api/purchases/:id/receive y /cancel.
type ReceptionRequest struct {
	StoreID string          `json:"store_id"`
	Lines   []ReceptionLine `json:"lines"`
}

// MovementsResponse lista de movimientos generados.
type MovementsResponse struct {
	Movements []MovementDTO `json:"movements"`
}
