package entity

import "time"

// StockKey identifica una fila de stock materializado.
// LotID vacío = clave a nivel de producto; con LotID = clave por lote (productos con caducidad).
type StockKey struct {
	StoreID   string
	ProductID string
	LotID     string
}

// HasLot indica si la clave es por lote.
func (k StockKey) HasLot() bool { return k.LotID != "" }

func (k StockKey) String() string {
	if k.HasLot() {
		return k.StoreID + "/" + k.ProductID + "/" + k.LotID
	}
	return k.StoreID + "/" + k.ProductID
}

// StockLevel cantidad disponible materializada para una clave (Quantity >= 0).
type StockLevel struct {
	StoreID          string
	ProductID        string
	LotID            string
	Quantity         int64
	MinimumThreshold int64
	Version          int64
	UpdatedAt        time.Time
}

func (s *StockLevel) Key() StockKey {
	return StockKey{StoreID: s.StoreID, ProductID: s.ProductID, LotID: s.LotID}
}

// IsAlert verdadero cuando la cantidad cae en o bajo el umbral mínimo.
func (s *StockLevel) IsAlert() bool { return s.Quantity <= s.MinimumThreshold }
