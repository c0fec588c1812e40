package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product producto del catálogo. Solo los campos que necesita el motor de stock.
type Product struct {
	ID               string
	SKU              string
	Name             string
	UnitCost         decimal.Decimal // costo unitario usado para valorizar diferencias
	TracksLots       bool            // productos con caducidad: stock e inventario por lote
	MinimumThreshold int64           // umbral por defecto al crear filas de stock
	CreatedAt        time.Time
}

// Store tienda / punto de venta.
type Store struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
