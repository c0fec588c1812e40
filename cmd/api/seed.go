package main

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

// seedDemo datos maestros mínimos para el modo memoria.
func seedDemo(db *memory.Store) {
	db.AddStore(entity.Store{ID: "store-centre", Name: "Boutique Centre"})
	db.AddStore(entity.Store{ID: "store-gare", Name: "Boutique Gare"})
	db.AddProduct(entity.Product{ID: "prod-cafe", SKU: "CAF-001", Name: "Café moulu 250g", UnitCost: decimal.RequireFromString("3.20"), MinimumThreshold: 5})
	db.AddProduct(entity.Product{ID: "prod-the", SKU: "THE-001", Name: "Thé vert 100g", UnitCost: decimal.RequireFromString("2.10"), MinimumThreshold: 3})
	db.AddProduct(entity.Product{ID: "prod-yaourt", SKU: "YAO-001", Name: "Yaourt nature x4", UnitCost: decimal.RequireFromString("1.35"), TracksLots: true, MinimumThreshold: 10})
}
