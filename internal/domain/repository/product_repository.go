package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository lectura del catálogo (el CRUD de productos está fuera del motor).
type ProductRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Product, error)
	// UpdateUnitCost revaloriza el producto; ErrNotFound si no existe.
	UpdateUnitCost(ctx context.Context, id string, cost decimal.Decimal) error
}

// StoreRepository lectura de tiendas.
type StoreRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Store, error)
}
