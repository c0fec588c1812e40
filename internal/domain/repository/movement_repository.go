package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementFilter filtros para listar el libro de movimientos.
type MovementFilter struct {
	StoreID   string
	ProductID string
	LotID     string
	Type      entity.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// MovementRepository puerto del libro de movimientos (solo inserción, nunca update/delete).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
	// SumSignedByKey devuelve la suma de deltas firmados de la clave.
	SumSignedByKey(ctx context.Context, key entity.StockKey) (int64, error)
}
