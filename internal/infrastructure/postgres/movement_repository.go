package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, store_id, product_id, lot_id, type, direction, quantity, quantity_after,
	actor_id, reason, sale_id, purchase_id, created_at`

// MovementRepo libro de movimientos sobre PostgreSQL (tabla solo inserción; un trigger
// rechaza UPDATE y DELETE).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create inserta un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.StoreID, m.ProductID, m.LotID, string(m.Type), string(m.Direction), m.Quantity, m.QuantityAfter,
		nullString(m.ActorID), m.Reason, nullString(m.SaleID), nullString(m.PurchaseID), m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List movimientos filtrados, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE store_id = $1`
	args := []any{f.StoreID}
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(" AND "+cond, len(args))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.LotID != "" {
		add("lot_id = $%d", f.LotID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// SumSignedByKey suma los deltas firmados del libro para una clave.
func (r *MovementRepo) SumSignedByKey(ctx context.Context, key entity.StockKey) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE direction WHEN 'IN' THEN quantity ELSE -quantity END), 0)::bigint
		FROM stock_movements
		WHERE store_id = $1 AND product_id = $2 AND lot_id = $3`
	var sum int64
	if err := r.q.QueryRow(ctx, query, key.StoreID, key.ProductID, key.LotID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum ledger: %w", err)
	}
	return sum, nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m                           entity.Movement
		typ, dir                    string
		actorID, saleID, purchaseID *string
	)
	err := row.Scan(&m.ID, &m.StoreID, &m.ProductID, &m.LotID, &typ, &dir, &m.Quantity, &m.QuantityAfter,
		&actorID, &m.Reason, &saleID, &purchaseID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.Direction = entity.Direction(dir)
	m.ActorID = fromNull(actorID)
	m.SaleID = fromNull(saleID)
	m.PurchaseID = fromNull(purchaseID)
	return &m, nil
}
