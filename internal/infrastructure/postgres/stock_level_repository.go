package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

const stockColumns = `store_id, product_id, lot_id, quantity, minimum_threshold, version, updated_at`

// StockLevelRepo stock materializado sobre PostgreSQL (usable con pool o tx).
// La tabla tiene CHECK (quantity >= 0) como última barrera contra stock negativo.
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// Get obtiene la fila; nil, nil si no existe.
func (r *StockLevelRepo) Get(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels
		WHERE store_id = $1 AND product_id = $2 AND lot_id = $3`
	return r.getOne(ctx, "get stock", query, key)
}

// GetForUpdate obtiene la fila y la bloquea (SELECT FOR UPDATE).
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels
		WHERE store_id = $1 AND product_id = $2 AND lot_id = $3
		FOR UPDATE`
	return r.getOne(ctx, "get stock for update", query, key)
}

func (r *StockLevelRepo) getOne(ctx context.Context, op, query string, key entity.StockKey) (*entity.StockLevel, error) {
	l, err := scanStock(r.q.QueryRow(ctx, query, key.StoreID, key.ProductID, key.LotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// Increment crea la fila con quantity o suma de forma atómica (INSERT … ON CONFLICT).
func (r *StockLevelRepo) Increment(ctx context.Context, key entity.StockKey, quantity, defaultThreshold int64) (*entity.StockLevel, error) {
	query := `
		INSERT INTO stock_levels (store_id, product_id, lot_id, quantity, minimum_threshold, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, now())
		ON CONFLICT (store_id, product_id, lot_id)
		DO UPDATE SET quantity = stock_levels.quantity + EXCLUDED.quantity,
			version = stock_levels.version + 1,
			updated_at = now()
		RETURNING ` + stockColumns
	l, err := scanStock(r.q.QueryRow(ctx, query, key.StoreID, key.ProductID, key.LotID, quantity, defaultThreshold))
	if err != nil {
		if isOutOfRange(err) {
			return nil, domain.Validationf("cantidad fuera de rango para %s", key)
		}
		return nil, fmt.Errorf("increment stock: %w", err)
	}
	return l, nil
}

// Decrement resta con guarda quantity >= $4; nil, nil si la guarda no se cumple.
func (r *StockLevelRepo) Decrement(ctx context.Context, key entity.StockKey, quantity int64) (*entity.StockLevel, error) {
	query := `
		UPDATE stock_levels
		SET quantity = quantity - $4, version = version + 1, updated_at = now()
		WHERE store_id = $1 AND product_id = $2 AND lot_id = $3 AND quantity >= $4
		RETURNING ` + stockColumns
	l, err := scanStock(r.q.QueryRow(ctx, query, key.StoreID, key.ProductID, key.LotID, quantity))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isCheckViolation(err) {
			return nil, fmt.Errorf("decrement stock: %w", domain.ErrInsufficientStock)
		}
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	return l, nil
}

// List filas filtradas por tienda/producto, opcionalmente solo las que están en alerta.
func (r *StockLevelRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE 1 = 1`
	var args []any
	if f.StoreID != "" {
		args = append(args, f.StoreID)
		query += fmt.Sprintf(" AND store_id = $%d", len(args))
	}
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		query += fmt.Sprintf(" AND product_id = $%d", len(args))
	}
	if f.OnlyAlerts {
		query += " AND quantity <= minimum_threshold"
	}
	query += fmt.Sprintf(" ORDER BY store_id, product_id, lot_id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)
	return r.list(ctx, "list stock", query, args...)
}

// ListForSnapshot filas existentes de la tienda, restringidas a productIDs si se indican.
func (r *StockLevelRepo) ListForSnapshot(ctx context.Context, storeID string, productIDs []string) ([]*entity.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE store_id = $1`
	args := []any{storeID}
	if len(productIDs) > 0 {
		query += ` AND product_id::text = ANY($2)`
		args = append(args, productIDs)
	}
	query += ` ORDER BY product_id, lot_id`
	return r.list(ctx, "list stock snapshot", query, args...)
}

// SetThreshold actualiza el umbral de alerta de una fila existente.
func (r *StockLevelRepo) SetThreshold(ctx context.Context, key entity.StockKey, threshold int64) error {
	query := `
		UPDATE stock_levels SET minimum_threshold = $4, version = version + 1, updated_at = now()
		WHERE store_id = $1 AND product_id = $2 AND lot_id = $3`
	tag, err := r.q.Exec(ctx, query, key.StoreID, key.ProductID, key.LotID, threshold)
	if err != nil {
		return fmt.Errorf("set threshold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("stock %s", key)
	}
	return nil
}

// TotalOnHand stock del producto sumado en todas las tiendas y lotes.
func (r *StockLevelRepo) TotalOnHand(ctx context.Context, productID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0)::bigint FROM stock_levels WHERE product_id = $1`, productID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total on hand: %w", err)
	}
	return total, nil
}

func (r *StockLevelRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockLevel, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		l, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func scanStock(row pgx.Row) (*entity.StockLevel, error) {
	var l entity.StockLevel
	if err := row.Scan(&l.StoreID, &l.ProductID, &l.LotID, &l.Quantity, &l.MinimumThreshold, &l.Version, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
