package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.InventoryCycleRepository = (*InventoryCycleRepo)(nil)

const cycleColumns = `id, store_id, year, number, status, comment, created_by, created_at,
	started_at, started_by, ended_at, validated_at, validated_by, updated_at`

// InventoryCycleRepo ciclos de inventario sobre PostgreSQL.
type InventoryCycleRepo struct {
	q Querier
}

// NewInventoryCycleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryCycleRepository(q Querier) *InventoryCycleRepo {
	return &InventoryCycleRepo{q: q}
}

// NextNumber toma un advisory lock de transacción por (tienda, año) y devuelve MAX(number)+1.
// Debe ejecutarse dentro de una tx; el UNIQUE (store_id, year, number) cubre el resto.
func (r *InventoryCycleRepo) NextNumber(ctx context.Context, storeID string, year int) (int, error) {
	lockKey := fmt.Sprintf("inventory_cycles:%s:%d", storeID, year)
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return 0, fmt.Errorf("lock cycle sequence: %w", err)
	}
	var next int
	query := `SELECT COALESCE(MAX(number), 0) + 1 FROM inventory_cycles WHERE store_id = $1 AND year = $2`
	if err := r.q.QueryRow(ctx, query, storeID, year).Scan(&next); err != nil {
		return 0, fmt.Errorf("next cycle number: %w", err)
	}
	return next, nil
}

// Create inserta un ciclo.
func (r *InventoryCycleRepo) Create(ctx context.Context, c *entity.InventoryCycle) error {
	query := `
		INSERT INTO inventory_cycles (` + cycleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.StoreID, c.Year, c.Number, string(c.Status), c.Comment, nullString(c.CreatedBy), c.CreatedAt,
		c.StartedAt, nullString(c.StartedBy), c.EndedAt, c.ValidatedAt, nullString(c.ValidatedBy), c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create inventory cycle %s: %w", c.Reference(), domain.ErrConflict)
		}
		return fmt.Errorf("create inventory cycle: %w", err)
	}
	return nil
}

// GetByID obtiene un ciclo; nil, nil si no existe.
func (r *InventoryCycleRepo) GetByID(ctx context.Context, id string) (*entity.InventoryCycle, error) {
	return r.getOne(ctx, "get inventory cycle", `SELECT `+cycleColumns+` FROM inventory_cycles WHERE id = $1`, id)
}

// GetForUpdate obtiene el ciclo bloqueando la fila.
func (r *InventoryCycleRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryCycle, error) {
	return r.getOne(ctx, "lock inventory cycle", `SELECT `+cycleColumns+` FROM inventory_cycles WHERE id = $1 FOR UPDATE`, id)
}

func (r *InventoryCycleRepo) getOne(ctx context.Context, op, query, id string) (*entity.InventoryCycle, error) {
	c, err := scanCycle(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Update persiste estado y marcas de tiempo.
func (r *InventoryCycleRepo) Update(ctx context.Context, c *entity.InventoryCycle) error {
	query := `
		UPDATE inventory_cycles
		SET status = $2, comment = $3, started_at = $4, started_by = $5, ended_at = $6,
			validated_at = $7, validated_by = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		c.ID, string(c.Status), c.Comment, c.StartedAt, nullString(c.StartedBy), c.EndedAt,
		c.ValidatedAt, nullString(c.ValidatedBy), c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory cycle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("ciclo %s", c.ID)
	}
	return nil
}

// Delete elimina el ciclo; las líneas caen por ON DELETE CASCADE.
func (r *InventoryCycleRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM inventory_cycles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inventory cycle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("ciclo %s", id)
	}
	return nil
}

// List ciclos de la tienda, más recientes primero.
func (r *InventoryCycleRepo) List(ctx context.Context, f repository.CycleFilter) ([]*entity.InventoryCycle, error) {
	query := `SELECT ` + cycleColumns + ` FROM inventory_cycles WHERE store_id = $1`
	args := []any{f.StoreID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY year DESC, number DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory cycles: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryCycle
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory cycle: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCycle(row pgx.Row) (*entity.InventoryCycle, error) {
	var (
		c                                 entity.InventoryCycle
		status                            string
		createdBy, startedBy, validatedBy *string
		startedAt, endedAt, validatedAt   *time.Time
	)
	err := row.Scan(&c.ID, &c.StoreID, &c.Year, &c.Number, &status, &c.Comment, &createdBy, &c.CreatedAt,
		&startedAt, &startedBy, &endedAt, &validatedAt, &validatedBy, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = entity.CycleStatus(status)
	c.CreatedBy = fromNull(createdBy)
	c.StartedBy = fromNull(startedBy)
	c.ValidatedBy = fromNull(validatedBy)
	c.StartedAt, c.EndedAt, c.ValidatedAt = startedAt, endedAt, validatedAt
	return &c, nil
}
