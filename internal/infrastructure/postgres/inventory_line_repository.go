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

var _ repository.InventoryLineRepository = (*InventoryLineRepo)(nil)

const lineColumns = `id, cycle_id, product_id, lot_id, theoretical_quantity, counted_quantity, is_counted,
	variance, unit_cost, variance_value, counted_at, updated_at`

// InventoryLineRepo líneas de conteo sobre PostgreSQL.
type InventoryLineRepo struct {
	q Querier
}

// NewInventoryLineRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryLineRepository(q Querier) *InventoryLineRepo {
	return &InventoryLineRepo{q: q}
}

// CreateBatch inserta todas las líneas del snapshot en un único round-trip (pgx.Batch).
func (r *InventoryLineRepo) CreateBatch(ctx context.Context, lines []*entity.InventoryLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `
		INSERT INTO inventory_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(query,
			l.ID, l.CycleID, l.ProductID, l.LotID, l.TheoreticalQuantity, l.CountedQuantity, l.IsCounted,
			l.Variance, l.UnitCost, l.VarianceValue, l.CountedAt, l.UpdatedAt,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range lines {
		if _, err := br.Exec(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("create inventory lines: %w", domain.ErrConflict)
			}
			return fmt.Errorf("create inventory lines: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una línea; nil, nil si no existe.
func (r *InventoryLineRepo) GetByID(ctx context.Context, id string) (*entity.InventoryLine, error) {
	l, err := scanLine(r.q.QueryRow(ctx, `SELECT `+lineColumns+` FROM inventory_lines WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory line: %w", err)
	}
	return l, nil
}

// ListByCycle líneas del ciclo en orden de producto y lote.
func (r *InventoryLineRepo) ListByCycle(ctx context.Context, cycleID string) ([]*entity.InventoryLine, error) {
	query := `SELECT ` + lineColumns + ` FROM inventory_lines WHERE cycle_id = $1 ORDER BY product_id, lot_id`
	rows, err := r.q.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list inventory lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory line: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// Update persiste conteo, teórico y diferencias.
func (r *InventoryLineRepo) Update(ctx context.Context, l *entity.InventoryLine) error {
	query := `
		UPDATE inventory_lines
		SET theoretical_quantity = $2, counted_quantity = $3, is_counted = $4, variance = $5,
			variance_value = $6, counted_at = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		l.ID, l.TheoreticalQuantity, l.CountedQuantity, l.IsCounted, l.Variance, l.VarianceValue, l.CountedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inventory line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("línea %s", l.ID)
	}
	return nil
}

// DeleteByCycle elimina las líneas del ciclo.
func (r *InventoryLineRepo) DeleteByCycle(ctx context.Context, cycleID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_lines WHERE cycle_id = $1`, cycleID); err != nil {
		return fmt.Errorf("delete inventory lines: %w", err)
	}
	return nil
}

func scanLine(row pgx.Row) (*entity.InventoryLine, error) {
	var l entity.InventoryLine
	err := row.Scan(&l.ID, &l.CycleID, &l.ProductID, &l.LotID, &l.TheoreticalQuantity, &l.CountedQuantity, &l.IsCounted,
		&l.Variance, &l.UnitCost, &l.VarianceValue, &l.CountedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
