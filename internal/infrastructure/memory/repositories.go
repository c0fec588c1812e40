package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.MovementRepository       = (*MovementRepo)(nil)
	_ repository.StockLevelRepository     = (*StockLevelRepo)(nil)
	_ repository.InventoryCycleRepository = (*CycleRepo)(nil)
	_ repository.InventoryLineRepository  = (*LineRepo)(nil)
	_ repository.ProductRepository        = (*ProductRepo)(nil)
	_ repository.StoreRepository          = (*StoreRepo)(nil)
)

// MovementRepo libro de movimientos en memoria.
type MovementRepo struct{ base }

func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	defer r.lock()()
	if err := r.fail("movements.create"); err != nil {
		return err
	}
	if m.Quantity <= 0 {
		return fmt.Errorf("create movement: quantity must be positive")
	}
	r.s.st.movements = append(r.s.st.movements, *m)
	return nil
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	defer r.lock()()
	for i := range r.s.st.movements {
		if r.s.st.movements[i].ID == id {
			m := r.s.st.movements[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	defer r.lock()()
	var out []*entity.Movement
	for i := len(r.s.st.movements) - 1; i >= 0; i-- {
		m := r.s.st.movements[i]
		if f.StoreID != "" && m.StoreID != f.StoreID ||
			f.ProductID != "" && m.ProductID != f.ProductID ||
			f.LotID != "" && m.LotID != f.LotID ||
			f.Type != "" && m.Type != f.Type ||
			f.From != nil && m.CreatedAt.Before(*f.From) ||
			f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, &m)
	}
	return page(out, f.Limit, f.Offset), nil
}

func (r *MovementRepo) SumSignedByKey(_ context.Context, key entity.StockKey) (int64, error) {
	defer r.lock()()
	var sum int64
	for i := range r.s.st.movements {
		m := &r.s.st.movements[i]
		if m.Key() == key {
			sum += m.SignedDelta()
		}
	}
	return sum, nil
}

// StockLevelRepo stock materializado en memoria.
type StockLevelRepo struct{ base }

func (r *StockLevelRepo) Get(_ context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	defer r.lock()()
	if l, ok := r.s.st.stock[key]; ok {
		return &l, nil
	}
	return nil, nil
}

// GetForUpdate el mutex de la transacción ya serializa el acceso.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockLevel, error) {
	return r.Get(ctx, key)
}

func (r *StockLevelRepo) Increment(_ context.Context, key entity.StockKey, quantity, defaultThreshold int64) (*entity.StockLevel, error) {
	defer r.lock()()
	if err := r.fail("stock.increment"); err != nil {
		return nil, err
	}
	l, ok := r.s.st.stock[key]
	if !ok {
		l = entity.StockLevel{StoreID: key.StoreID, ProductID: key.ProductID, LotID: key.LotID, MinimumThreshold: defaultThreshold}
	}
	if l.Quantity > math.MaxInt64-quantity {
		return nil, domain.Validationf("cantidad fuera de rango para %s", key)
	}
	l.Quantity += quantity
	l.Version++
	l.UpdatedAt = time.Now().UTC()
	r.s.st.stock[key] = l
	return &l, nil
}

func (r *StockLevelRepo) Decrement(_ context.Context, key entity.StockKey, quantity int64) (*entity.StockLevel, error) {
	defer r.lock()()
	if err := r.fail("stock.decrement"); err != nil {
		return nil, err
	}
	l, ok := r.s.st.stock[key]
	if !ok || l.Quantity < quantity {
		return nil, nil
	}
	l.Quantity -= quantity
	l.Version++
	l.UpdatedAt = time.Now().UTC()
	r.s.st.stock[key] = l
	return &l, nil
}

func (r *StockLevelRepo) List(_ context.Context, f repository.StockFilter) ([]*entity.StockLevel, error) {
	defer r.lock()()
	var out []*entity.StockLevel
	for _, l := range r.s.st.stock {
		if f.StoreID != "" && l.StoreID != f.StoreID ||
			f.ProductID != "" && l.ProductID != f.ProductID ||
			f.OnlyAlerts && !l.IsAlert() {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sortLevels(out)
	return page(out, f.Limit, f.Offset), nil
}

func (r *StockLevelRepo) ListForSnapshot(_ context.Context, storeID string, productIDs []string) ([]*entity.StockLevel, error) {
	defer r.lock()()
	wanted := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	var out []*entity.StockLevel
	for _, l := range r.s.st.stock {
		if l.StoreID != storeID || len(wanted) > 0 && !wanted[l.ProductID] {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sortLevels(out)
	return out, nil
}

func (r *StockLevelRepo) SetThreshold(_ context.Context, key entity.StockKey, threshold int64) error {
	defer r.lock()()
	l, ok := r.s.st.stock[key]
	if !ok {
		return domain.NotFoundf("stock %s", key)
	}
	l.MinimumThreshold = threshold
	l.UpdatedAt = time.Now().UTC()
	r.s.st.stock[key] = l
	return nil
}

func (r *StockLevelRepo) TotalOnHand(_ context.Context, productID string) (int64, error) {
	defer r.lock()()
	var total int64
	for _, l := range r.s.st.stock {
		if l.ProductID == productID {
			total += l.Quantity
		}
	}
	return total, nil
}

func sortLevels(levels []*entity.StockLevel) {
	sort.Slice(levels, func(i, j int) bool {
		a, b := levels[i], levels[j]
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.LotID < b.LotID
	})
}

// CycleRepo ciclos de inventario en memoria.
type CycleRepo struct{ base }

func (r *CycleRepo) NextNumber(_ context.Context, storeID string, year int) (int, error) {
	defer r.lock()()
	k := fmt.Sprintf("%s|%d", storeID, year)
	r.s.st.sequences[k]++
	return r.s.st.sequences[k], nil
}

func (r *CycleRepo) Create(_ context.Context, c *entity.InventoryCycle) error {
	defer r.lock()()
	if _, ok := r.s.st.cycles[c.ID]; ok {
		return fmt.Errorf("create cycle: %w", domain.ErrConflict)
	}
	r.s.st.cycles[c.ID] = *c
	return nil
}

func (r *CycleRepo) GetByID(_ context.Context, id string) (*entity.InventoryCycle, error) {
	defer r.lock()()
	if c, ok := r.s.st.cycles[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *CycleRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryCycle, error) {
	return r.GetByID(ctx, id)
}

func (r *CycleRepo) Update(_ context.Context, c *entity.InventoryCycle) error {
	defer r.lock()()
	if err := r.fail("cycles.update"); err != nil {
		return err
	}
	if _, ok := r.s.st.cycles[c.ID]; !ok {
		return domain.NotFoundf("ciclo %s", c.ID)
	}
	r.s.st.cycles[c.ID] = *c
	return nil
}

func (r *CycleRepo) Delete(_ context.Context, id string) error {
	defer r.lock()()
	delete(r.s.st.cycles, id)
	return nil
}

func (r *CycleRepo) List(_ context.Context, f repository.CycleFilter) ([]*entity.InventoryCycle, error) {
	defer r.lock()()
	var out []*entity.InventoryCycle
	for _, c := range r.s.st.cycles {
		if f.StoreID != "" && c.StoreID != f.StoreID || f.Status != "" && c.Status != f.Status {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Number > out[j].Number
	})
	return page(out, f.Limit, f.Offset), nil
}

// LineRepo líneas de conteo en memoria.
type LineRepo struct{ base }

func (r *LineRepo) CreateBatch(_ context.Context, lines []*entity.InventoryLine) error {
	defer r.lock()()
	for _, l := range lines {
		r.s.st.lines[l.ID] = copyLine(l)
		r.s.st.lineOrder = append(r.s.st.lineOrder, l.ID)
	}
	return nil
}

func (r *LineRepo) GetByID(_ context.Context, id string) (*entity.InventoryLine, error) {
	defer r.lock()()
	if l, ok := r.s.st.lines[id]; ok {
		c := copyLine(&l)
		return &c, nil
	}
	return nil, nil
}

func (r *LineRepo) ListByCycle(_ context.Context, cycleID string) ([]*entity.InventoryLine, error) {
	defer r.lock()()
	var out []*entity.InventoryLine
	for _, id := range r.s.st.lineOrder {
		l, ok := r.s.st.lines[id]
		if !ok || l.CycleID != cycleID {
			continue
		}
		c := copyLine(&l)
		out = append(out, &c)
	}
	return out, nil
}

func (r *LineRepo) Update(_ context.Context, l *entity.InventoryLine) error {
	defer r.lock()()
	if err := r.fail("lines.update"); err != nil {
		return err
	}
	if _, ok := r.s.st.lines[l.ID]; !ok {
		return domain.NotFoundf("línea %s", l.ID)
	}
	r.s.st.lines[l.ID] = copyLine(l)
	return nil
}

func (r *LineRepo) DeleteByCycle(_ context.Context, cycleID string) error {
	defer r.lock()()
	kept := r.s.st.lineOrder[:0:0]
	for _, id := range r.s.st.lineOrder {
		if r.s.st.lines[id].CycleID == cycleID {
			delete(r.s.st.lines, id)
			continue
		}
		kept = append(kept, id)
	}
	r.s.st.lineOrder = kept
	return nil
}

func copyLine(l *entity.InventoryLine) entity.InventoryLine {
	c := *l
	if l.CountedQuantity != nil {
		v := *l.CountedQuantity
		c.CountedQuantity = &v
	}
	return c
}

// ProductRepo catálogo en memoria.
type ProductRepo struct{ base }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	defer r.lock()()
	if p, ok := r.s.st.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *ProductRepo) ListByIDs(_ context.Context, ids []string) ([]*entity.Product, error) {
	defer r.lock()()
	out := make([]*entity.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.st.products[id]; ok {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

func (r *ProductRepo) UpdateUnitCost(_ context.Context, id string, cost decimal.Decimal) error {
	defer r.lock()()
	if err := r.fail("products.update_cost"); err != nil {
		return err
	}
	p, ok := r.s.st.products[id]
	if !ok {
		return domain.NotFoundf("producto %s", id)
	}
	p.UnitCost = cost
	r.s.st.products[id] = p
	return nil
}

// StoreRepo tiendas en memoria.
type StoreRepo struct{ base }

func (r *StoreRepo) GetByID(_ context.Context, id string) (*entity.Store, error) {
	defer r.lock()()
	if s, ok := r.s.st.stores[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
