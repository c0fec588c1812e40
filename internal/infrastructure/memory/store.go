// Package memory implementa los repositorios y el TxRunner en memoria.
// Un único mutex serializa las transacciones (equivalente a un bloqueo de fila global) y
// cada transacción trabaja sobre el estado vivo con una copia para Rollback.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type state struct {
	stores    map[string]entity.Store
	products  map[string]entity.Product
	stock     map[entity.StockKey]entity.StockLevel
	movements []entity.Movement
	cycles    map[string]entity.InventoryCycle
	lines     map[string]entity.InventoryLine
	lineOrder []string
	sequences map[string]int
}

func (st *state) clone() *state {
	c := &state{
		stores:    make(map[string]entity.Store, len(st.stores)),
		products:  make(map[string]entity.Product, len(st.products)),
		stock:     make(map[entity.StockKey]entity.StockLevel, len(st.stock)),
		movements: append([]entity.Movement(nil), st.movements...),
		cycles:    make(map[string]entity.InventoryCycle, len(st.cycles)),
		lines:     make(map[string]entity.InventoryLine, len(st.lines)),
		lineOrder: append([]string(nil), st.lineOrder...),
		sequences: make(map[string]int, len(st.sequences)),
	}
	for k, v := range st.stores {
		c.stores[k] = v
	}
	for k, v := range st.products {
		c.products[k] = v
	}
	for k, v := range st.stock {
		c.stock[k] = v
	}
	for k, v := range st.cycles {
		c.cycles[k] = v
	}
	for k, v := range st.lines {
		c.lines[k] = v
	}
	for k, v := range st.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store base de datos en memoria.
type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string]*failure
}

type failure struct {
	err  error
	skip int // llamadas que aún deben pasar antes de fallar
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		st: &state{
			stores:    map[string]entity.Store{},
			products:  map[string]entity.Product{},
			stock:     map[entity.StockKey]entity.StockLevel{},
			cycles:    map[string]entity.InventoryCycle{},
			lines:     map[string]entity.InventoryLine{},
			sequences: map[string]int{},
		},
		failures: map[string]*failure{},
	}
}

// AddStore registra una tienda (datos maestros fuera del motor).
func (s *Store) AddStore(store entity.Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if store.CreatedAt.IsZero() {
		store.CreatedAt = time.Now().UTC()
	}
	s.st.stores[store.ID] = store
}

// AddProduct registra un producto (datos maestros fuera del motor).
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.st.products[p.ID] = p
}

// FailOn hace que la próxima llamada a op (p.ej. "cycles.update") devuelva err.
func (s *Store) FailOn(op string, err error) {
	s.FailAfter(op, 0, err)
}

// FailAfter deja pasar n llamadas a op y hace fallar la siguiente.
func (s *Store) FailAfter(op string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = &failure{err: err, skip: n}
}

// MovementCount número de movimientos en el libro.
func (s *Store) MovementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.movements)
}

// Run ejecuta fn en una transacción serializada; si fn falla se restaura el estado previo.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(s.repos(true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Repos repositorios fuera de transacción (cada llamada toma el mutex).
func (s *Store) Repos() repository.Repos {
	return s.repos(false)
}

func (s *Store) repos(tx bool) repository.Repos {
	b := base{s: s, tx: tx}
	return repository.Repos{
		Movements: &MovementRepo{b},
		Stock:     &StockLevelRepo{b},
		Cycles:    &CycleRepo{b},
		Lines:     &LineRepo{b},
		Products:  &ProductRepo{b},
		Stores:    &StoreRepo{b},
	}
}

type base struct {
	s  *Store
	tx bool
}

// lock toma el mutex salvo dentro de una transacción (Run ya lo tiene).
func (b base) lock() func() {
	if b.tx {
		return func() {}
	}
	b.s.mu.Lock()
	return b.s.mu.Unlock
}

// fail consume un error inyectado con FailOn; requiere el mutex tomado.
func (b base) fail(op string) error {
	f, ok := b.s.failures[op]
	if !ok {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	delete(b.s.failures, op)
	return f.err
}
