package stock_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	storeS   = "store-s"
	storeT   = "store-t"
	productP = "prod-p"
	productQ = "prod-q"
	productL = "prod-lot"
)

type env struct {
	db           *memory.Store
	repos        repository.Repos
	processor    *stock.MovementProcessor
	availability *stock.AvailabilityChecker
	auditor      *stock.LedgerAuditor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := memory.NewStore()
	db.AddStore(entity.Store{ID: storeS, Name: "Centre"})
	db.AddStore(entity.Store{ID: storeT, Name: "Gare"})
	db.AddProduct(entity.Product{ID: productP, SKU: "P-1", Name: "Pâtes", UnitCost: decimal.NewFromInt(3), MinimumThreshold: 2})
	db.AddProduct(entity.Product{ID: productQ, SKU: "Q-1", Name: "Quinoa", UnitCost: decimal.NewFromInt(5)})
	db.AddProduct(entity.Product{ID: productL, SKU: "L-1", Name: "Lait frais", UnitCost: decimal.NewFromInt(1), TracksLots: true})
	repos := db.Repos()
	return &env{
		db:           db,
		repos:        repos,
		processor:    stock.NewMovementProcessor(db, repos.Movements, logger.Nop().Zerolog()),
		availability: stock.NewAvailabilityChecker(repos.Stock),
		auditor:      stock.NewLedgerAuditor(repos.Movements, repos.Stock),
	}
}

func (e *env) record(t *testing.T, typ entity.MovementType, dir entity.Direction, qty int64) (*stock.RecordResult, error) {
	t.Helper()
	return e.processor.Record(context.Background(), stock.RecordCommand{
		StoreID: storeS, ProductID: productP, Type: typ, Direction: dir, Quantity: qty, ActorID: "u1",
	})
}

func (e *env) quantity(t *testing.T, key entity.StockKey) int64 {
	t.Helper()
	level, err := e.repos.Stock.Get(context.Background(), key)
	require.NoError(t, err)
	if level == nil {
		return 0
	}
	return level.Quantity
}

var keyP = entity.StockKey{StoreID: storeS, ProductID: productP}

func TestRecord_EntradaCreaLaFila(t *testing.T) {
	e := newEnv(t)

	res, err := e.record(t, entity.MovementTypeEntreeAchat, "", 10)
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionIn, res.Movement.Direction)
	assert.Equal(t, int64(10), res.Movement.Quantity)
	assert.Equal(t, int64(10), res.Movement.QuantityAfter)
	assert.Equal(t, int64(10), res.StockLevel.Quantity)
	assert.Equal(t, int64(2), res.StockLevel.MinimumThreshold, "umbral por defecto del producto")
	assert.Equal(t, int64(1), res.StockLevel.Version)

	res, err = e.record(t, entity.MovementTypeEntreeRetour, "", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.StockLevel.Quantity)
	assert.Equal(t, int64(2), res.StockLevel.Version)
}

// Escenario A: una salida mayor al stock falla y no cambia nada.
func TestRecord_SalidaInsuficiente(t *testing.T) {
	e := newEnv(t)
	_, err := e.record(t, entity.MovementTypeEntreeAchat, "", 10)
	require.NoError(t, err)

	_, err = e.record(t, entity.MovementTypeSortieVente, "", 15)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(10), insufficient.Current)
	assert.Equal(t, int64(15), insufficient.Requested)

	assert.Equal(t, int64(10), e.quantity(t, keyP))
	assert.Equal(t, 1, e.db.MovementCount())
}

func TestRecord_SalidaSinFilaEsNotFound(t *testing.T) {
	e := newEnv(t)
	_, err := e.record(t, entity.MovementTypeSortiePerissable, "", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, e.db.MovementCount())
}

func TestRecord_Validaciones(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tests := []struct {
		name string
		cmd  stock.RecordCommand
		want error
	}{
		{"cantidad cero", stock.RecordCommand{StoreID: storeS, ProductID: productP, Type: entity.MovementTypeEntreeAchat, Quantity: 0}, domain.ErrValidation},
		{"cantidad negativa", stock.RecordCommand{StoreID: storeS, ProductID: productP, Type: entity.MovementTypeEntreeAchat, Quantity: -3}, domain.ErrValidation},
		{"tipo desconocido", stock.RecordCommand{StoreID: storeS, ProductID: productP, Type: "ENTREE", Quantity: 1}, domain.ErrValidation},
		{"ajuste sin dirección", stock.RecordCommand{StoreID: storeS, ProductID: productP, Type: entity.MovementTypeAjustement, Quantity: 1}, domain.ErrValidation},
		{"dirección contraria al tipo", stock.RecordCommand{StoreID: storeS, ProductID: productP, Type: entity.MovementTypeEntreeAchat, Direction: entity.DirectionOut, Quantity: 1}, domain.ErrValidation},
		{"producto por lote sin lote", stock.RecordCommand{StoreID: storeS, ProductID: productL, Type: entity.MovementTypeEntreeAchat, Quantity: 1}, domain.ErrValidation},
		{"producto sin lotes con lote", stock.RecordCommand{StoreID: storeS, ProductID: productP, LotID: "L-9", Type: entity.MovementTypeEntreeAchat, Quantity: 1}, domain.ErrValidation},
		{"tienda inexistente", stock.RecordCommand{StoreID: "nope", ProductID: productP, Type: entity.MovementTypeEntreeAchat, Quantity: 1}, domain.ErrNotFound},
		{"producto inexistente", stock.RecordCommand{StoreID: storeS, ProductID: "nope", Type: entity.MovementTypeEntreeAchat, Quantity: 1}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.processor.Record(ctx, tt.cmd)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, e.db.MovementCount())
}

func TestRecord_AjusteConDireccionExplicita(t *testing.T) {
	e := newEnv(t)
	_, err := e.record(t, entity.MovementTypeAjustement, entity.DirectionIn, 6)
	require.NoError(t, err)
	res, err := e.record(t, entity.MovementTypeAjustement, entity.DirectionOut, 4)
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionOut, res.Movement.Direction)
	assert.Equal(t, int64(2), res.StockLevel.Quantity)
}

func TestRecord_StockPorLote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, lot := range []string{"L-01", "L-02"} {
		_, err := e.processor.Record(ctx, stock.RecordCommand{
			StoreID: storeS, ProductID: productL, LotID: lot, Type: entity.MovementTypeEntreeAchat, Quantity: 4,
		})
		require.NoError(t, err)
	}
	_, err := e.processor.Record(ctx, stock.RecordCommand{
		StoreID: storeS, ProductID: productL, LotID: "L-01", Type: entity.MovementTypeSortiePerissable, Quantity: 4,
	})
	require.NoError(t, err)

	assert.Zero(t, e.quantity(t, entity.StockKey{StoreID: storeS, ProductID: productL, LotID: "L-01"}))
	assert.Equal(t, int64(4), e.quantity(t, entity.StockKey{StoreID: storeS, ProductID: productL, LotID: "L-02"}))
}

func TestRecord_EntradaQueDesbordaEsRechazada(t *testing.T) {
	e := newEnv(t)
	_, err := e.record(t, entity.MovementTypeEntreeAchat, "", math.MaxInt64)
	require.NoError(t, err)

	_, err = e.record(t, entity.MovementTypeEntreeAchat, "", 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, int64(math.MaxInt64), e.quantity(t, keyP))
	assert.Equal(t, 1, e.db.MovementCount())
}

// El stock materializado es siempre la suma firmada del libro.
func TestRecord_LibroYStockCoinciden(t *testing.T) {
	e := newEnv(t)
	steps := []struct {
		typ entity.MovementType
		dir entity.Direction
		qty int64
	}{
		{entity.MovementTypeEntreeAchat, "", 20},
		{entity.MovementTypeSortieVente, "", 7},
		{entity.MovementTypeEntreeRetour, "", 2},
		{entity.MovementTypeSortieVente, "", 30}, // falla
		{entity.MovementTypeAjustement, entity.DirectionOut, 5},
		{entity.MovementTypeSortiePerissable, "", 1},
		{entity.MovementTypeAjustement, entity.DirectionIn, 3},
	}
	var want int64
	for _, s := range steps {
		res, err := e.record(t, s.typ, s.dir, s.qty)
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			continue
		}
		want += res.Movement.SignedDelta()
	}

	check, err := e.auditor.Verify(context.Background(), keyP)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
	assert.Equal(t, want, check.LedgerQuantity)
	assert.Equal(t, int64(12), check.StockQuantity)
}

func TestRecord_SalidasConcurrentesNuncaNegativas(t *testing.T) {
	e := newEnv(t)
	_, err := e.record(t, entity.MovementTypeEntreeAchat, "", 10)
	require.NoError(t, err)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.record(t, entity.MovementTypeSortieVente, "", 1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 15, rejected)
	assert.Zero(t, e.quantity(t, keyP))
	check, err := e.auditor.Verify(context.Background(), keyP)
	require.NoError(t, err)
	assert.True(t, check.Consistent)
}

func TestRecord_FalloDelLibroRevierteElStock(t *testing.T) {
	e := newEnv(t)
	boom := errors.New("disk full")
	e.db.FailOn("movements.create", boom)

	_, err := e.record(t, entity.MovementTypeEntreeAchat, "", 10)
	assert.ErrorIs(t, err, boom)
	level, err := e.repos.Stock.Get(context.Background(), keyP)
	require.NoError(t, err)
	assert.Nil(t, level, "la fila creada por el incremento se revierte")
	assert.Zero(t, e.db.MovementCount())
}

func TestTransfer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.record(t, entity.MovementTypeEntreeAchat, "", 8)
	require.NoError(t, err)

	res, err := e.processor.Transfer(ctx, stock.TransferCommand{
		FromStoreID: storeS, ToStoreID: storeT, ProductID: productP, Quantity: 5, ActorID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeTransfert, res.Out.Movement.Type)
	assert.Equal(t, entity.DirectionOut, res.Out.Movement.Direction)
	assert.Equal(t, entity.DirectionIn, res.In.Movement.Direction)
	assert.Equal(t, int64(3), e.quantity(t, keyP))
	keyT := entity.StockKey{StoreID: storeT, ProductID: productP}
	assert.Equal(t, int64(5), e.quantity(t, keyT))

	// Sin stock suficiente no se crea nada en destino.
	before := e.db.MovementCount()
	_, err = e.processor.Transfer(ctx, stock.TransferCommand{
		FromStoreID: storeS, ToStoreID: storeT, ProductID: productP, Quantity: 4,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, before, e.db.MovementCount())
	assert.Equal(t, int64(5), e.quantity(t, keyT))

	_, err = e.processor.Transfer(ctx, stock.TransferCommand{FromStoreID: storeS, ToStoreID: storeS, ProductID: productP, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTransfer_DestinoInexistenteRevierteLaSalida(t *testing.T) {
	e := newEnv(t)
	_, err := e.record(t, entity.MovementTypeEntreeAchat, "", 8)
	require.NoError(t, err)

	_, err = e.processor.Transfer(context.Background(), stock.TransferCommand{
		FromStoreID: storeS, ToStoreID: "nope", ProductID: productP, Quantity: 3,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(8), e.quantity(t, keyP))
	assert.Equal(t, 1, e.db.MovementCount())
}

func TestHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.record(t, entity.MovementTypeEntreeAchat, "", 8)
	require.NoError(t, err)
	_, err = e.record(t, entity.MovementTypeSortieVente, "", 3)
	require.NoError(t, err)

	list, err := e.processor.History(ctx, repository.MovementFilter{StoreID: storeS})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.MovementTypeSortieVente, list[0].Type, "más reciente primero")

	sales, err := e.processor.History(ctx, repository.MovementFilter{StoreID: storeS, Type: entity.MovementTypeSortieVente})
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	_, err = e.processor.History(ctx, repository.MovementFilter{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
