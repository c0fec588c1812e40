package sales_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/sales"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	storeS   = "store-s"
	productP = "prod-p"
	productQ = "prod-q"
)

func setup(t *testing.T) (*memory.Store, *sales.CheckoutUseCase) {
	t.Helper()
	db := memory.NewStore()
	db.AddStore(entity.Store{ID: storeS, Name: "Centre"})
	db.AddProduct(entity.Product{ID: productP, SKU: "P-1", Name: "Pâtes", UnitCost: decimal.NewFromInt(3)})
	db.AddProduct(entity.Product{ID: productQ, SKU: "Q-1", Name: "Quinoa", UnitCost: decimal.NewFromInt(5)})
	repos := db.Repos()
	log := logger.Nop().Zerolog()
	processor := stock.NewMovementProcessor(db, repos.Movements, log)
	checkout := sales.NewCheckoutUseCase(db, stock.NewAvailabilityChecker(repos.Stock), processor, log)
	for _, p := range []string{productP, productQ} {
		_, err := processor.Record(context.Background(), stock.RecordCommand{
			StoreID: storeS, ProductID: p, Type: entity.MovementTypeEntreeAchat, Quantity: 5,
		})
		require.NoError(t, err)
	}
	return db, checkout
}

func TestCheckout_DescuentaTodasLasLineas(t *testing.T) {
	db, checkout := setup(t)
	res, err := checkout.Checkout(context.Background(), sales.CheckoutCommand{
		StoreID: storeS,
		ActorID: "caja-1",
		Lines:   []sales.Line{{ProductID: productP, Quantity: 2}, {ProductID: productQ, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.SaleID, "se genera un id de venta")
	require.Len(t, res.Movements, 2)
	for _, m := range res.Movements {
		assert.Equal(t, entity.MovementTypeSortieVente, m.Type)
		assert.Equal(t, res.SaleID, m.SaleID)
	}
	assert.Equal(t, int64(3), res.Movements[0].QuantityAfter)
	assert.Equal(t, int64(0), res.Movements[1].QuantityAfter)
	assert.Equal(t, 4, db.MovementCount())
}

func TestCheckout_FaltanteNoAplicaNada(t *testing.T) {
	db, checkout := setup(t)
	_, err := checkout.Checkout(context.Background(), sales.CheckoutCommand{
		StoreID: storeS,
		Lines: []sales.Line{
			{ProductID: productP, Quantity: 2},
			{ProductID: productQ, Quantity: 4},
			{ProductID: productQ, Quantity: 4},
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var shortfall *sales.ShortfallError
	require.True(t, errors.As(err, &shortfall))
	require.Len(t, shortfall.Shortfalls, 1)
	assert.Equal(t, productQ, shortfall.Shortfalls[0].ProductID)
	assert.Equal(t, int64(8), shortfall.Shortfalls[0].Required)
	assert.Equal(t, 2, db.MovementCount())
}

func TestCheckout_FalloEnUnaLineaRevierteLasAnteriores(t *testing.T) {
	db, checkout := setup(t)
	boom := errors.New("ledger unavailable")
	before := db.MovementCount()
	// La primera línea se aplica; la segunda falla al escribir el libro.
	db.FailAfter("movements.create", 1, boom)

	_, err := checkout.Checkout(context.Background(), sales.CheckoutCommand{
		StoreID: storeS,
		Lines:   []sales.Line{{ProductID: productP, Quantity: 1}, {ProductID: productQ, Quantity: 1}},
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, db.MovementCount())

	level, err := db.Repos().Stock.Get(context.Background(), entity.StockKey{StoreID: storeS, ProductID: productP})
	require.NoError(t, err)
	assert.Equal(t, int64(5), level.Quantity)
}

func TestCheckout_Validaciones(t *testing.T) {
	_, checkout := setup(t)
	_, err := checkout.Checkout(context.Background(), sales.CheckoutCommand{StoreID: storeS})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = checkout.Checkout(context.Background(), sales.CheckoutCommand{Lines: []sales.Line{{ProductID: productP, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReturnItems(t *testing.T) {
	_, checkout := setup(t)
	ctx := context.Background()
	sale, err := checkout.Checkout(ctx, sales.CheckoutCommand{
		StoreID: storeS, SaleID: "T-1", Lines: []sales.Line{{ProductID: productP, Quantity: 3}},
	})
	require.NoError(t, err)

	movs, err := checkout.ReturnItems(ctx, sales.ReturnCommand{
		StoreID: storeS, SaleID: sale.SaleID, Lines: []sales.Line{{ProductID: productP, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeEntreeRetour, movs[0].Type)
	assert.Equal(t, "T-1", movs[0].SaleID)
	assert.Equal(t, "Retour vente T-1", movs[0].Reason)
	assert.Equal(t, int64(3), movs[0].QuantityAfter)

	_, err = checkout.ReturnItems(ctx, sales.ReturnCommand{StoreID: storeS, Lines: []sales.Line{{ProductID: productP, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckout_ProductoPorLoteSinLoteEsValidacion(t *testing.T) {
	db, checkout := setup(t)
	db.AddProduct(entity.Product{ID: "prod-lot", SKU: "L-1", Name: "Lait frais", UnitCost: decimal.NewFromInt(1), TracksLots: true})
	processor := stock.NewMovementProcessor(db, db.Repos().Movements, logger.Nop().Zerolog())
	_, err := processor.Record(context.Background(), stock.RecordCommand{
		StoreID: storeS, ProductID: "prod-lot", LotID: "L-01", Type: entity.MovementTypeEntreeAchat, Quantity: 5,
	})
	require.NoError(t, err)
	before := db.MovementCount()

	_, err = checkout.Checkout(context.Background(), sales.CheckoutCommand{
		StoreID: storeS,
		Lines:   []sales.Line{{ProductID: "prod-lot", Quantity: 2}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, before, db.MovementCount())
}
