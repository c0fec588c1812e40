package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/purchasing"
	"github.com/jhoicas/stock-ledger/internal/application/sales"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "stock-ledger-test"
	storeA        = "store-a"
	storeB        = "store-b"
	productCafe   = "prod-cafe"
	productYaourt = "prod-yaourt" // suivi par lot
)

// buildApp arma la API completa sobre el adaptador en memoria.
func buildApp(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	db := memory.NewStore()
	db.AddStore(entity.Store{ID: storeA, Name: "Boutique Centre"})
	db.AddStore(entity.Store{ID: storeB, Name: "Boutique Gare"})
	db.AddProduct(entity.Product{ID: productCafe, SKU: "CAF-001", Name: "Café moulu", UnitCost: decimal.NewFromInt(4)})
	db.AddProduct(entity.Product{ID: productYaourt, SKU: "YAO-001", Name: "Yaourt nature", UnitCost: decimal.RequireFromString("0.5"), TracksLots: true})

	log := logger.Nop().Zerolog()
	repos := db.Repos()
	processor := stock.NewMovementProcessor(db, repos.Movements, log)
	availability := stock.NewAvailabilityChecker(repos.Stock)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Processor:    processor,
		Availability: availability,
		Auditor:      stock.NewLedgerAuditor(repos.Movements, repos.Stock),
		Cycles:       inventory.NewCycleUseCase(db, repos.Cycles, repos.Lines, processor, nil, 0, log),
		Reports:      inventory.NewReportUseCase(repos.Cycles, repos.Lines, repos.Products, repos.Stores, pdf.NewMarotoCycleReport()),
		Checkout:     sales.NewCheckoutUseCase(db, availability, processor, log),
		Reception:    purchasing.NewReceptionUseCase(db, processor, log),
		JWTSecret:    testJWTSecret,
		Log:          log,
	})
	return app, db
}

// tokenFor genera un header Authorization para el rol (y tienda opcional).
func tokenFor(t *testing.T, role, storeID string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, pkgjwt.Identity{UserID: testUserID, StoreID: storeID, Role: role}, testIssuer, 60)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// call lanza la petición y decodifica el cuerpo JSON en out (si no es nil).
func call(t *testing.T, app *fiber.App, method, path, auth string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
