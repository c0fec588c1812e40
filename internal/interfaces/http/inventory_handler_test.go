package http_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

func lineFor(t *testing.T, d dto.CycleDetailDTO, productID string) dto.LineDTO {
	t.Helper()
	for _, l := range d.Lines {
		if l.ProductID == productID {
			return l
		}
	}
	t.Fatalf("sin línea para %s", productID)
	return dto.LineDTO{}
}

func TestInventory_CicloCompleto(t *testing.T) {
	app, _ := buildApp(t)
	admin := tokenFor(t, pkgjwt.RoleAdmin, "")
	bodeguero := tokenFor(t, pkgjwt.RoleBodeguero, storeA)

	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/stock/movements", admin, dto.RecordMovementRequest{
		StoreID: storeA, ProductID: productCafe, Type: "ENTREE_ACHAT", Quantity: 10,
	}, nil))
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/stock/movements", admin, dto.RecordMovementRequest{
		StoreID: storeA, ProductID: productYaourt, LotID: "L-01", Type: "ENTREE_ACHAT", Quantity: 6,
	}, nil))

	// Creación: snapshot del stock de la tienda.
	var created dto.CycleDetailDTO
	status := call(t, app, http.MethodPost, "/api/inventory/cycles", bodeguero, dto.CreateCycleRequest{StoreID: storeA, Comment: "Inventaire annuel"}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "BROUILLON", created.Status)
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", time.Now().UTC().Year()), created.Reference)
	require.Len(t, created.Lines, 2)
	cafe := lineFor(t, created, productCafe)
	yaourt := lineFor(t, created, productYaourt)
	assert.Equal(t, int64(10), cafe.TheoreticalQuantity)
	assert.Equal(t, "L-01", yaourt.LotID)

	base := "/api/inventory/cycles/" + created.ID
	countPath := func(lineID string) string { return base + "/lines/" + lineID + "/count" }
	qty := func(n int64) dto.RecordCountRequest { return dto.RecordCountRequest{CountedQuantity: &n} }

	// Contar antes de iniciar no está permitido.
	var errBody dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodPut, countPath(cafe.ID), bodeguero, qty(8), &errBody))
	assert.Equal(t, "INVALID_STATE", errBody.Code)

	var started dto.CycleDetailDTO
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, base+"/start", bodeguero, nil, &started))
	assert.Equal(t, "EN_COURS", started.Status)
	assert.NotNil(t, started.StartedAt)

	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodPut, countPath(cafe.ID), bodeguero, qty(-1), &errBody))
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodPut, countPath(cafe.ID), bodeguero, dto.RecordCountRequest{}, &errBody))

	var counted dto.LineDTO
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPut, countPath(cafe.ID), bodeguero, qty(8), &counted))
	assert.Equal(t, int64(-2), counted.Variance)
	assert.Equal(t, "-8", counted.VarianceValue.String())
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPut, countPath(yaourt.ID), bodeguero, qty(6), &counted))

	var stats dto.CycleStatsDTO
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, base+"/stats", bodeguero, nil, &stats))
	assert.Equal(t, 100, stats.Progression)
	assert.Equal(t, 1, stats.LinesWithVariance)
	assert.Equal(t, "8", stats.Shortage.String())

	var finalized dto.CycleDTO
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, base+"/finalize", bodeguero, nil, &finalized))
	assert.Equal(t, "TERMINE", finalized.Status)

	// Solo admin valida.
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodPost, base+"/validate", bodeguero, nil, &errBody))

	var validated dto.ValidationResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, base+"/validate", admin, nil, &validated))
	assert.Equal(t, "VALIDE", validated.Cycle.Status)
	require.Len(t, validated.Adjustments, 1)
	assert.Equal(t, int64(10), validated.Adjustments[0].Before)
	assert.Equal(t, int64(8), validated.Adjustments[0].After)

	var history []dto.MovementDTO
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/stock/movements?store_id="+storeA+"&type=AJUSTEMENT", admin, nil, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "OUT", history[0].Direction)
	assert.Contains(t, history[0].Reason, created.Reference)

	var check dto.LedgerCheckResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/stock/ledger-check?store_id="+storeA+"&product_id="+productCafe, admin, nil, &check))
	assert.Equal(t, int64(8), check.StockQuantity)
	assert.True(t, check.Consistent)

	// Un ciclo validado no se elimina.
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodDelete, base, bodeguero, nil, &errBody))
	assert.Equal(t, "CANNOT_DELETE", errBody.Code)

	// Informe PDF.
	req := httptest.NewRequest(http.MethodGet, base+"/report.pdf", nil)
	req.Header.Set("Authorization", bodeguero)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	raw, _ := io.ReadAll(resp.Body)
	assert.True(t, len(raw) > 4 && string(raw[:4]) == "%PDF")
}

func TestInventory_TiendaSinStock(t *testing.T) {
	app, _ := buildApp(t)
	var errBody dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/inventory/cycles", tokenFor(t, pkgjwt.RoleAdmin, ""), dto.CreateCycleRequest{StoreID: storeB}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", errBody.Code)
}

func TestInventory_EliminarBorradorYListar(t *testing.T) {
	app, _ := buildApp(t)
	admin := tokenFor(t, pkgjwt.RoleAdmin, "")
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/stock/movements", admin, dto.RecordMovementRequest{
		StoreID: storeA, ProductID: productCafe, Type: "ENTREE_ACHAT", Quantity: 1,
	}, nil))

	var created dto.CycleDetailDTO
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/inventory/cycles", admin, dto.CreateCycleRequest{StoreID: storeA}, &created))

	var list dto.CycleListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/inventory/cycles?store_id="+storeA, admin, nil, &list))
	assert.Len(t, list.Items, 1)

	assert.Equal(t, http.StatusNoContent, call(t, app, http.MethodDelete, "/api/inventory/cycles/"+created.ID, admin, nil, nil))

	var errBody dto.ErrorResponse
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, "/api/inventory/cycles/"+created.ID, admin, nil, &errBody))
}

func TestInventory_TokenDeOtraTiendaNoVeElCiclo(t *testing.T) {
	app, _ := buildApp(t)
	admin := tokenFor(t, pkgjwt.RoleAdmin, "")
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/stock/movements", admin, dto.RecordMovementRequest{
		StoreID: storeA, ProductID: productCafe, Type: "ENTREE_ACHAT", Quantity: 1,
	}, nil))
	var created dto.CycleDetailDTO
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/inventory/cycles", admin, dto.CreateCycleRequest{StoreID: storeA}, &created))

	var errBody dto.ErrorResponse
	other := tokenFor(t, pkgjwt.RoleBodeguero, storeB)
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodPost, "/api/inventory/cycles/"+created.ID+"/start", other, nil, &errBody))
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodGet, "/api/inventory/cycles/"+created.ID, other, nil, &errBody))
}
