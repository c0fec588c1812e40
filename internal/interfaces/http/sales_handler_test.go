package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

func TestSales_CheckoutTodoONada(t *testing.T) {
	app, db := buildApp(t)
	admin := tokenFor(t, pkgjwt.RoleAdmin, "")
	caja := tokenFor(t, pkgjwt.RoleVendedor, storeA)

	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/purchases/PO-1/receive", admin, dto.ReceptionRequest{
		StoreID: storeA,
		Lines: []dto.ReceptionLine{
			{ProductID: productCafe, Quantity: 5},
			{ProductID: productYaourt, LotID: "L-01", Quantity: 2},
		},
	}, nil))
	before := db.MovementCount()

	var errBody struct {
		Code    string             `json:"code"`
		Details []dto.ShortfallDTO `json:"details"`
	}
	status := call(t, app, http.MethodPost, "/api/sales/checkout", caja, dto.CheckoutRequest{
		StoreID: storeA,
		Lines: []dto.ItemLine{
			{ProductID: productCafe, Quantity: 2},
			{ProductID: productYaourt, LotID: "L-01", Quantity: 3},
		},
	}, &errBody)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	require.Len(t, errBody.Details, 1)
	assert.Equal(t, productYaourt, errBody.Details[0].ProductID)
	assert.Equal(t, before, db.MovementCount())

	var sale dto.CheckoutResponse
	status = call(t, app, http.MethodPost, "/api/sales/checkout", caja, dto.CheckoutRequest{
		StoreID: storeA,
		SaleID:  "T-42",
		Lines: []dto.ItemLine{
			{ProductID: productCafe, Quantity: 2},
			{ProductID: productYaourt, LotID: "L-01", Quantity: 2},
		},
	}, &sale)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "T-42", sale.SaleID)
	require.Len(t, sale.Movements, 2)
	assert.Equal(t, "SORTIE_VENTE", sale.Movements[0].Type)
	assert.Equal(t, int64(3), sale.Movements[0].QuantityAfter)

	var ret dto.MovementsResponse
	status = call(t, app, http.MethodPost, "/api/sales/T-42/returns", caja, dto.ReturnRequest{
		StoreID: storeA,
		Lines:   []dto.ItemLine{{ProductID: productCafe, Quantity: 1}},
	}, &ret)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, ret.Movements, 1)
	assert.Equal(t, "ENTREE_RETOUR", ret.Movements[0].Type)
	assert.Equal(t, "T-42", ret.Movements[0].SaleID)
}

func TestPurchases_AnulacionDeRecepcion(t *testing.T) {
	app, _ := buildApp(t)
	admin := tokenFor(t, pkgjwt.RoleAdmin, "")
	bodeguero := tokenFor(t, pkgjwt.RoleBodeguero, "")
	body := dto.ReceptionRequest{StoreID: storeA, Lines: []dto.ReceptionLine{{ProductID: productCafe, Quantity: 5}}}

	var received dto.MovementsResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/purchases/PO-7/receive", bodeguero, body, &received))
	assert.Equal(t, "PO-7", received.Movements[0].PurchaseID)

	var errBody dto.ErrorResponse
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodPost, "/api/purchases/PO-7/cancel", bodeguero, body, &errBody))

	var cancelled dto.MovementsResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/purchases/PO-7/cancel", admin, body, &cancelled))
	require.Len(t, cancelled.Movements, 1)
	assert.Equal(t, "AJUSTEMENT", cancelled.Movements[0].Type)
	assert.Equal(t, "OUT", cancelled.Movements[0].Direction)
	assert.Equal(t, int64(0), cancelled.Movements[0].QuantityAfter)

	// Una segunda anulación ya no encuentra mercancía.
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodPost, "/api/purchases/PO-7/cancel", admin, body, &errBody))
}
