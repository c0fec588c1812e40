package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/purchasing"
	"github.com/jhoicas/stock-ledger/internal/application/sales"
)

// SalesHandler expone la caja: descuento de stock por ticket y devoluciones.
type SalesHandler struct {
	checkout *sales.CheckoutUseCase
	log      zerolog.Logger
}

func NewSalesHandler(checkout *sales.CheckoutUseCase, log zerolog.Logger) *SalesHandler {
	return &SalesHandler{checkout: checkout, log: log}
}

func toSalesLines(in []dto.ItemLine) []sales.Line {
	out := make([]sales.Line, 0, len(in))
	for _, l := range in {
		out = append(out, sales.Line{ProductID: l.ProductID, LotID: l.LotID, Quantity: l.Quantity})
	}
	return out
}

// Checkout godoc
// @Summary      Descontar el stock de un ticket completo
// @Description  Todo o nada: si una línea no alcanza, no se registra ningún movimiento (409 con faltantes).
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "store_id, sale_id opcional, líneas"
// @Success      201   {object}  dto.CheckoutResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales/checkout [post]
func (h *SalesHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !canAccessStore(c, in.StoreID) {
		return forbiddenStore(c)
	}
	res, err := h.checkout.Checkout(c.UserContext(), sales.CheckoutCommand{
		StoreID: in.StoreID,
		SaleID:  in.SaleID,
		ActorID: GetUserID(c),
		Lines:   toSalesLines(in.Lines),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CheckoutResponse{
		SaleID:    res.SaleID,
		Movements: dto.MovementsFromEntities(res.Movements),
	})
}

// Return godoc
// @Summary      Devolución de artículos de una venta
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la venta"
// @Param        body  body  dto.ReturnRequest  true  "store_id, líneas"
// @Success      201   {object}  dto.MovementsResponse
// @Router       /api/sales/{id}/returns [post]
func (h *SalesHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !canAccessStore(c, in.StoreID) {
		return forbiddenStore(c)
	}
	movs, err := h.checkout.ReturnItems(c.UserContext(), sales.ReturnCommand{
		StoreID: in.StoreID,
		SaleID:  c.Params("id"),
		ActorID: GetUserID(c),
		Reason:  in.Reason,
		Lines:   toSalesLines(in.Lines),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementsResponse{Movements: dto.MovementsFromEntities(movs)})
}

// PurchaseHandler recepción y anulación de órdenes de compra.
type PurchaseHandler struct {
	reception *purchasing.ReceptionUseCase
	log       zerolog.Logger
}

func NewPurchaseHandler(reception *purchasing.ReceptionUseCase, log zerolog.Logger) *PurchaseHandler {
	return &PurchaseHandler{reception: reception, log: log}
}

func (h *PurchaseHandler) command(c *fiber.Ctx) (purchasing.ReceptionCommand, bool) {
	var in dto.ReceptionRequest
	if err := c.BodyParser(&in); err != nil {
		return purchasing.ReceptionCommand{}, false
	}
	cmd := purchasing.ReceptionCommand{StoreID: in.StoreID, PurchaseID: c.Params("id"), ActorID: GetUserID(c)}
	for _, l := range in.Lines {
		cmd.Lines = append(cmd.Lines, purchasing.ReceptionLine{ProductID: l.ProductID, LotID: l.LotID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	return cmd, true
}

// Receive godoc
// @Summary      Recepción de una orden de compra (ENTREE_ACHAT)
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID de la compra"
// @Param        body  body  dto.ReceptionRequest  true  "store_id, líneas"
// @Success      201   {object}  dto.MovementsResponse
// @Router       /api/purchases/{id}/receive [post]
func (h *PurchaseHandler) Receive(c *fiber.Ctx) error {
	cmd, ok := h.command(c)
	if !ok {
		return badBody(c)
	}
	if !canAccessStore(c, cmd.StoreID) {
		return forbiddenStore(c)
	}
	movs, err := h.reception.Receive(c.UserContext(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementsResponse{Movements: dto.MovementsFromEntities(movs)})
}

// Cancel godoc
// @Summary      Anular una recepción (AJUSTEMENT de salida)
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID de la compra"
// @Param        body  body  dto.ReceptionRequest  true  "store_id, líneas"
// @Success      201   {object}  dto.MovementsResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchases/{id}/cancel [post]
func (h *PurchaseHandler) Cancel(c *fiber.Ctx) error {
	cmd, ok := h.command(c)
	if !ok {
		return badBody(c)
	}
	if !canAccessStore(c, cmd.StoreID) {
		return forbiddenStore(c)
	}
	movs, err := h.reception.CancelReception(c.UserContext(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementsResponse{Movements: dto.MovementsFromEntities(movs)})
}
