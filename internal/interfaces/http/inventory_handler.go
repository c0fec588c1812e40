package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// InventoryHandler maneja los ciclos de inventario físico (protegido).
type InventoryHandler struct {
	cycles  *inventory.CycleUseCase
	reports *inventory.ReportUseCase
	log     zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(cycles *inventory.CycleUseCase, reports *inventory.ReportUseCase, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{cycles: cycles, reports: reports, log: log}
}

// Create godoc
// @Summary      Crear ciclo de inventario (BROUILLON)
// @Description  Congela el stock actual de la tienda (o de los productos indicados) como cantidades teóricas.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCycleRequest  true  "store_id, product_ids opcional, comment"
// @Success      201   {object}  dto.CycleDetailDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/cycles [post]
func (h *InventoryHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCycleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !canAccessStore(c, in.StoreID) {
		return forbiddenStore(c)
	}
	detail, err := h.cycles.Create(c.UserContext(), inventory.CreateCycleInput{
		StoreID:    in.StoreID,
		ProductIDs: in.ProductIDs,
		Comment:    in.Comment,
		ActorID:    GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CycleDetailFrom(detail))
}

// List godoc
// @Summary      Listar ciclos de una tienda
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  true   "Tienda"
// @Param        status    query  string  false  "BROUILLON | EN_COURS | TERMINE | VALIDE"
// @Success      200  {object}  dto.CycleListResponse
// @Router       /api/inventory/cycles [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	storeID := c.Query("store_id")
	if storeID == "" {
		storeID = GetStoreID(c)
	}
	if !canAccessStore(c, storeID) {
		return forbiddenStore(c)
	}
	list, err := h.cycles.List(c.UserContext(), repository.CycleFilter{
		StoreID: storeID,
		Status:  entity.CycleStatus(c.Query("status")),
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.CycleDTO, 0, len(list))
	for _, cy := range list {
		items = append(items, dto.CycleFromEntity(cy))
	}
	return c.JSON(dto.CycleListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Count: len(items)},
	})
}

// Get godoc
// @Summary      Ciclo con sus líneas
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ciclo"
// @Success      200  {object}  dto.CycleDetailDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/cycles/{id} [get]
func (h *InventoryHandler) Get(c *fiber.Ctx) error {
	detail, err := h.cycles.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !canAccessStore(c, detail.Cycle.StoreID) {
		return forbiddenStore(c)
	}
	return c.JSON(dto.CycleDetailFrom(detail))
}

// Start godoc
// @Summary      Iniciar conteo (BROUILLON → EN_COURS)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ciclo"
// @Success      200  {object}  dto.CycleDetailDTO
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/cycles/{id}/start [post]
func (h *InventoryHandler) Start(c *fiber.Ctx) error {
	if ok, err := h.inScope(c); !ok {
		return err
	}
	detail, err := h.cycles.Start(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CycleDetailFrom(detail))
}

// RecordCount godoc
// @Summary      Registrar cantidad contada de una línea
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                  true  "ID del ciclo"
// @Param        lineId  path  string                  true  "ID de la línea"
// @Param        body    body  dto.RecordCountRequest  true  "counted_quantity >= 0"
// @Success      200  {object}  dto.LineDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/cycles/{id}/lines/{lineId}/count [put]
func (h *InventoryHandler) RecordCount(c *fiber.Ctx) error {
	var in dto.RecordCountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.CountedQuantity == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "counted_quantity obligatorio"})
	}
	if ok, err := h.inScope(c); !ok {
		return err
	}
	line, err := h.cycles.RecordCount(c.UserContext(), c.Params("id"), c.Params("lineId"), *in.CountedQuantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.LineFromEntity(line))
}

// Finalize godoc
// @Summary      Cerrar conteo (EN_COURS → TERMINE)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ciclo"
// @Success      200  {object}  dto.CycleDTO
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/cycles/{id}/finalize [post]
func (h *InventoryHandler) Finalize(c *fiber.Ctx) error {
	if ok, err := h.inScope(c); !ok {
		return err
	}
	cycle, err := h.cycles.Finalize(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CycleFromEntity(cycle))
}

// Validate godoc
// @Summary      Validar ciclo y aplicar ajustes (TERMINE → VALIDE)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ciclo"
// @Success      200  {object}  dto.ValidationResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/cycles/{id}/validate [post]
func (h *InventoryHandler) Validate(c *fiber.Ctx) error {
	if ok, err := h.inScope(c); !ok {
		return err
	}
	res, err := h.cycles.Validate(c.UserContext(), c.Params("id"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ValidationFrom(res))
}

// Stats godoc
// @Summary      Avance y valorización del ciclo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del ciclo"
// @Success      200  {object}  dto.CycleStatsDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/cycles/{id}/stats [get]
func (h *InventoryHandler) Stats(c *fiber.Ctx) error {
	if ok, err := h.inScope(c); !ok {
		return err
	}
	st, err := h.cycles.GetStats(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StatsFrom(st))
}

// Report godoc
// @Summary      Informe de diferencias en PDF
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID del ciclo"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/cycles/{id}/report.pdf [get]
func (h *InventoryHandler) Report(c *fiber.Ctx) error {
	if ok, err := h.inScope(c); !ok {
		return err
	}
	pdf, err := h.reports.GenerateVarianceReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="inventaire-%s.pdf"`, c.Params("id")))
	return c.Send(pdf)
}

// Delete godoc
// @Summary      Eliminar ciclo (solo BROUILLON)
// @Tags         inventory
// @Security     Bearer
// @Param        id  path  string  true  "ID del ciclo"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/cycles/{id} [delete]
func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	if ok, err := h.inScope(c); !ok {
		return err
	}
	if err := h.cycles.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// inScope para tokens limitados a una tienda verifica que el ciclo le pertenezca.
// Con ok == false la respuesta ya fue escrita y err es el resultado de escribirla.
func (h *InventoryHandler) inScope(c *fiber.Ctx) (bool, error) {
	if GetStoreID(c) == "" {
		return true, nil
	}
	detail, err := h.cycles.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return false, writeError(c, h.log, err)
	}
	if !canAccessStore(c, detail.Cycle.StoreID) {
		return false, forbiddenStore(c)
	}
	return true, nil
}
