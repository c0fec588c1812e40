package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/stock"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// StockHandler maneja movimientos, disponibilidad y alertas de stock (protegido).
type StockHandler struct {
	processor    *stock.MovementProcessor
	availability *stock.AvailabilityChecker
	auditor      *stock.LedgerAuditor
	log          zerolog.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(processor *stock.MovementProcessor, availability *stock.AvailabilityChecker, auditor *stock.LedgerAuditor, log zerolog.Logger) *StockHandler {
	return &StockHandler{processor: processor, availability: availability, auditor: auditor, log: log}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "store_id, product_id, lot_id, type, direction (AJUSTEMENT/TRANSFERT), quantity"
// @Success      201   {object}  dto.RecordMovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/movements [post]
func (h *StockHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !canAccessStore(c, in.StoreID) {
		return forbiddenStore(c)
	}
	res, err := h.processor.Record(c.UserContext(), stock.RecordCommand{
		StoreID:   in.StoreID,
		ProductID: in.ProductID,
		LotID:     in.LotID,
		Type:      entity.MovementType(in.Type),
		Direction: entity.Direction(in.Direction),
		Quantity:  in.Quantity,
		ActorID:   GetUserID(c),
		Reason:    in.Reason,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordMovementResponse{
		Movement: dto.MovementFromEntity(res.Movement),
		Stock:    dto.StockLevelFromEntity(res.StockLevel),
	})
}

// Transfer godoc
// @Summary      Traslado entre tiendas
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "from_store_id, to_store_id, product_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !canAccessStore(c, in.FromStoreID) {
		return forbiddenStore(c)
	}
	res, err := h.processor.Transfer(c.UserContext(), stock.TransferCommand{
		FromStoreID: in.FromStoreID,
		ToStoreID:   in.ToStoreID,
		ProductID:   in.ProductID,
		LotID:       in.LotID,
		Quantity:    in.Quantity,
		ActorID:     GetUserID(c),
		Reason:      in.Reason,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		Out: dto.MovementFromEntity(res.Out.Movement),
		In:  dto.MovementFromEntity(res.In.Movement),
	})
}

// CheckAvailability godoc
// @Summary      Verificar disponibilidad de un carrito
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AvailabilityRequest  true  "store_id y líneas"
// @Success      200   {object}  dto.AvailabilityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/availability [post]
func (h *StockHandler) CheckAvailability(c *fiber.Ctx) error {
	var in dto.AvailabilityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if !canAccessStore(c, in.StoreID) {
		return forbiddenStore(c)
	}
	items := make([]stock.AvailabilityItem, 0, len(in.Lines))
	for _, l := range in.Lines {
		items = append(items, stock.AvailabilityItem{ProductID: l.ProductID, LotID: l.LotID, Quantity: l.Quantity})
	}
	report, err := h.availability.CheckAvailability(c.UserContext(), in.StoreID, items)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AvailabilityFromReport(report))
}

// ListAlerts godoc
// @Summary      Stock con indicador de alerta
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        store_id     query  string  false  "Tienda"
// @Param        product_id   query  string  false  "Producto"
// @Param        only_alerts  query  bool    false  "Solo filas en alerta"
// @Success      200  {array}   dto.StockLevelDTO
// @Router       /api/stock/alerts [get]
func (h *StockHandler) ListAlerts(c *fiber.Ctx) error {
	storeID := c.Query("store_id")
	if scope := GetStoreID(c); scope != "" {
		if storeID != "" && storeID != scope {
			return forbiddenStore(c)
		}
		storeID = scope
	}
	views, err := h.availability.GetStocksWithAlerts(c.UserContext(), repository.StockFilter{
		StoreID:    storeID,
		ProductID:  c.Query("product_id"),
		OnlyAlerts: c.QueryBool("only_alerts", false),
		Limit:      c.QueryInt("limit", 0),
		Offset:     c.QueryInt("offset", 0),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.StockLevelDTO, 0, len(views))
	for _, v := range views {
		out = append(out, dto.StockLevelFromEntity(v.StockLevel))
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        store_id    query  string  true   "Tienda"
// @Param        product_id  query  string  false  "Producto"
// @Param        type        query  string  false  "Tipo de movimiento"
// @Param        from        query  string  false  "RFC3339"
// @Param        to          query  string  false  "RFC3339"
// @Success      200  {array}   dto.MovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		StoreID:   c.Query("store_id"),
		ProductID: c.Query("product_id"),
		LotID:     c.Query("lot_id"),
		Type:      entity.MovementType(c.Query("type")),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	}
	if !canAccessStore(c, filter.StoreID) {
		return forbiddenStore(c)
	}
	var err error
	if filter.From, err = parseTimeQuery(c, "from"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser RFC3339"})
	}
	if filter.To, err = parseTimeQuery(c, "to"); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser RFC3339"})
	}
	list, err := h.processor.History(c.UserContext(), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.MovementsFromEntities(list))
}

// LedgerCheck godoc
// @Summary      Verificar libro vs stock materializado
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        store_id    query  string  true   "Tienda"
// @Param        product_id  query  string  true   "Producto"
// @Param        lot_id      query  string  false  "Lote"
// @Success      200  {object}  dto.LedgerCheckResponse
// @Router       /api/stock/ledger-check [get]
func (h *StockHandler) LedgerCheck(c *fiber.Ctx) error {
	key := entity.StockKey{StoreID: c.Query("store_id"), ProductID: c.Query("product_id"), LotID: c.Query("lot_id")}
	if !canAccessStore(c, key.StoreID) {
		return forbiddenStore(c)
	}
	res, err := h.auditor.Verify(c.UserContext(), key)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !res.Consistent {
		h.log.Warn().Str("key", key.String()).Int64("ledger", res.LedgerQuantity).Int64("stock", res.StockQuantity).
			Msg("libro y stock materializado difieren")
	}
	return c.JSON(dto.LedgerCheckResponse{
		StoreID:        key.StoreID,
		ProductID:      key.ProductID,
		LotID:          key.LotID,
		LedgerQuantity: res.LedgerQuantity,
		StockQuantity:  res.StockQuantity,
		Consistent:     res.Consistent,
	})
}

func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
