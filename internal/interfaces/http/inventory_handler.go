package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodega-lotes/internal/application/dto"
	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
)

// InventoryHandler consultas de stock, planes FEFO, retiros y recálculo por ítem (protegido).
type InventoryHandler struct {
	allocator *inventory.AllocateStockUseCase
	query     *inventory.StockQueryUseCase
	recalc    *inventory.RecalculateStockUseCase
	enqueuer  inventory.RecalcEnqueuer
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewInventoryHandler construye el handler. enqueuer puede ser nil (sin recálculo asíncrono).
func NewInventoryHandler(
	allocator *inventory.AllocateStockUseCase,
	query *inventory.StockQueryUseCase,
	recalc *inventory.RecalculateStockUseCase,
	enqueuer inventory.RecalcEnqueuer,
	validate *validator.Validate,
	log zerolog.Logger,
) *InventoryHandler {
	return &InventoryHandler{allocator: allocator, query: query, recalc: recalc, enqueuer: enqueuer, validate: validate, log: log}
}

// GetStock godoc
// @Summary      Stock actual del ítem
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ítem"
// @Success      200  {object}  dto.ItemStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	res, err := h.query.ItemStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.ItemStockResponse{ItemID: res.ItemID, StockCurrent: res.StockCurrent, Cached: res.FromCache}
	if res.Item != nil {
		out.SKU = res.Item.SKU
		out.Name = res.Item.Name
	}
	return c.JSON(out)
}

// ListLots godoc
// @Summary      Lotes del ítem (incluye agotados)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del ítem"
// @Success      200  {array}   dto.LotResponse
// @Router       /api/items/{id}/lots [get]
func (h *InventoryHandler) ListLots(c *fiber.Ctx) error {
	lots, err := h.query.Lots(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toLotResponses(lots))
}

// PreviewPlan godoc
// @Summary      Plan FEFO sin aplicar
// @Description  Devuelve qué lotes se consumirían para la cantidad pedida. No modifica nada.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del ítem"
// @Param        body  body  dto.AllocationPlanRequest  true  "quantity, forced_lot_id opcional"
// @Success      200   {object}  dto.AllocationPlanResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/allocation-plan [post]
func (h *InventoryHandler) PreviewPlan(c *fiber.Ctx) error {
	var in dto.AllocationPlanRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return writeError(c, h.log, err)
	}
	itemID := c.Params("id")
	picks, err := h.allocator.Preview(c.UserContext(), itemID, in.Quantity, in.ForcedLotID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AllocationPlanResponse{ItemID: itemID, Picks: toPickResponses(picks)})
}

// Withdraw godoc
// @Summary      Retirar stock (FEFO)
// @Description  Descuenta de los lotes según FEFO (o desde forced_lot_id primero) y registra un OUT por lote.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del ítem"
// @Param        body  body  dto.WithdrawRequest  true  "quantity, forced_lot_id, reason, doc_ref"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/withdrawals [post]
func (h *InventoryHandler) Withdraw(c *fiber.Ctx) error {
	var in dto.WithdrawRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return writeError(c, h.log, err)
	}
	itemID := c.Params("id")
	res, err := h.allocator.Withdraw(c.UserContext(), inventory.WithdrawInput{
		ItemID:      itemID,
		Quantity:    in.Quantity,
		ForcedLotID: in.ForcedLotID,
		Reason:      in.Reason,
		DocRef:      in.DocRef,
		User:        GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !res.Recalculated {
		h.enqueueRecalc(c, itemID)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementResponse{
		ItemID:       itemID,
		Picks:        toPickResponses(res.Picks),
		Moves:        toMoveResponses(res.Moves),
		StockCurrent: res.StockCurrent,
		Recalculated: res.Recalculated,
	})
}

// Recalculate godoc
// @Summary      Recalcular stock del ítem desde sus lotes
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del ítem"
// @Param        async  query  bool    false  "true = encolar en el worker"
// @Success      200    {object}  dto.RecalculateResponse
// @Success      202    {object}  dto.RecalculateResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/items/{id}/recalculate [post]
func (h *InventoryHandler) Recalculate(c *fiber.Ctx) error {
	itemID := c.Params("id")
	if c.QueryBool("async") && h.enqueuer != nil {
		if err := h.enqueuer.EnqueueRecalculate(c.UserContext(), itemID); err != nil {
			return writeError(c, h.log, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(dto.RecalculateResponse{ItemID: itemID, Queued: true})
	}
	total, err := h.recalc.Recalculate(c.UserContext(), itemID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.RecalculateResponse{ItemID: itemID, StockCurrent: &total})
}

// enqueueRecalc deja el recálculo al worker cuando el síncrono falló.
func (h *InventoryHandler) enqueueRecalc(c *fiber.Ctx, itemID string) {
	if h.enqueuer == nil {
		return
	}
	if err := h.enqueuer.EnqueueRecalculate(c.UserContext(), itemID); err != nil {
		h.log.Warn().Err(err).Str("item_id", itemID).Msg("encolar recálculo")
	}
}
