package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodega-lotes/internal/application/dto"
	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
)

// LotHandler entradas, ajustes y transferencias de lotes (protegido).
type LotHandler struct {
	uc       *inventory.RegisterMovementUseCase
	enqueuer inventory.RecalcEnqueuer
	validate *validator.Validate
	log      zerolog.Logger
}

// NewLotHandler construye el handler.
func NewLotHandler(uc *inventory.RegisterMovementUseCase, enqueuer inventory.RecalcEnqueuer, validate *validator.Validate, log zerolog.Logger) *LotHandler {
	return &LotHandler{uc: uc, enqueuer: enqueuer, validate: validate, log: log}
}

// Receive godoc
// @Summary      Entrada de mercancía
// @Description  Sin lot_id crea un lote nuevo; con lot_id suma al existente. Registra un IN.
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveLotRequest  true  "item_id, quantity, lot_code, location, expiry_date"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *LotHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveLotRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return writeError(c, h.log, err)
	}
	return h.register(c, inventory.MovementInput{
		ItemID:     in.ItemID,
		LotID:      in.LotID,
		LotCode:    in.LotCode,
		Location:   in.Location,
		ExpiryDate: in.ExpiryDate,
		Type:       entity.MoveTypeIn.String(),
		Quantity:   in.Quantity,
		Reason:     in.Reason,
		DocRef:     in.DocRef,
	})
}

// Adjust godoc
// @Summary      Ajuste de lote (con signo)
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del lote"
// @Param        body  body  dto.AdjustLotRequest  true  "item_id, quantity (+/-), reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/adjustments [post]
func (h *LotHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustLotRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return writeError(c, h.log, err)
	}
	return h.register(c, inventory.MovementInput{
		ItemID:   in.ItemID,
		LotID:    c.Params("id"),
		Type:     entity.MoveTypeAdjust.String(),
		Quantity: in.Quantity,
		Reason:   in.Reason,
		DocRef:   in.DocRef,
	})
}

// Transfer godoc
// @Summary      Transferir parte de un lote a otra ubicación
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del lote origen"
// @Param        body  body  dto.TransferLotRequest  true  "item_id, to_location, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/lots/{id}/transfers [post]
func (h *LotHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferLotRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.validate.Struct(in); err != nil {
		return writeError(c, h.log, err)
	}
	return h.register(c, inventory.MovementInput{
		ItemID:     in.ItemID,
		LotID:      c.Params("id"),
		ToLocation: in.ToLocation,
		Type:       entity.MoveTypeTransfer.String(),
		Quantity:   in.Quantity,
		Reason:     in.Reason,
		DocRef:     in.DocRef,
	})
}

func (h *LotHandler) register(c *fiber.Ctx, in inventory.MovementInput) error {
	in.User = GetUserID(c)
	res, err := h.uc.RegisterMovement(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !res.Recalculated && h.enqueuer != nil {
		if err := h.enqueuer.EnqueueRecalculate(c.UserContext(), in.ItemID); err != nil {
			h.log.Warn().Err(err).Str("item_id", in.ItemID).Msg("encolar recálculo")
		}
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementResponse{
		ItemID:       in.ItemID,
		Lots:         toLotResponses(res.Lots),
		Moves:        toMoveResponses(res.Moves),
		StockCurrent: res.StockCurrent,
		Recalculated: res.Recalculated,
	})
}
