package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
	"github.com/jhoicas/bodega-lotes/internal/domain/inventory"
	"github.com/jhoicas/bodega-lotes/internal/domain/repository"
)

// RegisterMovementUseCase registra movimientos de lotes de forma transaccional (IN, ADJUST, TRANSFER).
// OUT se delega al retiro FEFO con el lote indicado como lote forzado.
// Después de cada movimiento confirmado se recalcula el stock del ítem.
type RegisterMovementUseCase struct {
	txRunner    TxRunner
	itemRepo    repository.ItemRepository
	allocator   *AllocateStockUseCase
	recalc      *RecalculateStockUseCase
	invalidator Invalidator
	log         zerolog.Logger
}

// NewRegisterMovementUseCase construye el caso de uso. invalidator puede ser nil.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	itemRepo repository.ItemRepository,
	allocator *AllocateStockUseCase,
	recalc *RecalculateStockUseCase,
	invalidator Invalidator,
	log zerolog.Logger,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:    txRunner,
		itemRepo:    itemRepo,
		allocator:   allocator,
		recalc:      recalc,
		invalidator: invalidator,
		log:         log,
	}
}

// MovementInput entrada para registrar un movimiento.
// IN: ItemID y Quantity > 0; LotID vacío crea un lote nuevo (LotCode, Location, ExpiryDate opcionales),
// LotID informado suma al lote existente.
// ADJUST: LotID y Quantity != 0 (con signo).
// TRANSFER: LotID, ToLocation y Quantity > 0.
// OUT: ItemID, LotID (forzado, opcional) y Quantity > 0.
type MovementInput struct {
	ItemID     string
	LotID      string
	LotCode    string
	Location   string
	ExpiryDate string
	ToLocation string
	Type       string
	Quantity   decimal.Decimal
	Reason     string
	DocRef     string
	User       string
}

// MovementResult movimientos escritos y stock resultante del ítem.
type MovementResult struct {
	Lots         []*entity.StockLot
	Moves        []*entity.StockMove
	StockCurrent decimal.Decimal
	Recalculated bool
}

// RegisterMovement valida según tipo, aplica el movimiento en una transacción y recalcula el stock.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, in MovementInput) (*MovementResult, error) {
	moveType, err := inventory.ParseMoveType(in.Type)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ItemID) == "" {
		return nil, domain.NewValidationError("item_id", "requerido")
	}
	if err := inventory.CheckQuantity(in.Quantity); err != nil {
		return nil, err
	}
	switch moveType {
	case entity.MoveTypeIn:
		if !in.Quantity.IsPositive() {
			return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
		}
	case entity.MoveTypeAdjust:
		if in.LotID == "" {
			return nil, domain.NewValidationError("lot_id", "requerido")
		}
		if in.Quantity.IsZero() {
			return nil, domain.NewValidationError("quantity", "no puede ser cero")
		}
	case entity.MoveTypeTransfer:
		if in.LotID == "" {
			return nil, domain.NewValidationError("lot_id", "requerido")
		}
		if strings.TrimSpace(in.ToLocation) == "" {
			return nil, domain.NewValidationError("to_location", "requerido")
		}
		if !in.Quantity.IsPositive() {
			return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
		}
	case entity.MoveTypeOut:
		res, err := uc.allocator.Withdraw(ctx, WithdrawInput{
			ItemID:      in.ItemID,
			Quantity:    in.Quantity,
			ForcedLotID: in.LotID,
			Reason:      in.Reason,
			DocRef:      in.DocRef,
			User:        in.User,
		})
		if err != nil {
			return nil, err
		}
		return &MovementResult{Moves: res.Moves, StockCurrent: res.StockCurrent, Recalculated: res.Recalculated}, nil
	}

	expiry, err := inventory.ParseExpiryDate(in.ExpiryDate)
	if err != nil {
		return nil, err
	}

	item, err := uc.itemRepo.GetByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now().UTC()
	var res MovementResult
	err = uc.txRunner.Run(ctx, func(lotRepo repository.LotRepository, moveRepo repository.StockMoveRepository) error {
		res = MovementResult{}
		switch moveType {
		case entity.MoveTypeIn:
			return uc.doIN(ctx, lotRepo, moveRepo, in, expiry, now, &res)
		case entity.MoveTypeAdjust:
			return uc.doADJUST(ctx, lotRepo, moveRepo, in, now, &res)
		case entity.MoveTypeTransfer:
			return uc.doTRANSFER(ctx, lotRepo, moveRepo, in, now, &res)
		}
		return domain.ErrInvalidInput
	})
	if err != nil {
		return nil, err
	}

	uc.publishLots(ctx, res.Lots)
	total, err := uc.recalc.Recalculate(ctx, in.ItemID)
	if err != nil {
		uc.log.Error().Err(err).Str("item_id", in.ItemID).Msg("recalcular stock después del movimiento")
		return &res, nil
	}
	res.StockCurrent = total
	res.Recalculated = true
	return &res, nil
}

// lotForUpdate obtiene el lote y verifica que pertenezca al ítem.
func lotForUpdate(ctx context.Context, lotRepo repository.LotRepository, itemID, lotID string) (*entity.StockLot, error) {
	lot, err := lotRepo.GetForUpdate(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	if lot.ItemID != itemID {
		return nil, domain.NewValidationError("lot_id", "el lote no pertenece al ítem")
	}
	return lot, nil
}

// doIN: crea un lote nuevo o suma al existente, y guarda un IN con cantidad positiva.
func (uc *RegisterMovementUseCase) doIN(
	ctx context.Context,
	lotRepo repository.LotRepository,
	moveRepo repository.StockMoveRepository,
	in MovementInput,
	expiry *time.Time,
	now time.Time,
	res *MovementResult,
) error {
	var lot *entity.StockLot
	if in.LotID == "" {
		lot = &entity.StockLot{
			ID:           uuid.New().String(),
			ItemID:       in.ItemID,
			LotCode:      in.LotCode,
			Location:     in.Location,
			ExpiryDate:   expiry,
			RemainingQty: decimal.NewNullDecimal(in.Quantity),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := lotRepo.Create(ctx, lot); err != nil {
			return err
		}
	} else {
		existing, err := lotForUpdate(ctx, lotRepo, in.ItemID, in.LotID)
		if err != nil {
			return err
		}
		newQty := existing.Remaining().Add(in.Quantity)
		if err := lotRepo.UpdateRemaining(ctx, existing.ID, newQty, existing.Version); err != nil {
			return err
		}
		existing.RemainingQty = decimal.NewNullDecimal(newQty)
		existing.Version++
		lot = existing
	}
	mov, err := inventory.NewStockMove(inventory.MoveInput{
		ItemID:    in.ItemID,
		LotID:     lot.ID,
		Type:      entity.MoveTypeIn.String(),
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		DocRef:    in.DocRef,
		User:      in.User,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}
	if err := moveRepo.Append(ctx, mov); err != nil {
		return err
	}
	res.Lots = append(res.Lots, lot)
	res.Moves = append(res.Moves, mov)
	return nil
}

// doADJUST: corrección con signo; el lote nunca queda con cantidad negativa.
func (uc *RegisterMovementUseCase) doADJUST(
	ctx context.Context,
	lotRepo repository.LotRepository,
	moveRepo repository.StockMoveRepository,
	in MovementInput,
	now time.Time,
	res *MovementResult,
) error {
	lot, err := lotForUpdate(ctx, lotRepo, in.ItemID, in.LotID)
	if err != nil {
		return err
	}
	newQty := lot.Remaining().Add(in.Quantity)
	if newQty.IsNegative() {
		return domain.ErrInsufficientStock
	}
	if err := lotRepo.UpdateRemaining(ctx, lot.ID, newQty, lot.Version); err != nil {
		return err
	}
	lot.RemainingQty = decimal.NewNullDecimal(newQty)
	lot.Version++

	mov, err := inventory.NewStockMove(inventory.MoveInput{
		ItemID:    in.ItemID,
		LotID:     lot.ID,
		Type:      entity.MoveTypeAdjust.String(),
		Quantity:  in.Quantity,
		Reason:    in.Reason,
		DocRef:    in.DocRef,
		User:      in.User,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}
	if err := moveRepo.Append(ctx, mov); err != nil {
		return err
	}
	res.Lots = append(res.Lots, lot)
	res.Moves = append(res.Moves, mov)
	return nil
}

// doTRANSFER: resta del lote origen y crea un lote en la ubicación destino con el mismo vencimiento,
// misma transacción; guarda un único TRANSFER con origen y destino.
func (uc *RegisterMovementUseCase) doTRANSFER(
	ctx context.Context,
	lotRepo repository.LotRepository,
	moveRepo repository.StockMoveRepository,
	in MovementInput,
	now time.Time,
	res *MovementResult,
) error {
	origin, err := lotForUpdate(ctx, lotRepo, in.ItemID, in.LotID)
	if err != nil {
		return err
	}
	if origin.Location == in.ToLocation {
		return domain.NewValidationError("to_location", "debe ser distinta de la ubicación actual")
	}
	if origin.Remaining().LessThan(in.Quantity) {
		return domain.ErrInsufficientStock
	}
	newQty := origin.Remaining().Sub(in.Quantity)
	if err := lotRepo.UpdateRemaining(ctx, origin.ID, newQty, origin.Version); err != nil {
		return err
	}
	origin.RemainingQty = decimal.NewNullDecimal(newQty)
	origin.Version++

	dest := &entity.StockLot{
		ID:           uuid.New().String(),
		ItemID:       origin.ItemID,
		LotCode:      origin.LotCode,
		Location:     in.ToLocation,
		ExpiryDate:   origin.ExpiryDate,
		RemainingQty: decimal.NewNullDecimal(in.Quantity),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := lotRepo.Create(ctx, dest); err != nil {
		return err
	}

	mov, err := inventory.NewStockMove(inventory.MoveInput{
		ItemID:       in.ItemID,
		LotID:        origin.ID,
		Type:         entity.MoveTypeTransfer.String(),
		Quantity:     in.Quantity,
		Reason:       in.Reason,
		DocRef:       in.DocRef,
		FromLocation: origin.Location,
		ToLocation:   in.ToLocation,
		User:         in.User,
		CreatedAt:    now,
	})
	if err != nil {
		return err
	}
	if err := moveRepo.Append(ctx, mov); err != nil {
		return err
	}
	res.Lots = append(res.Lots, origin, dest)
	res.Moves = append(res.Moves, mov)
	return nil
}

func (uc *RegisterMovementUseCase) publishLots(ctx context.Context, lots []*entity.StockLot) {
	if uc.invalidator == nil || len(lots) == 0 {
		return
	}
	msgs := make([]Invalidation, 0, len(lots))
	for _, l := range lots {
		msgs = append(msgs, Invalidation{Entity: EntityLot, ID: l.ID})
	}
	if err := uc.invalidator.Publish(ctx, msgs...); err != nil {
		uc.log.Warn().Err(err).Msg("publicar invalidación de lotes")
	}
}
