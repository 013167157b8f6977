package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
	"github.com/jhoicas/bodega-lotes/internal/domain/inventory"
	"github.com/jhoicas/bodega-lotes/internal/domain/repository"
)

// DefaultMaxRetries reintentos de planificación ante conflicto de versión de un lote.
const DefaultMaxRetries = 3

// AllocateStockUseCase planifica y aplica retiros FEFO sobre los lotes de un ítem.
// Cada retiro corre en una transacción con las filas de lotes bloqueadas (SELECT FOR UPDATE) y
// escrituras condicionadas por versión; si otra escritura gana la carrera se descarta el plan y se vuelve a planificar.
type AllocateStockUseCase struct {
	txRunner    TxRunner
	lotRepo     repository.LotRepository
	recalc      *RecalculateStockUseCase
	locker      ItemLocker
	invalidator Invalidator
	maxRetries  int
	log         zerolog.Logger
}

// AllocateOptions dependencias opcionales del caso de uso.
type AllocateOptions struct {
	Locker      ItemLocker  // nil = solo bloqueo de filas en la transacción
	Invalidator Invalidator // nil = sin mensajes de invalidación
	MaxRetries  int         // <= 0 usa DefaultMaxRetries
}

// NewAllocateStockUseCase construye el caso de uso de asignación.
func NewAllocateStockUseCase(
	txRunner TxRunner,
	lotRepo repository.LotRepository,
	recalc *RecalculateStockUseCase,
	opts AllocateOptions,
	log zerolog.Logger,
) *AllocateStockUseCase {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &AllocateStockUseCase{
		txRunner:    txRunner,
		lotRepo:     lotRepo,
		recalc:      recalc,
		locker:      opts.Locker,
		invalidator: opts.Invalidator,
		maxRetries:  maxRetries,
		log:         log,
	}
}

// WithdrawInput entrada para retirar cantidad de un ítem.
// ForcedLotID es opcional: el operador puede indicar el lote a consumir primero.
type WithdrawInput struct {
	ItemID      string
	Quantity    decimal.Decimal
	ForcedLotID string
	Reason      string
	DocRef      string
	User        string
}

// WithdrawResult resultado de un retiro aplicado.
// Recalculated es false si el retiro quedó confirmado pero el recálculo del stock falló;
// la reconciliación periódica lo corrige.
type WithdrawResult struct {
	Picks        []entity.FefoPick
	Moves        []*entity.StockMove
	StockCurrent decimal.Decimal
	Recalculated bool
}

// Preview devuelve el plan FEFO sobre el estado actual de los lotes sin escribir nada.
func (uc *AllocateStockUseCase) Preview(ctx context.Context, itemID string, quantity decimal.Decimal, forcedLotID string) ([]entity.FefoPick, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.NewValidationError("item_id", "requerido")
	}
	if err := inventory.CheckQuantity(quantity); err != nil {
		return nil, err
	}
	lots, err := uc.lotRepo.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return inventory.PlanFEFO(lots, quantity, forcedLotID)
}

// Withdraw aplica un retiro: planifica, descuenta lotes, registra un OUT por pick (cantidad negativa)
// y luego recalcula el stock del ítem. Con stock insuficiente no se modifica nada.
func (uc *AllocateStockUseCase) Withdraw(ctx context.Context, in WithdrawInput) (*WithdrawResult, error) {
	if strings.TrimSpace(in.ItemID) == "" {
		return nil, domain.NewValidationError("item_id", "requerido")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if err := inventory.CheckQuantity(in.Quantity); err != nil {
		return nil, err
	}

	if uc.locker != nil {
		unlock, err := uc.locker.Lock(ctx, in.ItemID)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				uc.log.Warn().Err(err).Str("item_id", in.ItemID).Msg("liberar bloqueo de ítem")
			}
		}()
	}

	var res WithdrawResult
	var err error
	for attempt := 0; ; attempt++ {
		res = WithdrawResult{}
		err = uc.txRunner.Run(ctx, func(lotRepo repository.LotRepository, moveRepo repository.StockMoveRepository) error {
			return uc.apply(ctx, lotRepo, moveRepo, in, &res)
		})
		if !errors.Is(err, domain.ErrConflict) || attempt >= uc.maxRetries {
			break
		}
		uc.log.Debug().Str("item_id", in.ItemID).Int("attempt", attempt+1).Msg("conflicto de versión en lote, se vuelve a planificar")
	}
	if err != nil {
		return nil, err
	}

	uc.publishLots(ctx, res.Picks)

	total, err := uc.recalc.Recalculate(ctx, in.ItemID)
	if err != nil {
		uc.log.Error().Err(err).Str("item_id", in.ItemID).Msg("recalcular stock después del retiro")
		return &res, nil
	}
	res.StockCurrent = total
	res.Recalculated = true
	return &res, nil
}

// apply corre dentro de la transacción: lee lotes bloqueados, planifica y escribe.
func (uc *AllocateStockUseCase) apply(
	ctx context.Context,
	lotRepo repository.LotRepository,
	moveRepo repository.StockMoveRepository,
	in WithdrawInput,
	res *WithdrawResult,
) error {
	lots, err := lotRepo.ListByItemForUpdate(ctx, in.ItemID)
	if err != nil {
		return err
	}
	picks, err := inventory.PlanFEFO(lots, in.Quantity, in.ForcedLotID)
	if err != nil {
		return err
	}
	byID := make(map[string]*entity.StockLot, len(lots))
	for _, l := range lots {
		if l != nil {
			byID[l.ID] = l
		}
	}

	now := time.Now().UTC()
	moves := make([]*entity.StockMove, 0, len(picks))
	for _, p := range picks {
		l := byID[p.LotID]
		if err := lotRepo.UpdateRemaining(ctx, l.ID, l.Remaining().Sub(p.Qty), l.Version); err != nil {
			return err
		}
		mov, err := inventory.NewStockMove(inventory.MoveInput{
			ItemID:    in.ItemID,
			LotID:     l.ID,
			Type:      entity.MoveTypeOut.String(),
			Quantity:  p.Qty.Neg(),
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
		moves = append(moves, mov)
	}
	res.Picks = picks
	res.Moves = moves
	return nil
}

func (uc *AllocateStockUseCase) publishLots(ctx context.Context, picks []entity.FefoPick) {
	if uc.invalidator == nil || len(picks) == 0 {
		return
	}
	msgs := make([]Invalidation, 0, len(picks))
	for _, p := range picks {
		msgs = append(msgs, Invalidation{Entity: EntityLot, ID: p.LotID})
	}
	if err := uc.invalidator.Publish(ctx, msgs...); err != nil {
		uc.log.Warn().Err(err).Msg("publicar invalidación de lotes")
	}
}
