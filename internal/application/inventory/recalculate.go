package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/inventory"
	"github.com/jhoicas/bodega-lotes/internal/domain/repository"
)

// RecalculateStockUseCase deriva el stock actual de un ítem desde sus lotes.
// Lee todos los lotes, suma RemainingQty (sin valor = 0) y escribe el total con una sola actualización.
// No bloquea: si corre en paralelo con una escritura de lotes puede dejar una suma transitoria
// que se corrige en la siguiente invocación.
type RecalculateStockUseCase struct {
	lotRepo     repository.LotRepository
	itemRepo    repository.ItemRepository
	invalidator Invalidator
	log         zerolog.Logger
}

// NewRecalculateStockUseCase construye el caso de uso. invalidator puede ser nil.
func NewRecalculateStockUseCase(
	lotRepo repository.LotRepository,
	itemRepo repository.ItemRepository,
	invalidator Invalidator,
	log zerolog.Logger,
) *RecalculateStockUseCase {
	return &RecalculateStockUseCase{
		lotRepo:     lotRepo,
		itemRepo:    itemRepo,
		invalidator: invalidator,
		log:         log,
	}
}

// Recalculate devuelve el total calculado y lo persiste como stock actual del ítem.
// Los errores del repositorio se devuelven sin reintentos; si la escritura falla el valor anterior se mantiene.
func (uc *RecalculateStockUseCase) Recalculate(ctx context.Context, itemID string) (decimal.Decimal, error) {
	if strings.TrimSpace(itemID) == "" {
		return decimal.Zero, domain.NewValidationError("item_id", "requerido")
	}
	lots, err := uc.lotRepo.ListByItem(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	total := inventory.SumRemaining(lots)
	if err := uc.itemRepo.UpdateStockCurrent(ctx, itemID, total); err != nil {
		return decimal.Zero, err
	}
	uc.log.Debug().Str("item_id", itemID).Str("stock_current", total.String()).Int("lots", len(lots)).Msg("stock recalculado")

	if uc.invalidator != nil {
		if err := uc.invalidator.Publish(ctx, Invalidation{Entity: EntityItem, ID: itemID}); err != nil {
			uc.log.Warn().Err(err).Str("item_id", itemID).Msg("publicar invalidación")
		}
	}
	return total, nil
}

// RecalculateAll recalcula todos los ítems (reconciliación periódica).
// Continúa ante fallos individuales y devuelve cuántos se actualizaron junto con los errores acumulados.
func (uc *RecalculateStockUseCase) RecalculateAll(ctx context.Context) (int, error) {
	ids, err := uc.itemRepo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	var (
		done int
		errs []error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := uc.Recalculate(ctx, id); err != nil {
			uc.log.Error().Err(err).Str("item_id", id).Msg("reconciliación de ítem")
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}
