package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain"
)

// Recalculator lo que los handlers necesitan del caso de uso de recálculo.
type Recalculator interface {
	Recalculate(ctx context.Context, itemID string) (decimal.Decimal, error)
	RecalculateAll(ctx context.Context) (int, error)
}

// Handlers procesa las tareas de inventario.
type Handlers struct {
	recalc Recalculator
	log    zerolog.Logger
}

// NewHandlers construye los handlers.
func NewHandlers(recalc Recalculator, log zerolog.Logger) *Handlers {
	return &Handlers{recalc: recalc, log: log}
}

// HandleRecalculate procesa TaskRecalculate. Payload inválido o ítem inexistente no se reintentan.
func (h *Handlers) HandleRecalculate(ctx context.Context, t *asynq.Task) error {
	var p RecalculatePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.ItemID == "" {
		h.log.Warn().Str("task", t.Type()).Msg("payload inválido")
		return fmt.Errorf("payload inválido: %w", asynq.SkipRetry)
	}
	total, err := h.recalc.Recalculate(ctx, p.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			h.log.Warn().Err(err).Str("item_id", p.ItemID).Msg("recálculo descartado")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	h.log.Info().Str("item_id", p.ItemID).Str("stock_current", total.String()).Msg("recálculo asíncrono")
	return nil
}

// HandleReconcile procesa TaskReconcile: recalcula todos los ítems.
func (h *Handlers) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	var p ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("payload inválido: %w", asynq.SkipRetry)
		}
	}
	n, err := h.recalc.RecalculateAll(ctx)
	ev := h.log.Info()
	if err != nil {
		ev = h.log.Error().Err(err)
	}
	ev.Int("items", n).Str("source", p.Source).Msg("reconciliación de stock")
	return err
}
