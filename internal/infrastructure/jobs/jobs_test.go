package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-lotes/internal/domain"
)

type fakeRecalc struct {
	items   []string
	err     error
	allRuns int
	allErr  error
}

func (f *fakeRecalc) Recalculate(_ context.Context, itemID string) (decimal.Decimal, error) {
	f.items = append(f.items, itemID)
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return decimal.NewFromInt(7), nil
}

func (f *fakeRecalc) RecalculateAll(context.Context) (int, error) {
	f.allRuns++
	return 3, f.allErr
}

func TestNewRecalculateTask(t *testing.T) {
	task, err := NewRecalculateTask(" X ")
	require.NoError(t, err)
	assert.Equal(t, TaskRecalculate, task.Type())

	var p RecalculatePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "X", p.ItemID)
}

func TestMux_EnrutaRecalculo(t *testing.T) {
	rc := &fakeRecalc{}
	mux := NewServeMux(NewHandlers(rc, zerolog.Nop()))

	task, err := NewRecalculateTask("X")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"X"}, rc.items)

	rec, err := NewReconcileTask("manual")
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), rec))
	assert.Equal(t, 1, rc.allRuns)
}

func TestHandleRecalculate_NoReintentaErroresPermanentes(t *testing.T) {
	h := NewHandlers(&fakeRecalc{}, zerolog.Nop())
	err := h.HandleRecalculate(context.Background(), asynq.NewTask(TaskRecalculate, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = h.HandleRecalculate(context.Background(), asynq.NewTask(TaskRecalculate, []byte(`{"item_id":""}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	h = NewHandlers(&fakeRecalc{err: domain.WrapRepository("update item stock", domain.ErrNotFound)}, zerolog.Nop())
	task, _ := NewRecalculateTask("nadie")
	assert.ErrorIs(t, h.HandleRecalculate(context.Background(), task), asynq.SkipRetry)
}

func TestHandleRecalculate_ErrorTransitorioSeReintenta(t *testing.T) {
	cause := errors.New("conexión rechazada")
	h := NewHandlers(&fakeRecalc{err: domain.WrapRepository("list lots", cause)}, zerolog.Nop())
	task, _ := NewRecalculateTask("X")

	err := h.HandleRecalculate(context.Background(), task)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleReconcile(t *testing.T) {
	rc := &fakeRecalc{allErr: errors.New("un ítem falló")}
	h := NewHandlers(rc, zerolog.Nop())

	assert.Error(t, h.HandleReconcile(context.Background(), asynq.NewTask(TaskReconcile, nil)))
	assert.ErrorIs(t, h.HandleReconcile(context.Background(), asynq.NewTask(TaskReconcile, []byte("x"))), asynq.SkipRetry)
	assert.Equal(t, 1, rc.allRuns)
}

func TestNewWorker_RequiereHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{})
	assert.Error(t, err)
}
