package jobs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *asynq.Inspector, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	opt := asynq.RedisClientOpt{Addr: mr.Addr()}
	c := NewClient(opt)
	insp := asynq.NewInspector(opt)
	t.Cleanup(func() {
		_ = c.Close()
		_ = insp.Close()
	})
	return c, insp, mr
}

func pendingIDs(t *testing.T, insp *asynq.Inspector) []string {
	t.Helper()
	tasks, err := insp.ListPendingTasks(QueueDefault)
	require.NoError(t, err)
	ids := make([]string, 0, len(tasks))
	for _, ti := range tasks {
		ids = append(ids, ti.ID)
	}
	return ids
}

func TestEnqueueRecalculate_DeduplicaPendientes(t *testing.T) {
	c, insp, _ := newTestClient(t)

	require.NoError(t, c.EnqueueRecalculate(context.Background(), "X"))
	require.NoError(t, c.EnqueueRecalculate(context.Background(), " X "))
	assert.Equal(t, []string{"recalc:X"}, pendingIDs(t, insp))
}

func TestEnqueueRecalculate_ReemplazaTareaArchivada(t *testing.T) {
	c, insp, _ := newTestClient(t)

	require.NoError(t, c.EnqueueRecalculate(context.Background(), "X"))
	require.NoError(t, insp.ArchiveTask(QueueDefault, RecalculateTaskID("X")))
	require.Empty(t, pendingIDs(t, insp))

	require.NoError(t, c.EnqueueRecalculate(context.Background(), "X"))
	assert.Equal(t, []string{"recalc:X"}, pendingIDs(t, insp))

	archived, err := insp.ListArchivedTasks(QueueDefault)
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func TestEnqueueRecalculate_EnEjecucionEncolaSeguimiento(t *testing.T) {
	c, insp, mr := newTestClient(t)

	require.NoError(t, c.EnqueueRecalculate(context.Background(), "X"))
	// marca la tarea como tomada por un worker
	mr.HSet("asynq:{"+QueueDefault+"}:t:recalc:X", "state", "active")

	require.NoError(t, c.EnqueueRecalculate(context.Background(), "X"))
	require.NoError(t, c.EnqueueRecalculate(context.Background(), "X"))
	assert.ElementsMatch(t, []string{"recalc:X", "recalc:X" + followUpSuffix}, pendingIDs(t, insp))
}
