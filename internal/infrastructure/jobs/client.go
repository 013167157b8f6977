package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
)

var _ inventory.RecalcEnqueuer = (*Client)(nil)

// followUpSuffix id de la tarea que se encola mientras otra del mismo ítem está en ejecución.
const followUpSuffix = ":siguiente"

// Client encola tareas de inventario.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewClient construye el cliente asynq.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{
		client:    asynq.NewClient(redisOpts),
		inspector: asynq.NewInspector(redisOpts),
	}
}

// EnqueueRecalculate garantiza que haya una ejecución del recálculo del ítem que aún no empezó.
// Una tarea pendiente del mismo ítem basta; una archivada se reemplaza; si hay una en ejecución
// se encola la de seguimiento.
func (c *Client) EnqueueRecalculate(ctx context.Context, itemID string) error {
	id := RecalculateTaskID(itemID)
	for _, taskID := range []string{id, id + followUpSuffix} {
		queued, err := c.enqueueWithID(ctx, itemID, taskID)
		if err != nil {
			return fmt.Errorf("encolar recálculo %s: %w", itemID, err)
		}
		if queued {
			return nil
		}
	}

	// Las dos en ejecución: una tarea sin id para no perder el pedido.
	task, err := NewRecalculateTask(itemID)
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("encolar recálculo %s: %w", itemID, err)
	}
	return nil
}

// enqueueWithID devuelve false solo cuando la tarea con ese id está en ejecución.
func (c *Client) enqueueWithID(ctx context.Context, itemID, taskID string) (bool, error) {
	task, err := NewRecalculateTask(itemID)
	if err != nil {
		return false, err
	}
	for attempt := 0; attempt < 2; attempt++ {
		_, err := c.client.EnqueueContext(ctx, task, asynq.TaskID(taskID))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, asynq.ErrTaskIDConflict) {
			return false, err
		}

		info, err := c.inspector.GetTaskInfo(QueueDefault, taskID)
		if errors.Is(err, asynq.ErrTaskNotFound) {
			continue
		}
		if err != nil {
			return false, err
		}
		switch info.State {
		case asynq.TaskStateActive:
			return false, nil
		case asynq.TaskStateArchived, asynq.TaskStateCompleted:
			if err := c.inspector.DeleteTask(QueueDefault, taskID); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
				return false, err
			}
		default:
			// pending, scheduled, retry: todavía va a leer los lotes
			return true, nil
		}
	}
	return false, fmt.Errorf("tarea %s sigue ocupada", taskID)
}

// Close libera las conexiones.
func (c *Client) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close())
}
