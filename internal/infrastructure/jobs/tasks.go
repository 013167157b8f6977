// Package jobs recálculo asíncrono y reconciliación periódica de stock sobre asynq.
package jobs

import (
	"encoding/json"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola de las tareas de inventario.
	QueueDefault = "inventory"
	// TaskRecalculate recalcula el stock de un ítem.
	TaskRecalculate = "inventory:recalculate"
	// TaskReconcile recalcula todos los ítems (cron).
	TaskReconcile = "inventory:reconcile"
)

// RecalculatePayload ítem a recalcular.
type RecalculatePayload struct {
	ItemID string `json:"item_id"`
}

// ReconcilePayload origen de la corrida (cron, manual).
type ReconcilePayload struct {
	Source string `json:"source"`
}

// RecalculateTaskID id con el que Client deduplica los recálculos de un ítem.
func RecalculateTaskID(itemID string) string {
	return "recalc:" + strings.TrimSpace(itemID)
}

// NewRecalculateTask construye la tarea. El id lo asigna Client al encolar.
func NewRecalculateTask(itemID string) (*asynq.Task, error) {
	body, err := json.Marshal(RecalculatePayload{ItemID: strings.TrimSpace(itemID)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecalculate, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
	), nil
}

// NewReconcileTask construye la tarea de reconciliación total.
func NewReconcileTask(source string) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcilePayload{Source: source})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReconcile, body, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}
