package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Worker servidor asynq más el scheduler de la reconciliación.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       zerolog.Logger
}

// WorkerConfig dependencias del worker.
type WorkerConfig struct {
	RedisOpts     asynq.RedisClientOpt
	Concurrency   int
	ReconcileCron string // vacío = sin reconciliación programada
	Handlers      *Handlers
	Logger        zerolog.Logger
}

// NewWorker registra los handlers y, si hay cron, la tarea de reconciliación.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Handlers == nil {
		return nil, errors.New("worker: handlers requeridos")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		Logger:      asynqLogger{cfg.Logger},
	})
	mux := NewServeMux(cfg.Handlers)

	var scheduler *asynq.Scheduler
	if cfg.ReconcileCron != "" {
		task, err := NewReconcileTask("cron")
		if err != nil {
			return nil, err
		}
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		if _, err := scheduler.Register(cfg.ReconcileCron, task); err != nil {
			return nil, err
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: cfg.Logger}, nil
}

// NewServeMux enruta cada tipo de tarea a su handler.
func NewServeMux(h *Handlers) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskRecalculate, h.HandleRecalculate)
	mux.HandleFunc(TaskReconcile, h.HandleReconcile)
	return mux
}

// Run procesa tareas hasta que ctx termine.
func (w *Worker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	w.log.Info().Msg("worker iniciado")
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

// asynqLogger adapta zerolog a asynq.Logger.
type asynqLogger struct{ zl zerolog.Logger }

func (l asynqLogger) Debug(args ...interface{}) { l.zl.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.zl.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.zl.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.zl.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.zl.Fatal().Msg(fmt.Sprint(args...)) }
