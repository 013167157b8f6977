package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
	"github.com/jhoicas/bodega-lotes/internal/infrastructure/jobs"
	"github.com/jhoicas/bodega-lotes/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/bodega-lotes/internal/infrastructure/redis"
	"github.com/jhoicas/bodega-lotes/pkg/config"
	"github.com/jhoicas/bodega-lotes/pkg/logger"
)

// El worker procesa recálculos encolados y la reconciliación periódica.
// Necesita PostgreSQL y Redis: con STORAGE_DRIVER=memory no hay estado compartido que recalcular.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name + "-worker",
	})
	if cfg.Storage.Driver != config.StorageDriverPostgres {
		log.Fatal().Str("storage", cfg.Storage.Driver).Msg("el worker requiere STORAGE_DRIVER=postgres")
	}
	if !cfg.Redis.Enabled() {
		log.Fatal().Msg("el worker requiere REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	rdb, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer rdb.Close()

	recalcUC := inventory.NewRecalculateStockUseCase(
		postgres.NewLotRepository(pool),
		postgres.NewItemRepository(pool),
		infraredis.NewPublisher(rdb, ""),
		log.Component("recalculate"),
	)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:     asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB},
		Concurrency:   cfg.Worker.Concurrency,
		ReconcileCron: cfg.Inventory.ReconcileCron,
		Handlers:      jobs.NewHandlers(recalcUC, log.Component("jobs")),
		Logger:        log.Component("asynq"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("iniciar worker")
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("worker")
	}
	log.Info().Msg("worker detenido")
}
