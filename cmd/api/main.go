package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/bodega-lotes/internal/application/dto"
	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
	"github.com/jhoicas/bodega-lotes/internal/domain/repository"
	"github.com/jhoicas/bodega-lotes/internal/infrastructure/jobs"
	"github.com/jhoicas/bodega-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/bodega-lotes/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/bodega-lotes/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/bodega-lotes/internal/interfaces/http"
	"github.com/jhoicas/bodega-lotes/pkg/config"
	"github.com/jhoicas/bodega-lotes/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Bool("redis", cfg.Redis.Enabled()).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositorios según STORAGE_DRIVER
	var (
		lotRepo  repository.LotRepository
		itemRepo repository.ItemRepository
		txRunner inventory.TxRunner
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		lotRepo = memory.NewLotRepository(store)
		itemRepo = memory.NewItemRepository(store)
		txRunner = memory.NewTxRunner(store)
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		lotRepo = postgres.NewLotRepository(pool)
		itemRepo = postgres.NewItemRepository(pool)
		txRunner = postgres.NewTxRunner(pool)
	}

	// Redis opcional: bloqueo por ítem, caché de stock, invalidaciones y cola de recálculo
	var (
		locker      inventory.ItemLocker
		invalidator inventory.Invalidator
		stockCache  inventory.StockCache
		enqueuer    inventory.RecalcEnqueuer
		rdb         *goredis.Client
	)
	if cfg.Redis.Enabled() {
		rdb, err = infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = infraredis.NewItemLocker(rdb, infraredis.LockerOptions{TTL: cfg.Redis.LockTTL})
		invalidator = infraredis.NewPublisher(rdb, "")
		stockCache = infraredis.NewStockCache(rdb, cfg.Redis.CacheTTL)

		jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer jobClient.Close()
		enqueuer = jobClient
	}

	recalcUC := inventory.NewRecalculateStockUseCase(lotRepo, itemRepo, invalidator, log.Component("recalculate"))
	allocateUC := inventory.NewAllocateStockUseCase(txRunner, lotRepo, recalcUC, inventory.AllocateOptions{
		Locker:      locker,
		Invalidator: invalidator,
		MaxRetries:  cfg.Inventory.MaxRetries,
	}, log.Component("allocator"))
	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, itemRepo, allocateUC, recalcUC, invalidator, log.Component("movements"))
	stockQueryUC := inventory.NewStockQueryUseCase(itemRepo, lotRepo, stockCache, log.Component("stock-query"))

	// Cada instancia descarta su caché de stock al recibir invalidaciones de ítem
	if rdb != nil {
		sub, err := infraredis.Subscribe(ctx, rdb, "", log.Component("invalidations"))
		if err != nil {
			log.Fatal().Err(err).Msg("suscripción a invalidaciones")
		}
		go func() {
			_ = sub.Run(ctx, infraredis.EvictOnItem(stockQueryUC.Evict, log.Component("invalidations")))
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Bodega Lotes API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Allocator:        allocateUC,
		RegisterMovement: registerMovementUC,
		Recalculate:      recalcUC,
		StockQuery:       stockQueryUC,
		Enqueuer:         enqueuer,
		JWTSecret:        cfg.JWT.Secret,
		JWTIssuer:        cfg.JWT.Issuer,
		Health: dto.HealthResponse{
			Status:  "ok",
			Storage: cfg.Storage.Driver,
			Redis:   cfg.Redis.Enabled(),
		},
		Logger: log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
