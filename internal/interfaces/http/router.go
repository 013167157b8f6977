package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodega-lotes/internal/application/dto"
	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
	"github.com/jhoicas/bodega-lotes/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Allocator        *inventory.AllocateStockUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Recalculate      *inventory.RecalculateStockUseCase
	StockQuery       *inventory.StockQueryUseCase
	Enqueuer         inventory.RecalcEnqueuer // nil = sin worker
	JWTSecret        string
	JWTIssuer        string
	Health           dto.HealthResponse
	Logger           zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	validate := newValidator()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(deps.Health)
	})

	// Todas las rutas de /api requieren Bearer Token
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	readers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleAuditor)

	invHandler := NewInventoryHandler(deps.Allocator, deps.StockQuery, deps.Recalculate, deps.Enqueuer, validate, deps.Logger)
	items := api.Group("/items")
	items.Get("/:id/stock", readers, invHandler.GetStock)
	items.Get("/:id/lots", readers, invHandler.ListLots)
	items.Post("/:id/allocation-plan", readers, invHandler.PreviewPlan)
	items.Post("/:id/withdrawals", writers, invHandler.Withdraw)
	items.Post("/:id/recalculate", writers, invHandler.Recalculate)

	lotHandler := NewLotHandler(deps.RegisterMovement, deps.Enqueuer, validate, deps.Logger)
	lots := api.Group("/lots")
	lots.Post("/", writers, lotHandler.Receive)
	lots.Post("/:id/adjustments", writers, lotHandler.Adjust)
	lots.Post("/:id/transfers", writers, lotHandler.Transfer)
}
