package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de almacenamiento, pasando repositorios atados a esa tx.
// Garantiza atomicidad al aplicar un plan: descuentos de lotes y movimientos se confirman juntos o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.LotRepository,
		moveRepo repository.StockMoveRepository,
	) error) error
}

// ItemLocker serializa las secuencias planificar+aplicar de un mismo ítem entre procesos.
// unlock debe llamarse siempre; es seguro llamarlo aunque el bloqueo haya expirado.
type ItemLocker interface {
	Lock(ctx context.Context, itemID string) (unlock func(context.Context) error, err error)
}

// Entidades que viajan en los mensajes de invalidación.
const (
	EntityItem = "item"
	EntityLot  = "lot"
)

// Invalidation mensaje explícito de invalidación de caché (tipo de entidad + id).
type Invalidation struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
}

// Invalidator publica invalidaciones después de una escritura exitosa.
type Invalidator interface {
	Publish(ctx context.Context, msgs ...Invalidation) error
}

// StockCache caché del stock actual por ítem (lectura rápida para pantallas).
type StockCache interface {
	Get(ctx context.Context, itemID string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, itemID string, total decimal.Decimal) error
	Evict(ctx context.Context, itemID string) error
}

// RecalcEnqueuer encola un recálculo asíncrono del stock de un ítem.
type RecalcEnqueuer interface {
	EnqueueRecalculate(ctx context.Context, itemID string) error
}
