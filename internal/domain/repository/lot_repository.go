package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
)

// LotRepository define el puerto de persistencia para lotes de stock (DIP).
type LotRepository interface {
	// ListByItem devuelve todos los lotes del ítem (incluidos los agotados) con su cantidad y vencimiento actuales.
	ListByItem(ctx context.Context, itemID string) ([]*entity.StockLot, error)
	// ListByItemForUpdate igual que ListByItem pero bloquea las filas hasta el fin de la transacción.
	ListByItemForUpdate(ctx context.Context, itemID string) ([]*entity.StockLot, error)
	GetByID(ctx context.Context, id string) (*entity.StockLot, error)
	// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE). nil si no existe.
	GetForUpdate(ctx context.Context, id string) (*entity.StockLot, error)
	Create(ctx context.Context, lot *entity.StockLot) error
	// UpdateRemaining persiste la nueva cantidad si la versión coincide; si no, devuelve domain.ErrConflict.
	UpdateRemaining(ctx context.Context, lotID string, remaining decimal.Decimal, expectedVersion int64) error
}
