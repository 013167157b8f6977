package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para ítems.
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	// ListIDs devuelve los ids de todos los ítems (reconciliación periódica).
	ListIDs(ctx context.Context) ([]string, error)
	// UpdateStockCurrent escribe el total recalculado en una sola operación.
	UpdateStockCurrent(ctx context.Context, itemID string, total decimal.Decimal) error
}
