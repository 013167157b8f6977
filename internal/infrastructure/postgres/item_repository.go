package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
	"github.com/jhoicas/bodega-lotes/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo implementación de ItemRepository sobre PostgreSQL.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador de ítems.
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// GetByID obtiene un ítem; nil si no existe.
func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	query := `SELECT id, sku, name, unit_measure, stock_current, updated_at FROM items WHERE id = $1`
	var it entity.Item
	err := r.q.QueryRow(ctx, query, id).Scan(&it.ID, &it.SKU, &it.Name, &it.UnitMeasure, &it.StockCurrent, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.WrapRepository("get item", err)
	}
	return &it, nil
}

// ListIDs devuelve los ids de todos los ítems (reconciliación).
func (r *ItemRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM items ORDER BY id`)
	if err != nil {
		return nil, domain.WrapRepository("list items", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, domain.WrapRepository("list items", err)
	}
	return ids, nil
}

// UpdateStockCurrent escribe el total derivado de los lotes.
func (r *ItemRepo) UpdateStockCurrent(ctx context.Context, itemID string, total decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `UPDATE items SET stock_current = $2, updated_at = now() WHERE id = $1`, itemID, total)
	if err != nil {
		return domain.WrapRepository("update item stock", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.WrapRepository("update item stock", domain.ErrNotFound)
	}
	return nil
}
