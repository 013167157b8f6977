package repository

import (
	"context"

	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
)

// StockMoveRepository define el puerto del libro de movimientos (solo inserción).
type StockMoveRepository interface {
	Append(ctx context.Context, move *entity.StockMove) error
}
