package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
	"github.com/jhoicas/bodega-lotes/internal/domain/repository"
)

var _ repository.StockMoveRepository = (*StockMoveRepo)(nil)

// StockMoveRepo libro de movimientos sobre PostgreSQL; solo inserta.
type StockMoveRepo struct {
	q Querier
}

// NewStockMoveRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMoveRepository(q Querier) *StockMoveRepo {
	return &StockMoveRepo{q: q}
}

// Append persiste un movimiento tal como viene (la cantidad conserva su signo).
func (r *StockMoveRepo) Append(ctx context.Context, move *entity.StockMove) error {
	if move.ID == "" {
		move.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_moves (id, item_id, lot_id, type, quantity, reason, doc_ref, from_location, to_location, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		move.ID, move.ItemID, move.LotID, move.Type.String(), move.Quantity,
		move.Reason, move.DocRef, nullableString(move.FromLocation), nullableString(move.ToLocation),
		move.CreatedAt, nullableString(move.User),
	)
	if err != nil {
		return domain.WrapRepository("append move", err)
	}
	return nil
}
