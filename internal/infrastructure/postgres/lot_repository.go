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

var _ repository.LotRepository = (*LotRepo)(nil)

const lotColumns = `id, item_id, lot_code, location, expiry_date, remaining_qty, version, created_at, updated_at`

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// ListByItem lista los lotes del ítem en orden de alta.
func (r *LotRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.StockLot, error) {
	query := `SELECT ` + lotColumns + ` FROM stock_lots WHERE item_id = $1 ORDER BY seq`
	return r.list(ctx, "list lots", query, itemID)
}

// ListByItemForUpdate igual que ListByItem pero bloquea las filas hasta el fin de la transacción.
func (r *LotRepo) ListByItemForUpdate(ctx context.Context, itemID string) ([]*entity.StockLot, error) {
	query := `SELECT ` + lotColumns + ` FROM stock_lots WHERE item_id = $1 ORDER BY seq FOR UPDATE`
	return r.list(ctx, "list lots for update", query, itemID)
}

func (r *LotRepo) list(ctx context.Context, op, query, itemID string) ([]*entity.StockLot, error) {
	rows, err := r.q.Query(ctx, query, itemID)
	if err != nil {
		return nil, domain.WrapRepository(op, err)
	}
	defer rows.Close()
	var list []*entity.StockLot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, domain.WrapRepository(op, err)
		}
		list = append(list, l)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapRepository(op, err)
	}
	return list, nil
}

// GetByID obtiene un lote; nil si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.StockLot, error) {
	query := `SELECT ` + lotColumns + ` FROM stock_lots WHERE id = $1`
	return r.get(ctx, "get lot", query, id)
}

// GetForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE).
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockLot, error) {
	query := `SELECT ` + lotColumns + ` FROM stock_lots WHERE id = $1 FOR UPDATE`
	return r.get(ctx, "get lot for update", query, id)
}

func (r *LotRepo) get(ctx context.Context, op, query, id string) (*entity.StockLot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.WrapRepository(op, err)
	}
	return l, nil
}

// Create inserta un lote nuevo con versión 0.
func (r *LotRepo) Create(ctx context.Context, lot *entity.StockLot) error {
	query := `
		INSERT INTO stock_lots (id, item_id, lot_code, location, expiry_date, remaining_qty, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.ItemID, lot.LotCode, lot.Location, lot.ExpiryDate, lot.RemainingQty,
		lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return domain.WrapRepository("create lot", err)
	}
	lot.Version = 0
	return nil
}

// UpdateRemaining escribe la cantidad restante solo si la versión coincide; si no, ErrConflict.
func (r *LotRepo) UpdateRemaining(ctx context.Context, lotID string, remaining decimal.Decimal, expectedVersion int64) error {
	query := `
		UPDATE stock_lots
		SET remaining_qty = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3`
	tag, err := r.q.Exec(ctx, query, lotID, remaining, expectedVersion)
	if err != nil {
		return domain.WrapRepository("update lot remaining", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_lots WHERE id = $1)`, lotID).Scan(&exists); err != nil {
			return domain.WrapRepository("update lot remaining", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func scanLot(row pgx.Row) (*entity.StockLot, error) {
	var l entity.StockLot
	err := row.Scan(
		&l.ID, &l.ItemID, &l.LotCode, &l.Location, &l.ExpiryDate, &l.RemainingQty,
		&l.Version, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
