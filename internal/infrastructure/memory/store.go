// Package memory implementa los puertos de inventario sobre un almacén clave-valor en memoria.
// Se usa con STORAGE_DRIVER=memory (demo/desarrollo) y en tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/application/inventory"
	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
	"github.com/jhoicas/bodega-lotes/internal/domain/repository"
)

var (
	_ repository.LotRepository       = (*LotRepo)(nil)
	_ repository.StockMoveRepository = (*MoveRepo)(nil)
	_ repository.ItemRepository      = (*ItemRepo)(nil)
	_ inventory.TxRunner             = (*TxRunner)(nil)
)

// Store datos en memoria: ítems, lotes (en orden de alta) y libro de movimientos.
// Lotes y movimientos leídos o escritos fuera de TxRunner esperan a que la transacción abierta
// confirme o se deshaga.
type Store struct {
	mu       sync.RWMutex
	txMu     sync.RWMutex
	items    map[string]*entity.Item
	lots     map[string]*entity.StockLot
	lotOrder []string
	moves    []*entity.StockMove
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		items: make(map[string]*entity.Item),
		lots:  make(map[string]*entity.StockLot),
	}
}

// PutItem inserta o reemplaza un ítem.
func (s *Store) PutItem(item entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := item
	s.items[item.ID] = &cp
}

// PutLot inserta o reemplaza un lote.
func (s *Store) PutLot(lot entity.StockLot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLotLocked(lot)
}

func (s *Store) putLotLocked(lot entity.StockLot) {
	if _, ok := s.lots[lot.ID]; !ok {
		s.lotOrder = append(s.lotOrder, lot.ID)
	}
	cp := lot
	s.lots[lot.ID] = &cp
}

// Moves devuelve una copia del libro de movimientos.
func (s *Store) Moves() []entity.StockMove {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.StockMove, 0, len(s.moves))
	for _, m := range s.moves {
		out = append(out, *m)
	}
	return out
}

// Item devuelve una copia del ítem.
func (s *Store) Item(id string) (entity.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return entity.Item{}, false
	}
	return *it, true
}

// Lot devuelve una copia del lote.
func (s *Store) Lot(id string) (entity.StockLot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lots[id]
	if !ok {
		return entity.StockLot{}, false
	}
	return *l, true
}

// snapshot estado para rollback de una transacción.
type snapshot struct {
	lots     map[string]entity.StockLot
	lotOrder []string
	moves    int
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		lots:     make(map[string]entity.StockLot, len(s.lots)),
		lotOrder: append([]string(nil), s.lotOrder...),
		moves:    len(s.moves),
	}
	for id, l := range s.lots {
		snap.lots[id] = *l
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots = make(map[string]*entity.StockLot, len(snap.lots))
	for id, l := range snap.lots {
		cp := l
		s.lots[id] = &cp
	}
	s.lotOrder = snap.lotOrder
	s.moves = s.moves[:snap.moves]
}

// committedRead bloquea hasta que no haya transacción abierta; dentro de una no hace nada.
func (s *Store) committedRead(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.RLock()
	return s.txMu.RUnlock
}

// committedWrite como committedRead pero excluye también las transacciones que empiecen después.
func (s *Store) committedWrite(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

// LotRepo lotes en memoria.
type LotRepo struct {
	s    *Store
	inTx bool
}

// NewLotRepository construye el adaptador de lotes.
func NewLotRepository(s *Store) *LotRepo { return &LotRepo{s: s} }

func (r *LotRepo) ListByItem(ctx context.Context, itemID string) ([]*entity.StockLot, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapRepository("list lots", err)
	}
	defer r.s.committedRead(r.inTx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.StockLot
	for _, id := range r.s.lotOrder {
		l := r.s.lots[id]
		if l.ItemID == itemID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ListByItemForUpdate en memoria la exclusión la da TxRunner.
func (r *LotRepo) ListByItemForUpdate(ctx context.Context, itemID string) ([]*entity.StockLot, error) {
	return r.ListByItem(ctx, itemID)
}

func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.StockLot, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapRepository("get lot", err)
	}
	defer r.s.committedRead(r.inTx)()
	l, ok := r.s.Lot(id)
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockLot, error) {
	return r.GetByID(ctx, id)
}

func (r *LotRepo) Create(ctx context.Context, lot *entity.StockLot) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapRepository("create lot", err)
	}
	defer r.s.committedWrite(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lots[lot.ID]; ok {
		return domain.ErrConflict
	}
	r.s.putLotLocked(*lot)
	return nil
}

func (r *LotRepo) UpdateRemaining(ctx context.Context, lotID string, remaining decimal.Decimal, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapRepository("update lot remaining", err)
	}
	defer r.s.committedWrite(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lots[lotID]
	if !ok {
		return domain.ErrNotFound
	}
	if l.Version != expectedVersion {
		return domain.ErrConflict
	}
	l.RemainingQty = decimal.NewNullDecimal(remaining)
	l.Version++
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// MoveRepo libro de movimientos en memoria (solo inserción).
type MoveRepo struct {
	s    *Store
	inTx bool
}

// NewStockMoveRepository construye el adaptador del libro.
func NewStockMoveRepository(s *Store) *MoveRepo { return &MoveRepo{s: s} }

func (r *MoveRepo) Append(ctx context.Context, move *entity.StockMove) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapRepository("append move", err)
	}
	defer r.s.committedWrite(r.inTx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *move
	r.s.moves = append(r.s.moves, &cp)
	return nil
}

// ItemRepo ítems en memoria.
type ItemRepo struct{ s *Store }

// NewItemRepository construye el adaptador de ítems.
func NewItemRepository(s *Store) *ItemRepo { return &ItemRepo{s: s} }

func (r *ItemRepo) GetByID(ctx context.Context, id string) (*entity.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapRepository("get item", err)
	}
	it, ok := r.s.Item(id)
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r *ItemRepo) ListIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapRepository("list items", err)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]string, 0, len(r.s.items))
	for id := range r.s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *ItemRepo) UpdateStockCurrent(ctx context.Context, itemID string, total decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapRepository("update item stock", err)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[itemID]
	if !ok {
		return domain.WrapRepository("update item stock", domain.ErrNotFound)
	}
	it.StockCurrent = total
	it.UpdatedAt = time.Now().UTC()
	return nil
}

// TxRunner serializa las transacciones y deshace lotes y movimientos si fn falla.
type TxRunner struct{ s *Store }

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner { return &TxRunner{s: s} }

func (r *TxRunner) Run(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	moveRepo repository.StockMoveRepository,
) error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	snap := r.s.snapshot()
	if err := fn(&LotRepo{s: r.s, inTx: true}, &MoveRepo{s: r.s, inTx: true}); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}
