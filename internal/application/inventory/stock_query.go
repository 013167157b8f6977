package inventory

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
	"github.com/jhoicas/bodega-lotes/internal/domain/repository"
)

// ItemStock vista de lectura del stock de un ítem. Item es nil cuando el valor sale de caché.
type ItemStock struct {
	ItemID       string
	Item         *entity.Item
	StockCurrent decimal.Decimal
	FromCache    bool
}

// StockQueryUseCase lecturas de stock y lotes para pantallas.
// El stock actual se sirve desde caché (cache-aside); las lecturas concurrentes de un mismo ítem
// se agrupan para que solo una llegue al repositorio.
type StockQueryUseCase struct {
	itemRepo repository.ItemRepository
	lotRepo  repository.LotRepository
	cache    StockCache
	group    singleflight.Group
	log      zerolog.Logger

	mu       sync.Mutex
	evictGen map[string]uint64
}

// NewStockQueryUseCase construye el caso de uso. cache puede ser nil.
func NewStockQueryUseCase(itemRepo repository.ItemRepository, lotRepo repository.LotRepository, cache StockCache, log zerolog.Logger) *StockQueryUseCase {
	return &StockQueryUseCase{
		itemRepo: itemRepo,
		lotRepo:  lotRepo,
		cache:    cache,
		log:      log,
		evictGen: make(map[string]uint64),
	}
}

// ItemStock devuelve el stock actual del ítem: primero caché, luego repositorio. Un fallo de caché no es fatal.
func (uc *StockQueryUseCase) ItemStock(ctx context.Context, itemID string) (*ItemStock, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.NewValidationError("item_id", "requerido")
	}

	if uc.cache != nil {
		cached, ok, err := uc.cache.Get(ctx, itemID)
		if err != nil {
			uc.log.Warn().Err(err).Str("item_id", itemID).Msg("leer caché de stock")
		} else if ok {
			return &ItemStock{ItemID: itemID, StockCurrent: cached, FromCache: true}, nil
		}
	}

	// La carga es compartida: no depende de la cancelación de quien la inició.
	loadCtx := context.WithoutCancel(ctx)
	ch := uc.group.DoChan(itemID, func() (interface{}, error) {
		return uc.load(loadCtx, itemID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		res := *r.Val.(*ItemStock)
		return &res, nil
	}
}

func (uc *StockQueryUseCase) load(ctx context.Context, itemID string) (*ItemStock, error) {
	gen := uc.generation(itemID)
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, itemID, item.StockCurrent); err != nil {
			uc.log.Warn().Err(err).Str("item_id", itemID).Msg("guardar caché de stock")
		}
		// Una invalidación llegó durante la lectura: el valor guardado puede ser viejo.
		if uc.generation(itemID) != gen {
			if err := uc.cache.Evict(ctx, itemID); err != nil {
				uc.log.Warn().Err(err).Str("item_id", itemID).Msg("descartar caché de stock")
			}
		}
	}
	return &ItemStock{ItemID: item.ID, Item: item, StockCurrent: item.StockCurrent}, nil
}

func (uc *StockQueryUseCase) generation(itemID string) uint64 {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.evictGen[itemID]
}

// Lots devuelve los lotes del ítem en orden de alta, incluidos los agotados.
func (uc *StockQueryUseCase) Lots(ctx context.Context, itemID string) ([]*entity.StockLot, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.NewValidationError("item_id", "requerido")
	}
	return uc.lotRepo.ListByItem(ctx, itemID)
}

// Evict descarta el stock cacheado del ítem; lo usa el suscriptor de invalidaciones.
func (uc *StockQueryUseCase) Evict(ctx context.Context, itemID string) error {
	if uc.cache == nil {
		return nil
	}
	uc.mu.Lock()
	uc.evictGen[itemID]++
	uc.mu.Unlock()
	return uc.cache.Evict(ctx, itemID)
}
