package inventory

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
)

// PlanFEFO arma el plan de descuento First-Expire-First-Out para wanted unidades (servicio de dominio puro).
//
// Si forcedLotID tiene stock se toma primero de ese lote; si no existe o está agotado no aporta nada
// y no es error. El resto se cubre con los lotes con stock ordenados por vencimiento ascendente;
// los lotes sin vencimiento van al final en el orden recibido.
// Si no alcanza devuelve domain.ErrInsufficientStock y ningún pick.
// wanted <= 0 devuelve un plan vacío.
// No modifica los lotes: aplicar el plan es responsabilidad del caller.
func PlanFEFO(lots []*entity.StockLot, wanted decimal.Decimal, forcedLotID string) ([]entity.FefoPick, error) {
	if !wanted.IsPositive() {
		return []entity.FefoPick{}, nil
	}
	if wanted.GreaterThan(TotalAvailable(lots)) {
		return nil, domain.ErrInsufficientStock
	}
	picks := make([]entity.FefoPick, 0, 2)
	outstanding := wanted

	var forced *entity.StockLot
	if forcedLotID != "" {
		for _, l := range lots {
			if l != nil && l.ID == forcedLotID && l.Available() {
				forced = l
				break
			}
		}
	}
	if forced != nil {
		take := decimal.Min(forced.Remaining(), outstanding)
		picks = append(picks, entity.FefoPick{LotID: forced.ID, Qty: take})
		outstanding = outstanding.Sub(take)
		if outstanding.IsZero() {
			return picks, nil
		}
	}

	for _, l := range candidates(lots, forced) {
		take := decimal.Min(l.Remaining(), outstanding)
		picks = append(picks, entity.FefoPick{LotID: l.ID, Qty: take})
		outstanding = outstanding.Sub(take)
		if outstanding.IsZero() {
			return picks, nil
		}
	}
	return nil, domain.ErrInsufficientStock
}

// candidates filtra los lotes con stock (sin el lote forzado ya consumido) y los ordena por vencimiento.
func candidates(lots []*entity.StockLot, skip *entity.StockLot) []*entity.StockLot {
	out := make([]*entity.StockLot, 0, len(lots))
	for _, l := range lots {
		if l == nil || l == skip || !l.Available() {
			continue
		}
		if skip != nil && l.ID == skip.ID {
			continue
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return expiresBefore(out[i], out[j])
	})
	return out
}

// expiresBefore: fecha de vencimiento ascendente; sin fecha equivale a +infinito.
func expiresBefore(a, b *entity.StockLot) bool {
	switch {
	case a.ExpiryDate == nil:
		return false
	case b.ExpiryDate == nil:
		return true
	default:
		return a.ExpiryDate.Before(*b.ExpiryDate)
	}
}

// TotalAvailable suma la cantidad restante de los lotes con stock.
func TotalAvailable(lots []*entity.StockLot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		if l != nil && l.Available() {
			total = total.Add(l.Remaining())
		}
	}
	return total
}
