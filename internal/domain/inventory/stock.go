package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
)

// SumRemaining suma RemainingQty de todos los lotes; un lote sin cantidad informada aporta 0.
func SumRemaining(lots []*entity.StockLot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lots {
		if l == nil {
			continue
		}
		total = total.Add(l.Remaining())
	}
	return total
}
