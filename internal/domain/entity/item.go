package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item representa un artículo del inventario.
// StockCurrent es un valor cacheado: la suma de RemainingQty de sus lotes en el último recálculo.
type Item struct {
	ID           string
	SKU          string
	Name         string
	UnitMeasure  string
	StockCurrent decimal.Decimal
	UpdatedAt    time.Time
}
