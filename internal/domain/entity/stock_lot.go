package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLot representa un lote físico de un ítem en una ubicación.
// RemainingQty puede venir sin valor desde registros parciales; para sumas cuenta como 0.
// Version se incrementa en cada escritura de RemainingQty (control optimista).
type StockLot struct {
	ID           string
	ItemID       string
	LotCode      string
	Location     string
	ExpiryDate   *time.Time // nil = sin vencimiento (se ordena al final)
	RemainingQty decimal.NullDecimal
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Remaining devuelve la cantidad restante, 0 si no está informada.
func (l *StockLot) Remaining() decimal.Decimal {
	if !l.RemainingQty.Valid {
		return decimal.Zero
	}
	return l.RemainingQty.Decimal
}

// Available indica si el lote puede participar en una asignación.
func (l *StockLot) Available() bool {
	return l.Remaining().IsPositive()
}
