package entity

import "github.com/shopspring/decimal"

// FefoPick es una línea del plan de asignación: cuánto tomar de qué lote. Qty siempre > 0.
type FefoPick struct {
	LotID string          `json:"lot_id"`
	Qty   decimal.Decimal `json:"qty"`
}
