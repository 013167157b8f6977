package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoveType tipo de movimiento del libro de stock.
type MoveType string

// Tipos de movimiento.
const (
	MoveTypeIn       MoveType = "IN"       // entrada (recepción de lote)
	MoveTypeOut      MoveType = "OUT"      // salida (retiro FEFO)
	MoveTypeAdjust   MoveType = "ADJUST"   // corrección, cualquier signo
	MoveTypeTransfer MoveType = "TRANSFER" // traslado entre ubicaciones
)

// Valid indica si el tipo es uno de los cuatro reconocidos.
func (t MoveType) Valid() bool {
	switch t {
	case MoveTypeIn, MoveTypeOut, MoveTypeAdjust, MoveTypeTransfer:
		return true
	}
	return false
}

func (t MoveType) String() string { return string(t) }

// StockMove es un registro inmutable del libro de movimientos (append-only).
// Quantity conserva el signo enviado por el caller: negativo para descuentos, positivo para sumas.
type StockMove struct {
	ID           string
	ItemID       string
	LotID        string
	Type         MoveType
	Quantity     decimal.Decimal
	Reason       string
	DocRef       string
	FromLocation string // solo TRANSFER
	ToLocation   string // solo TRANSFER
	CreatedAt    time.Time
	User         string
}
