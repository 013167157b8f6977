package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain"
)

// QuantityScale decimales que guardan las columnas de cantidad (NUMERIC(18,4)).
const QuantityScale = 4

var maxQuantity = decimal.New(1, 18-QuantityScale)

// CheckQuantity rechaza cantidades que el almacenamiento redondearía o no puede representar.
func CheckQuantity(q decimal.Decimal) error {
	if !q.Equal(q.Truncate(QuantityScale)) {
		return domain.NewValidationError("quantity", "admite hasta 4 decimales")
	}
	if q.Abs().GreaterThanOrEqual(maxQuantity) {
		return domain.NewValidationError("quantity", "fuera de rango")
	}
	return nil
}
