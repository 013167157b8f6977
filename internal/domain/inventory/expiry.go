package inventory

import (
	"strings"
	"time"

	"github.com/jhoicas/bodega-lotes/internal/domain"
)

// ParseExpiryDate interpreta la fecha de vencimiento de un lote (YYYY-MM-DD o RFC3339).
// Vacío significa sin vencimiento (nil).
func ParseExpiryDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.NewValidationError("expiry_date", "fecha inválida: "+s)
}
