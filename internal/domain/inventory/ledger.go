package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
)

// MoveInput datos para registrar un movimiento en el libro de stock.
// Quantity se guarda con el signo recibido; el libro no lo normaliza según Type.
type MoveInput struct {
	ID           string
	ItemID       string
	LotID        string
	Type         string
	Quantity     decimal.Decimal
	Reason       string
	DocRef       string
	FromLocation string
	ToLocation   string
	User         string
	CreatedAt    time.Time // cero = momento del registro
}

// ParseMoveType convierte el texto recibido en un MoveType válido (IN, OUT, ADJUST, TRANSFER).
func ParseMoveType(s string) (entity.MoveType, error) {
	t := entity.MoveType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", domain.NewValidationError("type", "tipo de movimiento desconocido: "+s)
	}
	return t, nil
}

// NewStockMove valida la entrada y construye exactamente un registro nuevo del libro.
// Errores: *domain.ValidationError si el tipo no es reconocido o faltan item/lote.
func NewStockMove(in MoveInput) (*entity.StockMove, error) {
	moveType, err := ParseMoveType(in.Type)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ItemID) == "" {
		return nil, domain.NewValidationError("item_id", "requerido")
	}
	if strings.TrimSpace(in.LotID) == "" {
		return nil, domain.NewValidationError("lot_id", "requerido")
	}
	id := in.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &entity.StockMove{
		ID:           id,
		ItemID:       in.ItemID,
		LotID:        in.LotID,
		Type:         moveType,
		Quantity:     in.Quantity,
		Reason:       in.Reason,
		DocRef:       in.DocRef,
		FromLocation: in.FromLocation,
		ToLocation:   in.ToLocation,
		CreatedAt:    createdAt,
		User:         in.User,
	}, nil
}
