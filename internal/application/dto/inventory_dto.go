package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationPlanRequest cuerpo de POST /api/items/:id/allocation-plan.
type AllocationPlanRequest struct {
	Quantity    decimal.Decimal `json:"quantity"`
	ForcedLotID string          `json:"forced_lot_id" validate:"omitempty,max=64"`
}

// WithdrawRequest cuerpo de POST /api/items/:id/withdrawals.
type WithdrawRequest struct {
	Quantity    decimal.Decimal `json:"quantity"`
	ForcedLotID string          `json:"forced_lot_id" validate:"omitempty,max=64"`
	Reason      string          `json:"reason" validate:"max=255"`
	DocRef      string          `json:"doc_ref" validate:"max=64"`
}

// ReceiveLotRequest cuerpo de POST /api/lots (entrada de mercancía).
// Sin lot_id crea un lote; con lot_id suma al existente.
type ReceiveLotRequest struct {
	ItemID     string          `json:"item_id" validate:"required,max=64"`
	LotID      string          `json:"lot_id" validate:"omitempty,max=64"`
	LotCode    string          `json:"lot_code" validate:"max=64"`
	Location   string          `json:"location" validate:"max=64"`
	ExpiryDate string          `json:"expiry_date"` // YYYY-MM-DD o RFC3339; vacío = sin vencimiento
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason" validate:"max=255"`
	DocRef     string          `json:"doc_ref" validate:"max=64"`
}

// AdjustLotRequest cuerpo de POST /api/lots/:id/adjustments. Quantity con signo.
type AdjustLotRequest struct {
	ItemID   string          `json:"item_id" validate:"required,max=64"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason" validate:"required,max=255"`
	DocRef   string          `json:"doc_ref" validate:"max=64"`
}

// TransferLotRequest cuerpo de POST /api/lots/:id/transfers.
type TransferLotRequest struct {
	ItemID     string          `json:"item_id" validate:"required,max=64"`
	ToLocation string          `json:"to_location" validate:"required,max=64"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason" validate:"max=255"`
	DocRef     string          `json:"doc_ref" validate:"max=64"`
}

// FefoPickResponse un paso del plan.
type FefoPickResponse struct {
	LotID string          `json:"lot_id"`
	Qty   decimal.Decimal `json:"qty"`
}

// AllocationPlanResponse plan FEFO sin aplicar.
type AllocationPlanResponse struct {
	ItemID string             `json:"item_id"`
	Picks  []FefoPickResponse `json:"picks"`
}

// LotResponse lote de stock. remaining_qty null = sin valor registrado.
type LotResponse struct {
	ID           string           `json:"id"`
	ItemID       string           `json:"item_id"`
	LotCode      string           `json:"lot_code"`
	Location     string           `json:"location"`
	ExpiryDate   *string          `json:"expiry_date"`
	RemainingQty *decimal.Decimal `json:"remaining_qty"`
	Version      int64            `json:"version"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// StockMoveResponse movimiento del libro.
type StockMoveResponse struct {
	ID           string          `json:"id"`
	ItemID       string          `json:"item_id"`
	LotID        string          `json:"lot_id"`
	Type         string          `json:"type"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason,omitempty"`
	DocRef       string          `json:"doc_ref,omitempty"`
	FromLocation string          `json:"from_location,omitempty"`
	ToLocation   string          `json:"to_location,omitempty"`
	User         string          `json:"user,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MovementResponse resultado de un retiro o movimiento aplicado.
// recalculated=false: el movimiento quedó confirmado pero stock_current no se pudo actualizar todavía.
type MovementResponse struct {
	ItemID       string              `json:"item_id"`
	Picks        []FefoPickResponse  `json:"picks,omitempty"`
	Lots         []LotResponse       `json:"lots,omitempty"`
	Moves        []StockMoveResponse `json:"moves"`
	StockCurrent decimal.Decimal     `json:"stock_current"`
	Recalculated bool                `json:"recalculated"`
}

// ItemStockResponse stock actual del ítem.
type ItemStockResponse struct {
	ItemID       string          `json:"item_id"`
	SKU          string          `json:"sku,omitempty"`
	Name         string          `json:"name,omitempty"`
	StockCurrent decimal.Decimal `json:"stock_current"`
	Cached       bool            `json:"cached"`
}

// RecalculateResponse resultado de POST /api/items/:id/recalculate.
type RecalculateResponse struct {
	ItemID       string           `json:"item_id"`
	StockCurrent *decimal.Decimal `json:"stock_current,omitempty"`
	Queued       bool             `json:"queued"`
}
