package http

import (
	"github.com/jhoicas/bodega-lotes/internal/application/dto"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
)

func toPickResponses(picks []entity.FefoPick) []dto.FefoPickResponse {
	out := make([]dto.FefoPickResponse, 0, len(picks))
	for _, p := range picks {
		out = append(out, dto.FefoPickResponse{LotID: p.LotID, Qty: p.Qty})
	}
	return out
}

func toLotResponse(l *entity.StockLot) dto.LotResponse {
	r := dto.LotResponse{
		ID:        l.ID,
		ItemID:    l.ItemID,
		LotCode:   l.LotCode,
		Location:  l.Location,
		Version:   l.Version,
		UpdatedAt: l.UpdatedAt,
	}
	if l.ExpiryDate != nil {
		s := l.ExpiryDate.Format("2006-01-02")
		r.ExpiryDate = &s
	}
	if l.RemainingQty.Valid {
		q := l.RemainingQty.Decimal
		r.RemainingQty = &q
	}
	return r
}

func toLotResponses(lots []*entity.StockLot) []dto.LotResponse {
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		if l != nil {
			out = append(out, toLotResponse(l))
		}
	}
	return out
}

func toMoveResponses(moves []*entity.StockMove) []dto.StockMoveResponse {
	out := make([]dto.StockMoveResponse, 0, len(moves))
	for _, m := range moves {
		out = append(out, dto.StockMoveResponse{
			ID:           m.ID,
			ItemID:       m.ItemID,
			LotID:        m.LotID,
			Type:         m.Type.String(),
			Quantity:     m.Quantity,
			Reason:       m.Reason,
			DocRef:       m.DocRef,
			FromLocation: m.FromLocation,
			ToLocation:   m.ToLocation,
			User:         m.User,
			CreatedAt:    m.CreatedAt,
		})
	}
	return out
}
