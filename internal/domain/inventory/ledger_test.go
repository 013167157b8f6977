package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
	"github.com/jhoicas/bodega-lotes/internal/domain/inventory"
)

func TestParseMoveType(t *testing.T) {
	for in, want := range map[string]entity.MoveType{
		"IN":       entity.MoveTypeIn,
		"out":      entity.MoveTypeOut,
		" Adjust ": entity.MoveTypeAdjust,
		"TRANSFER": entity.MoveTypeTransfer,
	} {
		got, err := inventory.ParseMoveType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "ADJUSTMENT", "SALIDA"} {
		_, err := inventory.ParseMoveType(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, bad)
	}
}

func TestNewStockMove_ConservaSignoYCompletaDefaults(t *testing.T) {
	before := time.Now().UTC()
	mov, err := inventory.NewStockMove(inventory.MoveInput{
		ItemID:   "item-1",
		LotID:    "lot-1",
		Type:     "OUT",
		Quantity: decimal.NewFromInt(-4),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, mov.ID)
	assert.Equal(t, entity.MoveTypeOut, mov.Type)
	assert.True(t, mov.Quantity.Equal(decimal.NewFromInt(-4)))
	assert.False(t, mov.CreatedAt.Before(before))
	assert.Empty(t, mov.Reason)
	assert.Empty(t, mov.DocRef)
	assert.Empty(t, mov.User)
}

func TestNewStockMove_NoNormalizaSigno(t *testing.T) {
	// El libro es permisivo: un OUT positivo o un ADJUST negativo se guardan tal cual.
	for _, tc := range []struct {
		typ string
		q   int64
	}{{"OUT", 3}, {"ADJUST", -2}, {"ADJUST", 2}, {"IN", 7}} {
		mov, err := inventory.NewStockMove(inventory.MoveInput{ItemID: "i", LotID: "l", Type: tc.typ, Quantity: decimal.NewFromInt(tc.q)})
		require.NoError(t, err)
		assert.True(t, mov.Quantity.Equal(decimal.NewFromInt(tc.q)), tc.typ)
	}
}

func TestNewStockMove_RespetaCamposDelCaller(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mov, err := inventory.NewStockMove(inventory.MoveInput{
		ID: "mov-1", ItemID: "i", LotID: "l", Type: "TRANSFER", Quantity: decimal.NewFromInt(2),
		Reason: "reubicación", DocRef: "TR-9", FromLocation: "A1", ToLocation: "B2", User: "ana", CreatedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, "mov-1", mov.ID)
	assert.Equal(t, at, mov.CreatedAt)
	assert.Equal(t, "A1", mov.FromLocation)
	assert.Equal(t, "B2", mov.ToLocation)
	assert.Equal(t, "TR-9", mov.DocRef)
}

func TestNewStockMove_Validaciones(t *testing.T) {
	cases := map[string]inventory.MoveInput{
		"type":    {ItemID: "i", LotID: "l", Type: "MERMA"},
		"item_id": {LotID: "l", Type: "IN"},
		"lot_id":  {ItemID: "i", Type: "IN"},
	}
	for field, in := range cases {
		_, err := inventory.NewStockMove(in)
		var vErr *domain.ValidationError
		require.ErrorAs(t, err, &vErr, field)
		assert.Equal(t, field, vErr.Field)
	}
}

func TestParseExpiryDate(t *testing.T) {
	d, err := inventory.ParseExpiryDate("2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *d)

	d, err = inventory.ParseExpiryDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = inventory.ParseExpiryDate("01/06/2025")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
