package inventory_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/bodega-lotes/internal/domain"
	"github.com/jhoicas/bodega-lotes/internal/domain/entity"
	"github.com/jhoicas/bodega-lotes/internal/domain/inventory"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func lot(id string, remaining int64, expiry *time.Time) *entity.StockLot {
	return &entity.StockLot{
		ID:           id,
		ItemID:       "item-x",
		ExpiryDate:   expiry,
		RemainingQty: decimal.NewNullDecimal(decimal.NewFromInt(remaining)),
	}
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

// assertPicks compara lote y cantidad de cada pick (decimal no se compara con Equal de testify).
func assertPicks(t *testing.T, want []entity.FefoPick, got []entity.FefoPick) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].LotID, got[i].LotID, "pick %d", i)
		assert.True(t, want[i].Qty.Equal(got[i].Qty), "pick %d: esperado %s, obtenido %s", i, want[i].Qty, got[i].Qty)
	}
}

func TestPlanFEFO_TomaPrimeroElQueVenceAntes(t *testing.T) {
	lots := []*entity.StockLot{
		lot("L2", 10, date("2025-06-01")),
		lot("L1", 5, date("2025-01-01")),
	}

	picks, err := inventory.PlanFEFO(lots, qty(8), "")
	require.NoError(t, err)
	assertPicks(t, []entity.FefoPick{{LotID: "L1", Qty: qty(5)}, {LotID: "L2", Qty: qty(3)}}, picks)
}

func TestPlanFEFO_StockInsuficienteNoDevuelvePicks(t *testing.T) {
	lots := []*entity.StockLot{
		lot("L1", 5, date("2025-01-01")),
		lot("L2", 10, date("2025-06-01")),
	}

	picks, err := inventory.PlanFEFO(lots, qty(20), "")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, picks)
}

func TestPlanFEFO_LoteForzadoVaPrimero(t *testing.T) {
	lots := []*entity.StockLot{
		lot("L1", 5, date("2025-01-01")),
		lot("L2", 10, nil),
	}

	picks, err := inventory.PlanFEFO(lots, qty(12), "L2")
	require.NoError(t, err)
	assertPicks(t, []entity.FefoPick{{LotID: "L2", Qty: qty(10)}, {LotID: "L1", Qty: qty(2)}}, picks)
}

func TestPlanFEFO_LoteForzadoCubreTodo(t *testing.T) {
	lots := []*entity.StockLot{
		lot("L1", 5, date("2025-01-01")),
		lot("L2", 10, date("2026-01-01")),
	}

	picks, err := inventory.PlanFEFO(lots, qty(4), "L2")
	require.NoError(t, err)
	assertPicks(t, []entity.FefoPick{{LotID: "L2", Qty: qty(4)}}, picks)
}

func TestPlanFEFO_LoteForzadoParcialNoSeRepite(t *testing.T) {
	lots := []*entity.StockLot{
		lot("L1", 3, date("2025-01-01")),
		lot("L2", 5, date("2024-01-01")),
	}

	picks, err := inventory.PlanFEFO(lots, qty(8), "L1")
	require.NoError(t, err)
	assertPicks(t, []entity.FefoPick{{LotID: "L1", Qty: qty(3)}, {LotID: "L2", Qty: qty(5)}}, picks)

	_, err = inventory.PlanFEFO(lots, qty(9), "L1")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "el lote forzado no debe contarse dos veces")
}

func TestPlanFEFO_LoteForzadoAgotadoOInexistenteSeIgnora(t *testing.T) {
	lots := []*entity.StockLot{
		lot("L0", 0, date("2024-01-01")),
		lot("L1", 5, date("2025-01-01")),
		lot("L2", 10, date("2025-06-01")),
	}

	for _, forced := range []string{"L0", "NO-EXISTE"} {
		picks, err := inventory.PlanFEFO(lots, qty(8), forced)
		require.NoError(t, err, forced)
		assertPicks(t, []entity.FefoPick{{LotID: "L1", Qty: qty(5)}, {LotID: "L2", Qty: qty(3)}}, picks)
	}
}

func TestPlanFEFO_SinVencimientoVaAlFinalEnOrdenDeEntrada(t *testing.T) {
	lots := []*entity.StockLot{
		lot("N1", 2, nil),
		lot("D2", 2, date("2030-12-31")),
		lot("N2", 2, nil),
		lot("D1", 2, date("2025-03-01")),
	}

	picks, err := inventory.PlanFEFO(lots, qty(8), "")
	require.NoError(t, err)
	assertPicks(t, []entity.FefoPick{
		{LotID: "D1", Qty: qty(2)},
		{LotID: "D2", Qty: qty(2)},
		{LotID: "N1", Qty: qty(2)},
		{LotID: "N2", Qty: qty(2)},
	}, picks)
}

func TestPlanFEFO_IgnoraLotesSinCantidadInformada(t *testing.T) {
	lots := []*entity.StockLot{
		{ID: "NULL", ExpiryDate: date("2020-01-01")},
		lot("L1", 4, date("2025-01-01")),
		nil,
	}

	picks, err := inventory.PlanFEFO(lots, qty(4), "")
	require.NoError(t, err)
	assertPicks(t, []entity.FefoPick{{LotID: "L1", Qty: qty(4)}}, picks)
}

func TestPlanFEFO_CantidadNoPositivaDevuelvePlanVacio(t *testing.T) {
	lots := []*entity.StockLot{lot("L1", 5, nil)}

	for _, wanted := range []decimal.Decimal{decimal.Zero, qty(-3)} {
		picks, err := inventory.PlanFEFO(lots, wanted, "L1")
		require.NoError(t, err)
		assert.Empty(t, picks)
	}

	_, err := inventory.PlanFEFO(nil, qty(1), "")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestPlanFEFO_CantidadesDecimales(t *testing.T) {
	lots := []*entity.StockLot{
		{ID: "A", ExpiryDate: date("2025-01-01"), RemainingQty: decimal.NewNullDecimal(decimal.RequireFromString("0.75"))},
		{ID: "B", ExpiryDate: date("2025-02-01"), RemainingQty: decimal.NewNullDecimal(decimal.RequireFromString("2.5"))},
	}

	picks, err := inventory.PlanFEFO(lots, decimal.RequireFromString("1.5"), "")
	require.NoError(t, err)
	assertPicks(t, []entity.FefoPick{
		{LotID: "A", Qty: decimal.RequireFromString("0.75")},
		{LotID: "B", Qty: decimal.RequireFromString("0.75")},
	}, picks)
}

// Propiedades sobre conjuntos aleatorios: suma exacta, picks positivos, orden por vencimiento,
// lote forzado primero y sin duplicados; si no alcanza, error sin picks.
func TestPlanFEFO_PropiedadesAleatorias(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(8)
		lots := make([]*entity.StockLot, 0, n)
		byID := make(map[string]*entity.StockLot, n)
		for i := 0; i < n; i++ {
			var exp *time.Time
			if rng.Intn(4) > 0 {
				d := base.AddDate(0, 0, rng.Intn(400))
				exp = &d
			}
			l := lot(string(rune('A'+i)), int64(rng.Intn(6)), exp)
			lots = append(lots, l)
			byID[l.ID] = l
		}
		forced := ""
		if n > 0 && rng.Intn(2) == 0 {
			forced = lots[rng.Intn(n)].ID
		}
		wanted := qty(int64(rng.Intn(25) + 1))
		total := inventory.TotalAvailable(lots)

		picks, err := inventory.PlanFEFO(lots, wanted, forced)
		if wanted.GreaterThan(total) {
			require.ErrorIs(t, err, domain.ErrInsufficientStock)
			require.Nil(t, picks)
			continue
		}
		require.NoError(t, err)

		sum := decimal.Zero
		seen := map[string]bool{}
		for i, p := range picks {
			require.True(t, p.Qty.IsPositive())
			require.False(t, seen[p.LotID], "lote repetido %s", p.LotID)
			seen[p.LotID] = true
			require.True(t, p.Qty.LessThanOrEqual(byID[p.LotID].Remaining()))
			sum = sum.Add(p.Qty)

			if forced != "" && byID[forced].Available() && i == 0 {
				require.Equal(t, forced, p.LotID)
			}
		}
		require.True(t, sum.Equal(wanted), "suma %s != %s", sum, wanted)

		// Orden FEFO entre los picks no forzados.
		rest := picks
		if len(rest) > 0 && rest[0].LotID == forced {
			rest = rest[1:]
		}
		for i := 1; i < len(rest); i++ {
			prev, cur := byID[rest[i-1].LotID], byID[rest[i].LotID]
			if prev.ExpiryDate == nil {
				require.Nil(t, cur.ExpiryDate, "un lote sin vencimiento no puede ir antes de uno con fecha")
				continue
			}
			if cur.ExpiryDate != nil {
				require.False(t, cur.ExpiryDate.Before(*prev.ExpiryDate))
			}
		}
	}
}
