package inventory_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	"github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func day(s string) time.Time {
	t, err := time.Parse(inventory.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mov(id int64, date, typ, qty, doc string) entity.InventoryMovement {
	return entity.InventoryMovement{
		ID:          id,
		StoreID:     1,
		ProductCode: "P-01",
		Date:        day(date),
		Type:        typ,
		Doc:         doc,
		Quantity:    dec(qty),
		Status:      entity.MovementStatusActive,
	}
}

// scenarioMovements tienda de ejemplo: 16 entra 20 sale 5, 17 sale 10 y se cuenta 100, 18 entra 5.
func scenarioMovements() []entity.InventoryMovement {
	return []entity.InventoryMovement{
		mov(1, "2025-05-16", entity.MovementTypeEntrada, "20", "NF-1"),
		mov(2, "2025-05-16", entity.MovementTypeSaida, "5", "V-1"),
		mov(3, "2025-05-17", entity.MovementTypeSaida, "10", "V-2"),
		mov(4, "2025-05-17", entity.MovementTypeBalanco, "100", "B-17"),
		mov(5, "2025-05-18", entity.MovementTypeEntrada, "5", "NF-2"),
	}
}

func renderResult(res inventory.Result) []byte {
	var sb strings.Builder
	for _, d := range res.Days {
		doc := d.CountDoc
		if doc == "" {
			doc = "-"
		}
		fmt.Fprintf(&sb, "%s saldo=%s entradas=%s saidas=%s ideal=%s realizada=%s diferenca=%s doc=%s\n",
			inventory.DateKey(d.Date),
			d.OpeningBalance.StringFixed(3),
			d.Entries.StringFixed(3),
			d.Exits.StringFixed(3),
			d.ExpectedCount.StringFixed(3),
			d.ActualCount.StringFixed(3),
			d.Difference.StringFixed(3),
			doc,
		)
	}
	fmt.Fprintf(&sb, "fechamento=%s ultimo_doc=%s\n", res.ClosingBalance.StringFixed(3), res.LastDoc)
	return []byte(sb.String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests Reconcile
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_EscenarioTresDias(t *testing.T) {
	seed := inventory.SeedFrom(&entity.CountEvent{Doc: "B-0", Quantity: dec("100")})
	res := inventory.Reconcile(seed, inventory.AggregateDaily(scenarioMovements()))

	require.Len(t, res.Days, 3)

	d16 := res.Days[0]
	assert.True(t, d16.OpeningBalance.Equal(dec("100")))
	assert.True(t, d16.ExpectedCount.Equal(dec("115")))
	assert.True(t, d16.ActualCount.Equal(dec("115")))
	assert.True(t, d16.Difference.IsZero())
	assert.False(t, d16.Counted)

	d17 := res.Days[1]
	assert.True(t, d17.OpeningBalance.Equal(dec("115")), "el saldo del 17 arrastra el realizado del 16")
	assert.True(t, d17.ExpectedCount.Equal(dec("105")))
	assert.True(t, d17.ActualCount.Equal(dec("100")))
	assert.True(t, d17.Difference.Equal(dec("-5")))
	assert.True(t, d17.Counted)
	assert.Equal(t, "B-17", d17.CountDoc)

	d18 := res.Days[2]
	assert.True(t, d18.OpeningBalance.Equal(dec("100")), "el conteo del 17 fija el saldo del 18")
	assert.True(t, d18.ExpectedCount.Equal(dec("105")))
	assert.True(t, d18.Difference.IsZero())

	assert.True(t, res.ClosingBalance.Equal(dec("105")))
	assert.Equal(t, "B-17", res.LastDoc)
	assert.True(t, res.CountInWindow)
}

func TestReconcile_Golden(t *testing.T) {
	seed := inventory.SeedFrom(&entity.CountEvent{Doc: "B-0", Quantity: dec("100")})
	res := inventory.Reconcile(seed, inventory.AggregateDaily(scenarioMovements()))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "reconcile_tres_dias", renderResult(res))
}

// Continuidad: saldo_anterior[d+1] == contagem_realizada[d] para cualquier secuencia.
func TestReconcile_Continuidad(t *testing.T) {
	movs := []entity.InventoryMovement{
		mov(1, "2025-05-10", entity.MovementTypeEntrada, "3.5", "NF-1"),
		mov(2, "2025-05-11", entity.MovementTypeBalanco, "2", "B-1"),
		mov(3, "2025-05-11", entity.MovementTypeSaida, "1.25", "V-1"),
		mov(4, "2025-05-13", entity.MovementTypeSaida, "4", "V-2"),
		mov(5, "2025-05-14", entity.MovementTypeEntrada, "0.001", "NF-2"),
		mov(6, "2025-05-15", entity.MovementTypeBalanco, "7", "B-2"),
	}
	res := inventory.Reconcile(inventory.SeedFrom(nil), inventory.AggregateDaily(movs))

	require.Len(t, res.Days, 5)
	for i := 1; i < len(res.Days); i++ {
		assert.True(t, res.Days[i].OpeningBalance.Equal(res.Days[i-1].ActualCount),
			"día %s debe arrancar con el realizado del día anterior", inventory.DateKey(res.Days[i].Date))
	}
	assert.True(t, res.ClosingBalance.Equal(res.Days[len(res.Days)-1].ActualCount))
}

// Sin conteo: realizado == ideal y diferencia 0 en todos los días.
func TestReconcile_SinConteo(t *testing.T) {
	movs := []entity.InventoryMovement{
		mov(1, "2025-05-10", entity.MovementTypeEntrada, "10", "NF-1"),
		mov(2, "2025-05-11", entity.MovementTypeSaida, "15", "V-1"),
	}
	res := inventory.Reconcile(inventory.Seed{Balance: dec("2")}, inventory.AggregateDaily(movs))

	for _, d := range res.Days {
		assert.True(t, d.ActualCount.Equal(d.ExpectedCount))
		assert.True(t, d.Difference.IsZero())
	}
	assert.True(t, res.ClosingBalance.Equal(dec("-3")), "el saldo puede quedar negativo sin conteo")
	assert.False(t, res.CountInWindow)
	assert.Empty(t, res.LastDoc)
}

// El conteo fija el realizado aunque el día tenga entradas y salidas.
func TestReconcile_ConteoSobrescribe(t *testing.T) {
	movs := []entity.InventoryMovement{
		mov(1, "2025-05-10", entity.MovementTypeEntrada, "10", "NF-1"),
		mov(2, "2025-05-10", entity.MovementTypeBalanco, "4", "B-1"),
		mov(3, "2025-05-10", entity.MovementTypeSaida, "1", "V-1"),
	}
	res := inventory.Reconcile(inventory.Seed{Balance: dec("0")}, inventory.AggregateDaily(movs))

	require.Len(t, res.Days, 1)
	d := res.Days[0]
	assert.True(t, d.ExpectedCount.Equal(dec("9")))
	assert.True(t, d.ActualCount.Equal(dec("4")))
	assert.True(t, d.Difference.Equal(dec("-5")))
}

func TestReconcile_SinBuckets(t *testing.T) {
	res := inventory.Reconcile(inventory.Seed{Balance: dec("12"), Doc: "B-9"}, nil)
	assert.Empty(t, res.Days)
	assert.True(t, res.ClosingBalance.Equal(dec("12")))
	assert.Equal(t, "B-9", res.LastDoc)
}

func TestReconcile_RedondeaATresDecimales(t *testing.T) {
	movs := []entity.InventoryMovement{
		mov(1, "2025-05-10", entity.MovementTypeEntrada, "1.00049", "NF-1"),
	}
	res := inventory.Reconcile(inventory.Seed{Balance: dec("0.0004")}, inventory.AggregateDaily(movs))
	require.Len(t, res.Days, 1)
	assert.Equal(t, "1.000", res.Days[0].ExpectedCount.StringFixed(3))
}

func TestSeedFrom_SinConteoArrancaEnCero(t *testing.T) {
	s := inventory.SeedFrom(nil)
	assert.True(t, s.Balance.IsZero())
	assert.Empty(t, s.Doc)
}
