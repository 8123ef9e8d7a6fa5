package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
)

// QuantityScale decimales con los que se persisten las cantidades (NUMERIC(18,3)).
const QuantityScale = 3

// Seed es el saldo con el que arranca la ventana y el documento que lo originó.
type Seed struct {
	Balance decimal.Decimal
	Doc     string
}

// SeedFrom convierte el último balanço anterior a la ventana en semilla; sin conteo arranca en cero.
func SeedFrom(c *entity.CountEvent) Seed {
	if c == nil {
		return Seed{Balance: decimal.Zero}
	}
	return Seed{Balance: c.Quantity, Doc: c.Doc}
}

// DayFlow resultado de la conciliación de un día.
type DayFlow struct {
	Date           time.Time
	OpeningBalance decimal.Decimal
	Entries        decimal.Decimal
	Exits          decimal.Decimal
	ExpectedCount  decimal.Decimal
	ActualCount    decimal.Decimal
	Difference     decimal.Decimal
	Counted        bool   // el día fue fijado por un balanço
	CountDoc       string // documento del balanço del día
	DuplicateCount bool   // el día tuvo más de un balanço
}

// Result salida completa del fold para un producto.
type Result struct {
	Days           []DayFlow
	ClosingBalance decimal.Decimal
	LastDoc        string // último balanço aplicado (de la ventana o de la semilla)
	CountInWindow  bool   // hubo al menos un balanço dentro de la ventana
}

// Reconcile recorre los buckets en orden cronológico a partir del saldo semilla:
//
//	contagem_ideal     = saldo_anterior + entradas - saidas
//	contagem_realizada = conteo del día si existe, si no contagem_ideal
//	diferenca          = contagem_realizada - contagem_ideal
//
// El saldo que se arrastra al día siguiente es contagem_realizada.
func Reconcile(seed Seed, buckets []DayBucket) Result {
	balance := seed.Balance.Round(QuantityScale)
	res := Result{
		Days:    make([]DayFlow, 0, len(buckets)),
		LastDoc: seed.Doc,
	}

	for _, b := range buckets {
		opening := balance
		entries := b.Entries.Round(QuantityScale)
		exits := b.Exits.Round(QuantityScale)
		expected := opening.Add(entries).Sub(exits)

		day := DayFlow{
			Date:           b.Date,
			OpeningBalance: opening,
			Entries:        entries,
			Exits:          exits,
			ExpectedCount:  expected,
		}

		if b.Count != nil {
			actual := b.Count.Quantity.Round(QuantityScale)
			day.ActualCount = actual
			day.Difference = actual.Sub(expected)
			day.CountDoc = b.Count.Doc
			day.DuplicateCount = b.CountEvents > 1
			day.Counted = true
			res.LastDoc = b.Count.Doc
			res.CountInWindow = true
			balance = actual
		} else {
			day.ActualCount = expected
			day.Difference = decimal.Zero
			balance = expected
		}
		res.Days = append(res.Days, day)
	}

	res.ClosingBalance = balance
	return res
}
