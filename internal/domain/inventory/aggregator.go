package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
)

// DayBucket agrupa los movimientos de un producto en un día calendario.
// Count es el último balanço del día en orden de lectura; nil si no hubo conteo.
type DayBucket struct {
	Date        time.Time
	Entries     decimal.Decimal
	Exits       decimal.Decimal
	Count       *entity.CountEvent
	CountEvents int // cantidad de balanços del día (>1 = conteo duplicado, gana el último)
}

// HasCount indica si el día tuvo al menos un conteo físico.
func (b DayBucket) HasCount() bool {
	return b.Count != nil
}

// AggregateDaily agrupa movimientos ya ordenados por (data, id) en un bucket por día.
// Solo los días con movimientos producen bucket; el orden de salida es el de primera aparición.
// Movimientos anulados o de tipo desconocido se ignoran.
func AggregateDaily(movs []entity.InventoryMovement) []DayBucket {
	buckets := make([]DayBucket, 0)
	index := make(map[string]int)

	for _, m := range movs {
		if !m.IsActive() {
			continue
		}
		switch m.Type {
		case entity.MovementTypeEntrada, entity.MovementTypeSaida, entity.MovementTypeBalanco:
		default:
			continue
		}

		key := DateKey(m.Date)
		i, ok := index[key]
		if !ok {
			buckets = append(buckets, DayBucket{
				Date:    DateOnly(m.Date),
				Entries: decimal.Zero,
				Exits:   decimal.Zero,
			})
			i = len(buckets) - 1
			index[key] = i
		}

		b := &buckets[i]
		switch m.Type {
		case entity.MovementTypeEntrada:
			b.Entries = b.Entries.Add(m.Quantity)
		case entity.MovementTypeSaida:
			b.Exits = b.Exits.Add(m.Quantity)
		case entity.MovementTypeBalanco:
			b.Count = &entity.CountEvent{Doc: m.Doc, Quantity: m.Quantity}
			b.CountEvents++
		}
	}
	return buckets
}
