package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario (columna tipo_mov).
const (
	MovementTypeEntrada = "entrada" // entrada de mercadería
	MovementTypeSaida   = "saida"   // salida (venta, consumo, baja)
	MovementTypeBalanco = "balanco" // contagem física: reinicia el saldo del día
)

// Estados de un movimiento.
const (
	MovementStatusVoided = 0
	MovementStatusActive = 1
)

// InventoryMovement representa una fila de movimentacao. Append-only para este motor.
// Quantity es siempre no negativa; la dirección la da Type.
type InventoryMovement struct {
	ID          int64
	StoreID     int64
	ProductCode string
	Date        time.Time // día calendario (00:00 UTC)
	Type        string
	Doc         string
	Quantity    decimal.Decimal
	Status      int
}

// IsActive indica si el movimiento participa de la conciliación.
func (m InventoryMovement) IsActive() bool {
	return m.Status == MovementStatusActive
}

// CountEvent es el último balanço encontrado para un producto (documento + cantidad contada).
type CountEvent struct {
	Doc      string
	Quantity decimal.Decimal
}
