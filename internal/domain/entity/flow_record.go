package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FlowRecord es la fila diaria de flujo/diferencias de stock por producto.
// Identidad: (Date, StoreID, ProductCode); se sobreescribe en cada reproceso (upsert).
type FlowRecord struct {
	Date           time.Time
	StoreID        int64
	ProductCode    string
	ProductName    string
	Category       string
	Cost           decimal.Decimal
	Doc            string          // balanço que fijó contagem_realizada; vacío si no hubo conteo
	OpeningBalance decimal.Decimal // saldo_anterior
	Entries        decimal.Decimal // entradas
	Exits          decimal.Decimal // saidas
	ExpectedCount  decimal.Decimal // contagem_ideal
	ActualCount    decimal.Decimal // contagem_realizada
	Difference     decimal.Decimal // diferenca
	UpdatedAt      time.Time
}
