package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo maestro de una tienda (system_unit).
// Identidad: (StoreID, Code). Balance y LastDoc los actualiza solo el escritor de snapshots.
type Product struct {
	StoreID      int64
	Code         string
	Name         string
	Cost         decimal.Decimal // preco_custo
	Category     string
	IsIngredient bool            // insumo: solo estos se controlan en stock
	Balance      decimal.Decimal // saldo persistido
	LastDoc      string          // ultimo_doc aplicado; vacío si nunca hubo balanço
	UpdatedAt    time.Time
}
