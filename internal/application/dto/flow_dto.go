package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
)

// FlowRecordResponse fila de fluxo_estoque / diferencas_estoque.
type FlowRecordResponse struct {
	Data              string          `json:"data"`
	StoreID           int64           `json:"system_unit_id"`
	Produto           string          `json:"produto"`
	NomeProduto       string          `json:"nome_produto"`
	Categoria         string          `json:"categoria"`
	PrecoCusto        decimal.Decimal `json:"preco_custo"`
	Doc               string          `json:"doc,omitempty"`
	SaldoAnterior     decimal.Decimal `json:"saldo_anterior"`
	Entradas          decimal.Decimal `json:"entradas"`
	Saidas            decimal.Decimal `json:"saidas"`
	ContagemIdeal     decimal.Decimal `json:"contagem_ideal"`
	ContagemRealizada decimal.Decimal `json:"contagem_realizada"`
	Diferenca         decimal.Decimal `json:"diferenca"`
}

// FlowListResponse registros de una tienda en una ventana.
type FlowListResponse struct {
	StoreID  int64                `json:"system_unit_id"`
	Tabela   string               `json:"tabela"`
	DtInicio string               `json:"dt_inicio"`
	DtFim    string               `json:"dt_fim"`
	Items    []FlowRecordResponse `json:"items"`
}

// ToFlowRecordResponse convierte una entidad.
func ToFlowRecordResponse(r *entity.FlowRecord) FlowRecordResponse {
	return FlowRecordResponse{
		Data:              domaininv.DateKey(r.Date),
		StoreID:           r.StoreID,
		Produto:           r.ProductCode,
		NomeProduto:       r.ProductName,
		Categoria:         r.Category,
		PrecoCusto:        r.Cost,
		Doc:               r.Doc,
		SaldoAnterior:     r.OpeningBalance,
		Entradas:          r.Entries,
		Saidas:            r.Exits,
		ContagemIdeal:     r.ExpectedCount,
		ContagemRealizada: r.ActualCount,
		Diferenca:         r.Difference,
	}
}
