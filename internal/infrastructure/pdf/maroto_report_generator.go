// Package pdf genera el relatorio de diferencias de stock de una tienda.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Unidad + tabla       │  Período + fecha de emisión  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Data | Produto | Nome | Saldo | Ent | Saí | ...      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: diferencia en cantidad y valorizada a costo        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/fluxo-estoque/internal/domain/entity"
	domaininv "github.com/jhoicas/fluxo-estoque/internal/domain/inventory"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary  = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorNegative = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// Report datos del relatorio.
type Report struct {
	StoreID     int64
	StoreName   string
	Table       string
	Window      domaininv.Window
	Records     []*entity.FlowRecord
	GeneratedAt time.Time
}

// Totals agregado del relatorio.
type Totals struct {
	Rows             int
	CountedRows      int
	Difference       decimal.Decimal
	DifferenceAtCost decimal.Decimal
}

// Summarize suma diferencias; la valorizada usa preco_custo de cada fila.
func Summarize(records []*entity.FlowRecord) Totals {
	t := Totals{Difference: decimal.Zero, DifferenceAtCost: decimal.Zero}
	for _, r := range records {
		t.Rows++
		if r.Doc != "" {
			t.CountedRows++
		}
		t.Difference = t.Difference.Add(r.Difference)
		t.DifferenceAtCost = t.DifferenceAtCost.Add(r.Difference.Mul(r.Cost))
	}
	return t
}

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator genera el relatorio con Maroto v2 y números en formato pt-BR.
type MarotoReportGenerator struct {
	printer *message.Printer
}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator {
	return &MarotoReportGenerator{printer: message.NewPrinter(language.BrazilianPortuguese)}
}

// RenderFlowReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) RenderFlowReport(_ context.Context, rep Report) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(8).WithRightMargin(8).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("Relatório de diferenças de estoque", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	for _, r := range g.detailRows(rep.Records) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(Summarize(rep.Records)))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar relatorio: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *MarotoReportGenerator) headerRow(rep Report) core.Row {
	name := rep.StoreName
	if name == "" {
		name = fmt.Sprintf("Unidade %d", rep.StoreID)
	}
	generated := rep.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return row.New(16).Add(
		col.New(7).Add(
			text.New(norm.NFC.String(name), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Tabela: "+rep.Table, props.Text{Size: 8, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("Período: "+formatDate(rep.Window.From)+" a "+formatDate(rep.Window.To), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1,
			}),
			text.New("Emitido em "+generated.Format("02/01/2006 15:04"), props.Text{
				Size: 7, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 7, Align: a, Color: colorPrimary, Top: 2,
		}))
	}
	return row.New(7).Add(
		h("Data", 1, align.Left),
		h("Produto", 1, align.Left),
		h("Nome", 3, align.Left),
		h("Saldo ant.", 1, align.Right),
		h("Entradas", 1, align.Right),
		h("Saídas", 1, align.Right),
		h("Ideal", 1, align.Right),
		h("Realizada", 1, align.Right),
		h("Diferença", 2, align.Right),
	)
}

func (g *MarotoReportGenerator) detailRows(records []*entity.FlowRecord) []core.Row {
	out := make([]core.Row, 0, len(records))
	for _, r := range records {
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 7, Align: a, Top: 1}))
		}
		diffProps := props.Text{Size: 7, Align: align.Right, Top: 1, Style: fontstyle.Bold}
		if r.Difference.IsNegative() {
			diffProps.Color = colorNegative
		}
		out = append(out, row.New(5).Add(
			cell(formatDate(r.Date), 1, align.Left),
			cell(r.ProductCode, 1, align.Left),
			cell(norm.NFC.String(r.ProductName), 3, align.Left),
			cell(g.FormatQty(r.OpeningBalance), 1, align.Right),
			cell(g.FormatQty(r.Entries), 1, align.Right),
			cell(g.FormatQty(r.Exits), 1, align.Right),
			cell(g.FormatQty(r.ExpectedCount), 1, align.Right),
			cell(g.FormatQty(r.ActualCount), 1, align.Right),
			col.New(2).Add(text.New(g.FormatQty(r.Difference), diffProps)),
		))
	}
	return out
}

func (g *MarotoReportGenerator) totalsRow(t Totals) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Right: 2})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 8, Align: align.Right, Right: 1})
	}
	return row.New(18).Add(
		col.New(6).Add(text.New(fmt.Sprintf("%d linhas, %d com contagem", t.Rows, t.CountedRows), props.Text{
			Size: 7, Color: colorGray, Top: 1,
		})),
		col.New(3).Add(
			label("Diferença total:"),
		),
		col.New(3).Add(
			value(g.FormatQty(t.Difference)),
			text.New("R$ "+g.FormatMoney(t.DifferenceAtCost), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 6, Right: 1,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// FormatQty cantidad con tres decimales en formato pt-BR (1.234,500).
func (g *MarotoReportGenerator) FormatQty(d decimal.Decimal) string {
	return g.printer.Sprintf("%.3f", d.Round(domaininv.QuantityScale).InexactFloat64())
}

// FormatMoney valor con dos decimales en formato pt-BR.
func (g *MarotoReportGenerator) FormatMoney(d decimal.Decimal) string {
	return g.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}
