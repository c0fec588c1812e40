// Package pdf genera el informe de diferencias de un ciclo de inventario.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tienda + Referencia │ Estado + Fechas              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Líneas / Contadas / Avance / Con diferencia        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Lote | Teórico | Contado | Dif | $  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Sobrantes / Faltantes / Neto                       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

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

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorGreen   = &props.Color{Red: 20, Green: 120, Blue: 60}
)

var _ inventory.ReportGenerator = (*MarotoCycleReport)(nil)

// MarotoCycleReport implementa inventory.ReportGenerator usando Maroto v2.
type MarotoCycleReport struct{}

// NewMarotoCycleReport construye el generador.
func NewMarotoCycleReport() *MarotoCycleReport { return &MarotoCycleReport{} }

// GenerateCycleReport genera el PDF y devuelve sus bytes.
func (g *MarotoCycleReport) GenerateCycleReport(_ context.Context, data *inventory.ReportData) ([]byte, error) {
	if data == nil || data.Cycle == nil {
		return nil, fmt.Errorf("pdf: datos de informe vacíos")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Inventaire "+data.Cycle.Reference(), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(data.Stats))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(data.Rows)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(data.Stats))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar informe: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(data *inventory.ReportData) core.Row {
	c := data.Cycle
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(data.StoreName, c.StoreID), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(c.Comment, "Inventaire physique"), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(c.Reference(), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Statut: "+c.Status.String(), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New(datesLabel(c), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func summaryRow(st entity.CycleStats) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Align: align.Center, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Center, Top: 5}),
		)
	}
	return row.New(14).Add(
		cell("Lignes", strconv.Itoa(st.TotalLines)),
		cell("Comptées", strconv.Itoa(st.CountedLines)),
		cell("Avancement", fmt.Sprintf("%d%%", st.Progression)),
		cell("Avec écart", strconv.Itoa(st.LinesWithVariance)),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Produit", 3, align.Left),
		h("Lot", 1, align.Left),
		h("Théorique", 1, align.Right),
		h("Compté", 1, align.Right),
		h("Écart", 1, align.Right),
		h("P.U.", 1, align.Right),
		h("Valeur", 2, align.Right),
	)
}

// tableRows una fila por línea; las no contadas muestran "-".
func tableRows(rows []inventory.ReportRow) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		l := r.Line
		counted, variance, value := "-", "-", "-"
		valueColor := colorGray
		if l.IsCounted && l.CountedQuantity != nil {
			counted = strconv.FormatInt(*l.CountedQuantity, 10)
			variance = strconv.FormatInt(l.Variance, 10)
			value = formatMoney(l.VarianceValue)
			valueColor = signColor(l.VarianceValue)
		}
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
		}
		result = append(result, row.New(7).Add(
			cell(r.SKU, 2, align.Left),
			cell(r.ProductName, 3, align.Left),
			cell(l.LotID, 1, align.Left),
			cell(strconv.FormatInt(l.TheoreticalQuantity, 10), 1, align.Right),
			cell(counted, 1, align.Right),
			cell(variance, 1, align.Right),
			cell(formatMoney(l.UnitCost), 1, align.Right),
			col.New(2).Add(text.New(value, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1, Color: valueColor})),
		))
	}
	return result
}

func totalsRow(st entity.CycleStats) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	net := st.Surplus.Sub(st.Shortage)
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Surplus:"),
			text.New("Manquants:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
			text.New("Net:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 10, Color: colorPrimary}),
		),
		col.New(3).Add(
			text.New(formatMoney(st.Surplus), props.Text{Size: 9, Align: align.Right, Right: 1, Color: colorGreen}),
			text.New(formatMoney(st.Shortage.Neg()), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 5, Color: colorRed}),
			text.New(formatMoney(net), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 1, Top: 10, Color: signColor(net)}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func datesLabel(c *entity.InventoryCycle) string {
	parts := []string{"Créé " + c.CreatedAt.Format("02/01/2006")}
	if c.ValidatedAt != nil {
		parts = append(parts, "validé "+c.ValidatedAt.Format("02/01/2006"))
	} else if c.EndedAt != nil {
		parts = append(parts, "clôturé "+c.EndedAt.Format("02/01/2006"))
	}
	return strings.Join(parts, " · ")
}

func signColor(d decimal.Decimal) *props.Color {
	switch {
	case d.IsPositive():
		return colorGreen
	case d.IsNegative():
		return colorRed
	}
	return colorGray
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney dos decimales con separador de miles por espacio.
// Ej: -1234.5 → "-1 234,50"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}
