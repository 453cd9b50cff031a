// Package presentation turns derived tables into renderer-neutral chart specs.
package presentation

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

var defaultColors = []string{"#067fd6", "#01B075", "#705DDF", "#FF625B"}

// ChartSpec is one of Bar, Pie, Line, Sunburst or Card.
type ChartSpec interface {
	Kind() models.ChartKind
	chartSpec()
}

type Bar struct {
	Title      string    `json:"title"`
	XLabel     string    `json:"x_label,omitempty"`
	YLabel     string    `json:"y_label,omitempty"`
	Horizontal bool      `json:"horizontal"`
	Categories []string  `json:"categories"`
	Values     []float64 `json:"values"`
	Text       []string  `json:"text"`
	Colors     []string  `json:"colors"`
}

type Pie struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Text   []string  `json:"text"`
	Colors []string  `json:"colors"`
	Hole   float64   `json:"hole"`
}

type Point struct {
	X    string  `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Line holds one or more series over a shared x axis. Series may skip x values
// that have no data.
type Line struct {
	Title  string   `json:"title"`
	XLabel string   `json:"x_label,omitempty"`
	YLabel string   `json:"y_label,omitempty"`
	X      []string `json:"x"`
	Series []Series `json:"series"`
}

// Sunburst is a two-level hierarchy in parent-pointer form. Inner nodes carry
// the total of their children.
type Sunburst struct {
	Title   string    `json:"title"`
	IDs     []string  `json:"ids"`
	Labels  []string  `json:"labels"`
	Parents []string  `json:"parents"`
	Values  []float64 `json:"values"`
	Colors  []string  `json:"colors"`
}

type CardItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Card struct {
	Title string     `json:"title"`
	Items []CardItem `json:"items"`
}

func (Bar) Kind() models.ChartKind      { return models.ChartBar }
func (Pie) Kind() models.ChartKind      { return models.ChartPie }
func (Line) Kind() models.ChartKind     { return models.ChartLine }
func (Sunburst) Kind() models.ChartKind { return models.ChartSunburst }
func (Card) Kind() models.ChartKind     { return models.ChartCard }

func (Bar) chartSpec()      {}
func (Pie) chartSpec()      {}
func (Line) chartSpec()     {}
func (Sunburst) chartSpec() {}
func (Card) chartSpec()     {}

// Chart is the serialized form of a spec, tagged with its kind.
type Chart struct {
	Name string           `json:"name"`
	Kind models.ChartKind `json:"kind"`
	Spec ChartSpec        `json:"spec"`
}

// Build maps a derived table onto the chart variant its Chart field names.
func Build(t models.DerivedTable) (ChartSpec, error) {
	switch t.Chart {
	case models.ChartCard:
		return buildCard(t), nil
	case models.ChartBar, models.ChartHBar:
		return buildBar(t), nil
	case models.ChartPie:
		return buildPie(t), nil
	case models.ChartLine:
		return buildLine(t), nil
	case models.ChartSunburst:
		return buildSunburst(t), nil
	default:
		return nil, fmt.Errorf("table %s: unsupported chart kind %q", t.Name, t.Chart)
	}
}

// BuildAll converts every table of a page, keeping their order.
func BuildAll(tables []models.DerivedTable) ([]Chart, error) {
	charts := make([]Chart, 0, len(tables))
	for _, t := range tables {
		spec, err := Build(t)
		if err != nil {
			return nil, err
		}
		charts = append(charts, Chart{Name: t.Name, Kind: spec.Kind(), Spec: spec})
	}
	return charts, nil
}

func buildCard(t models.DerivedTable) Card {
	items := make([]CardItem, len(t.Rows))
	for i, r := range t.Rows {
		items[i] = CardItem{Label: r.Key[0], Value: FormatRow(t, r)}
	}
	return Card{Title: t.Title, Items: items}
}

func buildBar(t models.DerivedTable) Bar {
	bar := Bar{
		Title:      t.Title,
		XLabel:     t.XLabel,
		YLabel:     t.YLabel,
		Horizontal: t.Chart == models.ChartHBar,
		Categories: make([]string, len(t.Rows)),
		Values:     make([]float64, len(t.Rows)),
		Text:       make([]string, len(t.Rows)),
		Colors:     assignColors(len(t.Rows)),
	}
	for i, r := range t.Rows {
		bar.Categories[i] = r.Key[0]
		bar.Values[i] = r.Value.InexactFloat64()
		bar.Text[i] = FormatRow(t, r)
	}
	return bar
}

func buildPie(t models.DerivedTable) Pie {
	pie := Pie{
		Title:  t.Title,
		Labels: make([]string, len(t.Rows)),
		Values: make([]float64, len(t.Rows)),
		Text:   make([]string, len(t.Rows)),
		Colors: assignColors(len(t.Rows)),
		Hole:   0.43,
	}
	for i, r := range t.Rows {
		pie.Labels[i] = r.Key[0]
		pie.Values[i] = r.Value.InexactFloat64()
		pie.Text[i] = FormatRow(t, r)
	}
	return pie
}

func buildLine(t models.DerivedTable) Line {
	line := Line{Title: t.Title, XLabel: t.XLabel, YLabel: t.YLabel}

	if !pivoted(t) {
		series := Series{Name: t.YLabel, Color: defaultColors[0], Points: make([]Point, len(t.Rows))}
		line.X = make([]string, len(t.Rows))
		for i, r := range t.Rows {
			line.X[i] = r.Key[0]
			series.Points[i] = Point{X: r.Key[0], Y: r.Value.InexactFloat64(), Text: FormatRow(t, r)}
		}
		line.Series = []Series{series}
		return line
	}

	// Month x year pivot: one series per year over a Jan..Dec axis.
	line.X = monthAxis()
	byYear := make(map[string][]Point)
	var years []string
	for _, r := range t.Rows {
		year := r.Key[1]
		if _, ok := byYear[year]; !ok {
			years = append(years, year)
		}
		byYear[year] = append(byYear[year], Point{
			X:    abbreviate(r.Key[0]),
			Y:    r.Value.InexactFloat64(),
			Text: FormatRow(t, r),
		})
	}
	slices.SortFunc(years, compareYears)

	line.Series = make([]Series, len(years))
	for i, year := range years {
		line.Series[i] = Series{
			Name:   year,
			Color:  defaultColors[i%len(defaultColors)],
			Points: byYear[year],
		}
	}
	return line
}

func buildSunburst(t models.DerivedTable) Sunburst {
	sb := Sunburst{Title: t.Title, Colors: defaultColors}

	totals := make(map[string]decimal.Decimal)
	var categories []string
	for _, r := range t.Rows {
		if _, ok := totals[r.Key[0]]; !ok {
			categories = append(categories, r.Key[0])
		}
		totals[r.Key[0]] = totals[r.Key[0]].Add(r.Value)
	}

	for _, c := range categories {
		sb.IDs = append(sb.IDs, c)
		sb.Labels = append(sb.Labels, c)
		sb.Parents = append(sb.Parents, "")
		sb.Values = append(sb.Values, totals[c].InexactFloat64())
	}
	for _, r := range t.Rows {
		sb.IDs = append(sb.IDs, r.Key[0]+"/"+r.Key[1])
		sb.Labels = append(sb.Labels, r.Key[1])
		sb.Parents = append(sb.Parents, r.Key[0])
		sb.Values = append(sb.Values, r.Value.InexactFloat64())
	}
	return sb
}

func pivoted(t models.DerivedTable) bool {
	return len(t.Rows) > 0 && len(t.Rows[0].Key) == 2
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := range colors {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}

func monthAxis() []string {
	axis := make([]string, 0, 12)
	for m := time.January; m <= time.December; m++ {
		axis = append(axis, m.String()[:3])
	}
	return axis
}

func abbreviate(month string) string {
	if len(month) < 3 {
		return month
	}
	return month[:3]
}

func compareYears(a, b string) int {
	ya, errA := strconv.Atoi(a)
	yb, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return cmp.Compare(a, b)
	}
	return cmp.Compare(ya, yb)
}
