package models

import "github.com/shopspring/decimal"

type PageID string

const (
	PageOverview   PageID = "overview"
	PageLocations  PageID = "locations"
	PageCustomers  PageID = "customers"
	PageTimeSeries PageID = "timeseries"
	PageLogistics  PageID = "logistics"
)

// Pages lists every report page in navigation order.
var Pages = []PageID{PageOverview, PageLocations, PageCustomers, PageTimeSeries, PageLogistics}

func (p PageID) Valid() bool {
	for _, known := range Pages {
		if p == known {
			return true
		}
	}
	return false
}

type ValueKind string

const (
	KindCurrency   ValueKind = "currency"
	KindCount      ValueKind = "count"
	KindQuantity   ValueKind = "quantity"
	KindPercentage ValueKind = "percentage"
)

type ChartKind string

const (
	ChartCard     ChartKind = "card"
	ChartBar      ChartKind = "bar"
	ChartHBar     ChartKind = "hbar"
	ChartPie      ChartKind = "pie"
	ChartLine     ChartKind = "line"
	ChartSunburst ChartKind = "sunburst"
)

// Row is one entry of a derived table. Key has one element for flat group-bys
// and two for hierarchical ones (outer first). Label carries a textual value
// for cards such as "top loyal customer"; Kind overrides the table kind.
type Row struct {
	Key   []string        `json:"key"`
	Value decimal.Decimal `json:"value"`
	Label string          `json:"label,omitempty"`
	Kind  ValueKind       `json:"kind,omitempty"`
}

// DerivedTable is a grouped, pivoted or ranked view of the filtered orders
// feeding exactly one chart or group of metric cards.
type DerivedTable struct {
	Name   string    `json:"name"`
	Title  string    `json:"title"`
	Kind   ValueKind `json:"kind"`
	Chart  ChartKind `json:"chart"`
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
	Rows   []Row     `json:"rows"`
}

// RowKind resolves the value kind of a row.
func (d DerivedTable) RowKind(r Row) ValueKind {
	if r.Kind != "" {
		return r.Kind
	}
	return d.Kind
}

// Sum totals every row value.
func (d DerivedTable) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, r := range d.Rows {
		total = total.Add(r.Value)
	}
	return total
}

// Lookup returns the row whose key matches exactly.
func (d DerivedTable) Lookup(key ...string) (Row, bool) {
	for _, r := range d.Rows {
		if len(r.Key) != len(key) {
			continue
		}
		match := true
		for i := range key {
			if r.Key[i] != key[i] {
				match = false
				break
			}
		}
		if match {
			return r, true
		}
	}
	return Row{}, false
}
