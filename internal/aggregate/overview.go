package aggregate

import (
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

const (
	CardTotalSales     = "Total Sales"
	CardTotalProfit    = "Total Profit"
	CardTotalQuantity  = "Total Volumes"
	CardTotalCustomers = "Total Customers"
)

type Totals struct {
	Sales     decimal.Decimal
	Profit    decimal.Decimal
	Quantity  int
	Customers int
}

// ComputeTotals sums sales, profit and quantity and counts distinct customers.
func ComputeTotals(t models.Table) Totals {
	totals := Totals{Sales: decimal.Zero, Profit: decimal.Zero}
	for _, o := range t {
		totals.Sales = totals.Sales.Add(o.Sales)
		totals.Profit = totals.Profit.Add(o.Profit)
		totals.Quantity += o.Quantity
	}
	totals.Customers = distinct(t, customerID)
	return totals
}

func (t Totals) Table() models.DerivedTable {
	return models.DerivedTable{
		Name:  "totals",
		Title: "Sales Dashboard",
		Kind:  models.KindCurrency,
		Chart: models.ChartCard,
		Rows: []models.Row{
			{Key: []string{CardTotalSales}, Value: t.Sales},
			{Key: []string{CardTotalProfit}, Value: t.Profit},
			{Key: []string{CardTotalQuantity}, Value: decimal.NewFromInt(int64(t.Quantity)), Kind: models.KindQuantity},
			{Key: []string{CardTotalCustomers}, Value: decimal.NewFromInt(int64(t.Customers)), Kind: models.KindCount},
		},
	}
}

// SalesByRegion ranks regions by total sales, largest first.
func SalesByRegion(t models.Table) models.DerivedTable {
	g := groupSum(t, region, bySales)
	return models.DerivedTable{
		Name:   "sales_by_region",
		Title:  "Total Sales Via Regions",
		Kind:   models.KindCurrency,
		Chart:  models.ChartBar,
		XLabel: "Region",
		YLabel: "Sales",
		Rows:   rowsOf(g.descending(), identity),
	}
}

// SalesBySegment keeps segments in first-seen order.
func SalesBySegment(t models.Table) models.DerivedTable {
	g := groupSum(t, segment, bySales)
	return models.DerivedTable{
		Name:  "sales_by_segment",
		Title: "Sales By Customer Segmentation",
		Kind:  models.KindCurrency,
		Chart: models.ChartPie,
		Rows:  rowsOf(g.entries(), identity),
	}
}

func SalesByCategory(t models.Table) models.DerivedTable {
	g := groupSum(t, category, bySales)
	return models.DerivedTable{
		Name:  "sales_by_category",
		Title: "Total Sales By Category",
		Kind:  models.KindCurrency,
		Chart: models.ChartPie,
		Rows:  rowsOf(g.entries(), identity),
	}
}

// ProfitByYear sums profit per order year, ascending by year, rounded half to
// even to whole currency units.
func ProfitByYear(t models.Table) models.DerivedTable {
	entries := yearly(t, byProfit)
	rows := make([]models.Row, len(entries))
	for i, e := range entries {
		rows[i] = models.Row{Key: []string{strconv.Itoa(e.key)}, Value: e.value.RoundBank(0)}
	}
	return models.DerivedTable{
		Name:   "profit_by_year",
		Title:  "Total Profit Via Years",
		Kind:   models.KindCurrency,
		Chart:  models.ChartLine,
		XLabel: "Year",
		YLabel: "Total Profit",
		Rows:   rows,
	}
}

func yearly(t models.Table, value func(models.Order) decimal.Decimal) []entry[int] {
	entries := groupSum(t, orderYear, value).entries()
	slices.SortFunc(entries, func(a, b entry[int]) int {
		return a.key - b.key
	})
	return entries
}
