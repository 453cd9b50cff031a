package aggregate

import (
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

const TopStatesLimit = 10

const (
	CardRegions       = "Regions"
	CardStates        = "States"
	CardTopOrderState = "Top Order State"
)

// LocationSummary counts distinct regions and states and names the state with
// the most line items. Ties go to the state seen first.
func LocationSummary(t models.Table) models.DerivedTable {
	top := models.Row{Key: []string{CardTopOrderState}, Value: decimal.Zero, Kind: models.KindCount}
	if name, count, ok := groupCount(t, state).argmax(); ok {
		top.Label = name
		top.Value = count
	}

	return models.DerivedTable{
		Name:  "location_summary",
		Title: "Locations",
		Kind:  models.KindCount,
		Chart: models.ChartCard,
		Rows: []models.Row{
			{Key: []string{CardRegions}, Value: decimal.NewFromInt(int64(distinct(t, region)))},
			{Key: []string{CardStates}, Value: decimal.NewFromInt(int64(distinct(t, state)))},
			top,
		},
	}
}

// StateSales ranks every state by total sales, largest first, ties in
// first-seen order.
func StateSales(t models.Table) models.DerivedTable {
	g := groupSum(t, state, bySales)
	return models.DerivedTable{
		Name:   "state_sales",
		Title:  "Sales Via State",
		Kind:   models.KindCurrency,
		Chart:  models.ChartHBar,
		XLabel: "Total Sales",
		YLabel: "State",
		Rows:   rowsOf(g.descending(), identity),
	}
}

// TopStates is the first n entries of StateSales. A negative n yields no rows.
func TopStates(t models.Table, n int) models.DerivedTable {
	n = max(n, 0)
	ranking := StateSales(t)
	if len(ranking.Rows) > n {
		ranking.Rows = ranking.Rows[:n]
	}
	ranking.Name = "top_states"
	ranking.Title = "Top 10 States Via Sales"
	return ranking
}
