package aggregate

import (
	"cmp"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

type monthYear struct {
	month time.Month
	year  int
}

// MonthYearPivot sums value per (order month, order year). Rows are keyed
// [month name, year] and ordered by calendar month, then year. Combinations
// without orders are omitted.
func MonthYearPivot(t models.Table, value func(models.Order) decimal.Decimal) []models.Row {
	g := groupSum(t, func(o models.Order) monthYear {
		return monthYear{month: o.OrderMonth, year: o.OrderYear}
	}, value)

	entries := g.entries()
	slices.SortFunc(entries, func(a, b entry[monthYear]) int {
		return cmp.Or(
			cmp.Compare(a.key.month, b.key.month),
			cmp.Compare(a.key.year, b.key.year),
		)
	})

	rows := make([]models.Row, len(entries))
	for i, e := range entries {
		rows[i] = models.Row{
			Key:   []string{e.key.month.String(), strconv.Itoa(e.key.year)},
			Value: e.value,
		}
	}
	return rows
}

func SalesByMonthYear(t models.Table) models.DerivedTable {
	return models.DerivedTable{
		Name:   "sales_by_month_year",
		Title:  "Sales Via Month Per Each Year",
		Kind:   models.KindCurrency,
		Chart:  models.ChartLine,
		XLabel: "Month",
		YLabel: "Sales",
		Rows:   MonthYearPivot(t, bySales),
	}
}

func ProfitByMonthYear(t models.Table) models.DerivedTable {
	return models.DerivedTable{
		Name:   "profit_by_month_year",
		Title:  "Profit Via Month Per Each Year",
		Kind:   models.KindCurrency,
		Chart:  models.ChartLine,
		XLabel: "Month",
		YLabel: "Profit",
		Rows:   MonthYearPivot(t, byProfit),
	}
}
