package aggregate

import (
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

const (
	CardAvgSalesPerOrder  = "Avg Sales / Order"
	CardAvgProfitPerOrder = "Avg Profit / Order"
	CardTotalOrders       = "Total Orders"
)

// OrderAverages returns the mean over orders of each order's total sales and
// total profit.
func OrderAverages(t models.Table) (sales, profit decimal.Decimal) {
	salesByOrder := groupSum(t, orderID, bySales)
	profitByOrder := groupSum(t, orderID, byProfit)
	return mean(salesByOrder.total(), salesByOrder.len()),
		mean(profitByOrder.total(), profitByOrder.len())
}

func LogisticsSummary(t models.Table) models.DerivedTable {
	avgSales, avgProfit := OrderAverages(t)
	return models.DerivedTable{
		Name:  "logistics_summary",
		Title: "Logistics",
		Kind:  models.KindCurrency,
		Chart: models.ChartCard,
		Rows: []models.Row{
			{Key: []string{CardAvgSalesPerOrder}, Value: avgSales},
			{Key: []string{CardAvgProfitPerOrder}, Value: avgProfit},
			{Key: []string{CardTotalOrders}, Value: decimal.NewFromInt(int64(distinct(t, orderID))), Kind: models.KindCount},
		},
	}
}

type categoryPair struct {
	category    string
	subCategory string
}

// CategorySubcategoryQuantity sums quantity per (category, sub-category).
// Categories appear in first-seen order with their sub-categories nested
// beneath them, also in first-seen order.
func CategorySubcategoryQuantity(t models.Table) models.DerivedTable {
	g := groupSum(t, func(o models.Order) categoryPair {
		return categoryPair{category: o.Category, subCategory: o.SubCategory}
	}, byQuantity)

	categoryRank := make(map[string]int)
	for _, k := range g.keys {
		if _, ok := categoryRank[k.category]; !ok {
			categoryRank[k.category] = len(categoryRank)
		}
	}

	entries := g.entries()
	slices.SortStableFunc(entries, func(a, b entry[categoryPair]) int {
		return categoryRank[a.key.category] - categoryRank[b.key.category]
	})

	rows := make([]models.Row, len(entries))
	for i, e := range entries {
		rows[i] = models.Row{Key: []string{e.key.category, e.key.subCategory}, Value: e.value}
	}

	return models.DerivedTable{
		Name:  "category_subcategory_quantity",
		Title: "The Quantity of Category and its Sub-Categories",
		Kind:  models.KindQuantity,
		Chart: models.ChartSunburst,
		Rows:  rows,
	}
}

// GrowthSeries computes year-over-year growth in percent for values already
// ordered by year. The first value has no predecessor and is compared with 0;
// any zero predecessor yields 0 instead of an infinite ratio. Results are
// rounded half to even to two places.
func GrowthSeries(values []decimal.Decimal) []decimal.Decimal {
	growth := make([]decimal.Decimal, len(values))
	prev := decimal.Zero
	for i, v := range values {
		if prev.IsZero() {
			growth[i] = decimal.Zero
		} else {
			growth[i] = v.Sub(prev).Mul(hundred).Div(prev).RoundBank(2)
		}
		prev = v
	}
	return growth
}

// YearOverYearGrowth applies GrowthSeries to profit per order year. Years with
// no orders are absent from the series, so growth is measured against the
// closest earlier year present.
func YearOverYearGrowth(t models.Table) models.DerivedTable {
	entries := yearly(t, byProfit)

	profits := make([]decimal.Decimal, len(entries))
	for i, e := range entries {
		profits[i] = e.value
	}
	growth := GrowthSeries(profits)

	rows := make([]models.Row, len(entries))
	for i, e := range entries {
		rows[i] = models.Row{Key: []string{strconv.Itoa(e.key)}, Value: growth[i]}
	}

	return models.DerivedTable{
		Name:   "yoy_profit_growth",
		Title:  "The Year-Over-Year Profit Growth",
		Kind:   models.KindPercentage,
		Chart:  models.ChartLine,
		XLabel: "Year",
		YLabel: "Year-Over-Year Profit Growth (%)",
		Rows:   rows,
	}
}
