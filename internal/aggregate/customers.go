package aggregate

import (
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

const (
	CardAvgSalesPerCustomer  = "Avg Sales / Customer"
	CardAvgProfitPerCustomer = "Avg Profit / Customer"
	CardTopLoyalCustomer     = "Top Loyal Customer"
)

// CustomerAverages returns the mean over customers of each customer's total
// sales and total profit.
func CustomerAverages(t models.Table) (sales, profit decimal.Decimal) {
	salesByCustomer := groupSum(t, customerID, bySales)
	profitByCustomer := groupSum(t, customerID, byProfit)
	return mean(salesByCustomer.total(), salesByCustomer.len()),
		mean(profitByCustomer.total(), profitByCustomer.len())
}

// TopLoyalCustomer counts distinct orders per customer name and returns the
// name with the most. On a tie the customer appearing first wins.
func TopLoyalCustomer(t models.Table) (name string, orders int, ok bool) {
	perOrder := dedupe(t, orderID)
	name, count, ok := groupCount(perOrder, customerName).argmax()
	if !ok {
		return "", 0, false
	}
	return name, int(count.IntPart()), true
}

func CustomerSummary(t models.Table) models.DerivedTable {
	avgSales, avgProfit := CustomerAverages(t)

	loyal := models.Row{Key: []string{CardTopLoyalCustomer}, Value: decimal.Zero, Kind: models.KindCount}
	if name, orders, ok := TopLoyalCustomer(t); ok {
		loyal.Label = name
		loyal.Value = decimal.NewFromInt(int64(orders))
	}

	return models.DerivedTable{
		Name:  "customer_summary",
		Title: "Customers",
		Kind:  models.KindCurrency,
		Chart: models.ChartCard,
		Rows: []models.Row{
			{Key: []string{CardAvgSalesPerCustomer}, Value: avgSales},
			{Key: []string{CardAvgProfitPerCustomer}, Value: avgProfit},
			loyal,
		},
	}
}

// CustomersBySegment attributes each customer to the segment of their first
// line item and counts customers per segment, most popular first.
func CustomersBySegment(t models.Table) models.DerivedTable {
	g := groupCount(dedupe(t, customerID), segment)
	return models.DerivedTable{
		Name:  "customers_by_segment",
		Title: "Customers Popularity Via Segments",
		Kind:  models.KindCount,
		Chart: models.ChartPie,
		Rows:  rowsOf(g.descending(), identity),
	}
}

// CustomersPerYear attributes each customer to the year of their first line
// item, ascending by year.
func CustomersPerYear(t models.Table) models.DerivedTable {
	entries := groupCount(dedupe(t, customerID), orderYear).entries()
	slices.SortFunc(entries, func(a, b entry[int]) int {
		return a.key - b.key
	})
	return models.DerivedTable{
		Name:   "customers_per_year",
		Title:  "The Increasing of Customers Via Years",
		Kind:   models.KindCount,
		Chart:  models.ChartLine,
		XLabel: "Year",
		YLabel: "Total Customer",
		Rows:   rowsOf(entries, strconv.Itoa),
	}
}
