package aggregate

import (
	"errors"
	"fmt"

	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/models"
)

var ErrUnknownPage = errors.New("unknown page")

// ComputeView filters the full table by sel and derives every table the page
// shows. It allocates all of its state locally and may run concurrently.
func ComputeView(page models.PageID, table models.Table, sel models.FilterSelection) ([]models.DerivedTable, error) {
	if !page.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}

	filtered, err := filter.Apply(table, sel)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", page, err)
	}

	return PageTables(page, filtered)
}

// PageTables derives a page's tables from an already filtered table.
func PageTables(page models.PageID, filtered models.Table) ([]models.DerivedTable, error) {
	switch page {
	case models.PageOverview:
		return []models.DerivedTable{
			ComputeTotals(filtered).Table(),
			SalesByRegion(filtered),
			SalesBySegment(filtered),
			SalesByCategory(filtered),
			ProfitByYear(filtered),
		}, nil
	case models.PageLocations:
		return []models.DerivedTable{
			LocationSummary(filtered),
			TopStates(filtered, TopStatesLimit),
		}, nil
	case models.PageCustomers:
		return []models.DerivedTable{
			CustomerSummary(filtered),
			CustomersBySegment(filtered),
			CustomersPerYear(filtered),
		}, nil
	case models.PageTimeSeries:
		return []models.DerivedTable{
			SalesByMonthYear(filtered),
			ProfitByMonthYear(filtered),
		}, nil
	case models.PageLogistics:
		return []models.DerivedTable{
			LogisticsSummary(filtered),
			CategorySubcategoryQuantity(filtered),
			YearOverYearGrowth(filtered),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
	}
}
