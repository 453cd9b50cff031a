package presentation

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

// FormatValue renders a value for display: currency as "$1,235", counts and
// quantities as "1,235", percentages as "12.5%". Whole-number kinds are rounded
// half to even before grouping.
func FormatValue(kind models.ValueKind, v decimal.Decimal) string {
	switch kind {
	case models.KindPercentage:
		return v.RoundBank(2).String() + "%"
	case models.KindCurrency:
		return sign(v) + "$" + grouped(v.Abs())
	default:
		return sign(v) + grouped(v.Abs())
	}
}

// FormatRow formats a row, preferring its text label when it carries one.
func FormatRow(t models.DerivedTable, r models.Row) string {
	if r.Label != "" {
		return r.Label
	}
	return FormatValue(t.RowKind(r), r.Value)
}

func grouped(v decimal.Decimal) string {
	return humanize.FormatFloat("#,###.", v.RoundBank(0).InexactFloat64())
}

func sign(v decimal.Decimal) string {
	if v.RoundBank(0).IsNegative() {
		return "-"
	}
	return ""
}
