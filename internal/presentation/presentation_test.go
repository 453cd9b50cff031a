package presentation

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		kind models.ValueKind
		in   string
		want string
	}{
		{models.KindCurrency, "1234.5", "$1,234"},
		{models.KindCurrency, "1235.5", "$1,236"},
		{models.KindCurrency, "2297200.8603", "$2,297,201"},
		{models.KindCurrency, "-3820.4", "-$3,820"},
		{models.KindCurrency, "0", "$0"},
		{models.KindCount, "793", "793"},
		{models.KindQuantity, "37873", "37,873"},
		{models.KindPercentage, "12.5", "12.5%"},
		{models.KindPercentage, "-100", "-100%"},
		{models.KindPercentage, "33.335", "33.34%"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"_"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatValue(tt.kind, dec(tt.in)))
		})
	}
}

func TestBuild_Card(t *testing.T) {
	table := models.DerivedTable{
		Name:  "customer_summary",
		Title: "Customers",
		Kind:  models.KindCurrency,
		Chart: models.ChartCard,
		Rows: []models.Row{
			{Key: []string{"Avg Sales / Customer"}, Value: dec("2896.8")},
			{Key: []string{"Top Loyal Customer"}, Value: dec("17"), Label: "Emily Phan", Kind: models.KindCount},
		},
	}

	spec, err := Build(table)
	require.NoError(t, err)

	card, ok := spec.(Card)
	require.True(t, ok)
	assert.Equal(t, []CardItem{
		{Label: "Avg Sales / Customer", Value: "$2,897"},
		{Label: "Top Loyal Customer", Value: "Emily Phan"},
	}, card.Items)
}

func TestBuild_BarAndPie(t *testing.T) {
	rows := []models.Row{
		{Key: []string{"West"}, Value: dec("725457.82")},
		{Key: []string{"East"}, Value: dec("678781.24")},
	}

	spec, err := Build(models.DerivedTable{Name: "r", Kind: models.KindCurrency, Chart: models.ChartHBar, Rows: rows})
	require.NoError(t, err)
	bar := spec.(Bar)
	assert.True(t, bar.Horizontal)
	assert.Equal(t, []string{"West", "East"}, bar.Categories)
	assert.Equal(t, []string{"$725,458", "$678,781"}, bar.Text)
	assert.Len(t, bar.Colors, 2)

	spec, err = Build(models.DerivedTable{Name: "s", Kind: models.KindCurrency, Chart: models.ChartPie, Rows: rows})
	require.NoError(t, err)
	pie := spec.(Pie)
	assert.Equal(t, models.ChartPie, pie.Kind())
	assert.Equal(t, []string{"West", "East"}, pie.Labels)
	assert.InDelta(t, 725457.82, pie.Values[0], 1e-6)
}

func TestBuild_LinePivot(t *testing.T) {
	table := models.DerivedTable{
		Name:  "sales_by_month_year",
		Kind:  models.KindCurrency,
		Chart: models.ChartLine,
		Rows: []models.Row{
			{Key: []string{"January", "2015"}, Value: dec("10")},
			{Key: []string{"January", "2016"}, Value: dec("20")},
			{Key: []string{"March", "2015"}, Value: dec("30")},
		},
	}

	spec, err := Build(table)
	require.NoError(t, err)
	line := spec.(Line)

	assert.Len(t, line.X, 12)
	assert.Equal(t, "Jan", line.X[0])
	assert.Equal(t, "Dec", line.X[11])

	require.Len(t, line.Series, 2)
	assert.Equal(t, "2015", line.Series[0].Name)
	assert.Equal(t, "2016", line.Series[1].Name)

	xs := func(s Series) []string {
		out := []string{}
		for _, p := range s.Points {
			out = append(out, p.X)
		}
		return out
	}
	if diff := cmp.Diff([]string{"Jan", "Mar"}, xs(line.Series[0])); diff != "" {
		t.Errorf("2015 points mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Jan"}, xs(line.Series[1])); diff != "" {
		t.Errorf("2016 points mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_LineSingleSeries(t *testing.T) {
	table := models.DerivedTable{
		Name:   "yoy_profit_growth",
		Kind:   models.KindPercentage,
		Chart:  models.ChartLine,
		YLabel: "Growth",
		Rows: []models.Row{
			{Key: []string{"2015"}, Value: dec("0")},
			{Key: []string{"2016"}, Value: dec("24.42")},
		},
	}

	spec, err := Build(table)
	require.NoError(t, err)
	line := spec.(Line)

	assert.Equal(t, []string{"2015", "2016"}, line.X)
	require.Len(t, line.Series, 1)
	assert.Equal(t, "24.42%", line.Series[0].Points[1].Text)
}

func TestBuild_Sunburst(t *testing.T) {
	table := models.DerivedTable{
		Name:  "category_subcategory_quantity",
		Kind:  models.KindQuantity,
		Chart: models.ChartSunburst,
		Rows: []models.Row{
			{Key: []string{"Furniture", "Chairs"}, Value: dec("5")},
			{Key: []string{"Furniture", "Tables"}, Value: dec("3")},
			{Key: []string{"Technology", "Phones"}, Value: dec("4")},
		},
	}

	spec, err := Build(table)
	require.NoError(t, err)
	sb := spec.(Sunburst)

	assert.Equal(t, []string{"Furniture", "Technology", "Furniture/Chairs", "Furniture/Tables", "Technology/Phones"}, sb.IDs)
	assert.Equal(t, []string{"", "", "Furniture", "Furniture", "Technology"}, sb.Parents)
	assert.Equal(t, []float64{8, 4, 5, 3, 4}, sb.Values)
}

func TestBuild_UnknownKind(t *testing.T) {
	_, err := Build(models.DerivedTable{Name: "x", Chart: "radar"})
	assert.Error(t, err)
}

func TestBuildAll_JSONCarriesKind(t *testing.T) {
	charts, err := BuildAll([]models.DerivedTable{
		{Name: "a", Chart: models.ChartBar, Kind: models.KindCount, Rows: []models.Row{{Key: []string{"x"}, Value: dec("1")}}},
		{Name: "b", Chart: models.ChartCard, Kind: models.KindCount},
	})
	require.NoError(t, err)

	data, err := json.Marshal(charts)
	require.NoError(t, err)

	var decoded []struct {
		Name string `json:"name"`
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "bar", decoded[0].Kind)
	assert.Equal(t, "card", decoded[1].Kind)
}
