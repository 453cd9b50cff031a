// Package aggregate turns a filtered order table into the derived tables each
// report page renders. Every function is pure and accepts an empty table.
package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// grouped accumulates one decimal per key, remembering first-seen key order.
type grouped[K comparable] struct {
	keys   []K
	index  map[K]int
	values []decimal.Decimal
}

func newGrouped[K comparable]() *grouped[K] {
	return &grouped[K]{index: make(map[K]int)}
}

func (g *grouped[K]) add(key K, v decimal.Decimal) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.keys)
		g.index[key] = i
		g.keys = append(g.keys, key)
		g.values = append(g.values, decimal.Zero)
	}
	g.values[i] = g.values[i].Add(v)
}

func (g *grouped[K]) len() int {
	return len(g.keys)
}

func (g *grouped[K]) total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range g.values {
		total = total.Add(v)
	}
	return total
}

type entry[K comparable] struct {
	key   K
	value decimal.Decimal
}

// entries returns the groups in first-seen order.
func (g *grouped[K]) entries() []entry[K] {
	out := make([]entry[K], len(g.keys))
	for i, k := range g.keys {
		out[i] = entry[K]{key: k, value: g.values[i]}
	}
	return out
}

// descending sorts by value, largest first. Ties keep first-seen order.
func (g *grouped[K]) descending() []entry[K] {
	out := g.entries()
	slices.SortStableFunc(out, func(a, b entry[K]) int {
		return b.value.Cmp(a.value)
	})
	return out
}

// argmax returns the first key holding the largest value.
func (g *grouped[K]) argmax() (K, decimal.Decimal, bool) {
	var (
		best  K
		value decimal.Decimal
	)
	if len(g.keys) == 0 {
		return best, value, false
	}
	best, value = g.keys[0], g.values[0]
	for i := 1; i < len(g.keys); i++ {
		if g.values[i].GreaterThan(value) {
			best, value = g.keys[i], g.values[i]
		}
	}
	return best, value, true
}

func groupSum[K comparable](t models.Table, key func(models.Order) K, value func(models.Order) decimal.Decimal) *grouped[K] {
	g := newGrouped[K]()
	for _, o := range t {
		g.add(key(o), value(o))
	}
	return g
}

func groupCount[K comparable](t models.Table, key func(models.Order) K) *grouped[K] {
	return groupSum(t, key, func(models.Order) decimal.Decimal { return one })
}

// dedupe keeps the first order seen for each key, preserving table order.
func dedupe[K comparable](t models.Table, key func(models.Order) K) models.Table {
	seen := make(map[K]bool, len(t))
	out := make(models.Table, 0, len(t))
	for _, o := range t {
		k := key(o)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, o)
	}
	return out
}

func distinct[K comparable](t models.Table, key func(models.Order) K) int {
	seen := make(map[K]struct{}, len(t))
	for _, o := range t {
		seen[key(o)] = struct{}{}
	}
	return len(seen)
}

// mean divides by n, defining the mean of nothing as zero.
func mean(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n)))
}

func rowsOf[K comparable](entries []entry[K], label func(K) string) []models.Row {
	rows := make([]models.Row, len(entries))
	for i, e := range entries {
		rows[i] = models.Row{Key: []string{label(e.key)}, Value: e.value}
	}
	return rows
}

func identity(s string) string { return s }

func bySales(o models.Order) decimal.Decimal    { return o.Sales }
func byProfit(o models.Order) decimal.Decimal   { return o.Profit }
func byQuantity(o models.Order) decimal.Decimal { return decimal.NewFromInt(int64(o.Quantity)) }

func region(o models.Order) string       { return o.Region }
func state(o models.Order) string        { return o.State }
func segment(o models.Order) string      { return o.Segment }
func category(o models.Order) string     { return o.Category }
func orderID(o models.Order) string      { return o.OrderID }
func customerID(o models.Order) string   { return o.CustomerID }
func customerName(o models.Order) string { return o.CustomerName }
func orderYear(o models.Order) int       { return o.OrderYear }
