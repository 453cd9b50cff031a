package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// AllValue is the "no filter" sentinel prepended to every filter value list.
const AllValue = "All"

// Order is one line item of the source dataset. An order id spans several
// line items, so OrderID is not unique.
type Order struct {
	OrderID      string
	CustomerID   string
	CustomerName string
	OrderDate    time.Time
	ShipDate     time.Time
	Region       string
	State        string
	Category     string
	SubCategory  string
	Segment      string
	Sales        decimal.Decimal
	Profit       decimal.Decimal
	Quantity     int

	// Derived from OrderDate at load time.
	OrderMonth time.Month
	OrderYear  int
}

// MonthName is the full calendar name of the order month ("January").
func (o Order) MonthName() string {
	return o.OrderMonth.String()
}

// Table is the loaded dataset. It is shared read-only for the lifetime of a
// snapshot and must never be mutated in place.
type Table []Order

func (t Table) Len() int {
	return len(t)
}

// FilterSelection is the {state, year, category} triple. Year holds the
// string form of the order year.
type FilterSelection struct {
	State    string `json:"state"`
	Year     string `json:"year"`
	Category string `json:"category"`
}

func DefaultSelection() FilterSelection {
	return FilterSelection{State: AllValue, Year: AllValue, Category: AllValue}
}

func (s FilterSelection) IsAll() bool {
	return s.State == AllValue && s.Year == AllValue && s.Category == AllValue
}

// Key is a stable string form used for cache keys and logs.
func (s FilterSelection) Key() string {
	return s.State + "|" + s.Year + "|" + s.Category
}

// FilterValueLists are the legal values per dimension, each led by AllValue,
// in first-seen dataset order.
type FilterValueLists struct {
	States     []string `json:"states"`
	Years      []string `json:"years"`
	Categories []string `json:"categories"`
}

// BuildFilterValueLists collects distinct states, years and categories in the
// order they first appear in the table.
func BuildFilterValueLists(t Table) FilterValueLists {
	lists := FilterValueLists{
		States:     []string{AllValue},
		Years:      []string{AllValue},
		Categories: []string{AllValue},
	}

	seenState := make(map[string]bool)
	seenYear := make(map[int]bool)
	seenCategory := make(map[string]bool)

	for _, o := range t {
		if !seenState[o.State] {
			seenState[o.State] = true
			lists.States = append(lists.States, o.State)
		}
		if !seenYear[o.OrderYear] {
			seenYear[o.OrderYear] = true
			lists.Years = append(lists.Years, strconv.Itoa(o.OrderYear))
		}
		if !seenCategory[o.Category] {
			seenCategory[o.Category] = true
			lists.Categories = append(lists.Categories, o.Category)
		}
	}

	return lists
}
