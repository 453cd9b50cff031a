package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

const (
	batchSize         = 5000
	maxWorkers        = 8
	maxReportedErrors = 20
)

const (
	colOrderID      = "order_id"
	colCustomerID   = "customer_id"
	colCustomerName = "customer_name"
	colOrderDate    = "order_date"
	colShipDate     = "ship_date"
	colRegion       = "region"
	colState        = "state"
	colCategory     = "category"
	colSubCategory  = "sub_category"
	colSegment      = "segment"
	colSales        = "sales"
	colProfit       = "profit"
	colQuantity     = "quantity"
)

var requiredColumns = []string{
	colOrderID, colCustomerID, colCustomerName, colOrderDate, colShipDate,
	colRegion, colState, colCategory, colSubCategory, colSegment,
	colSales, colProfit, colQuantity,
}

// dateLayouts are tried in order. "1/2/2006" also accepts zero-padded values.
var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"1-2-2006",
	"2006/1/2",
	time.RFC3339,
}

// Result is the outcome of one load: the typed table, the filter value lists
// and the rows that were rejected on the way.
type Result struct {
	Table     models.Table
	Lists     models.FilterValueLists
	Rejected  int
	RowErrors []error
}

type Loader struct {
	encoding string
	logger   *slog.Logger
}

// NewLoader returns a loader for the given source encoding ("utf-8", "latin1"
// or "windows-1252").
func NewLoader(encoding string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{encoding: strings.ToLower(encoding), logger: logger}
}

func (l *Loader) Load(ctx context.Context, path string) (*Result, error) {
	ctx, span := observability.StartSpan(ctx, "dataset.load")
	defer span.End(l.logger)
	span.SetTag("path", path)

	file, err := os.Open(path)
	if err != nil {
		span.SetError(err)
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	start := time.Now()
	res, err := l.Parse(ctx, file)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	duration := time.Since(start)
	l.logger.Info("csv processing complete",
		"path", path,
		"records", len(res.Table),
		"rejected", res.Rejected,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(res.Table))/duration.Seconds()))

	return res, nil
}

type rawRecord struct {
	line   int
	fields []string
}

type parsedRecord struct {
	order models.Order
	err   error
}

// Parse reads a delimited order table. Rows whose dates or numbers cannot be
// parsed are rejected and counted; a missing column or an empty result fails
// the whole load.
func (l *Loader) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(l.decode(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := buildColumnIndex(header)
	minFields := 0
	for _, col := range requiredColumns {
		i, ok := index[col]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
		minFields = max(minFields, i+1)
	}

	var raw []rawRecord
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				raw = append(raw, rawRecord{line: parseErr.Line})
				continue
			}
			return nil, fmt.Errorf("read records: %w", err)
		}
		line, _ := reader.FieldPos(0)
		raw = append(raw, rawRecord{line: line, fields: fields})
	}

	parsed := make([]parsedRecord, len(raw))

	var g errgroup.Group
	g.SetLimit(maxWorkers)

	for start := 0; start < len(raw); start += batchSize {
		end := min(start+batchSize, len(raw))
		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				order, err := parseOrder(raw[i], index, minFields)
				parsed[i] = parsedRecord{order: order, err: err}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Table: make(models.Table, 0, len(parsed))}
	for _, p := range parsed {
		if p.err != nil {
			res.Rejected++
			if len(res.RowErrors) < maxReportedErrors {
				res.RowErrors = append(res.RowErrors, p.err)
			}
			continue
		}
		res.Table = append(res.Table, p.order)
	}

	for _, rowErr := range res.RowErrors {
		l.logger.Warn("rejected row", "error", rowErr)
	}

	if len(res.Table) == 0 {
		return nil, ErrNoRecords
	}

	res.Lists = models.BuildFilterValueLists(res.Table)
	return res, nil
}

func (l *Loader) decode(r io.Reader) io.Reader {
	switch l.encoding {
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r)
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r)
	default:
		return r
	}
}

// normalizeColumnName maps "Order ID", "Order_ID" and "order-id" to "order_id".
func normalizeColumnName(col string) string {
	col = strings.TrimPrefix(col, "\ufeff")
	col = strings.ToLower(strings.TrimSpace(col))
	col = strings.NewReplacer(" ", "_", "-", "_").Replace(col)
	if col == "subcategory" {
		return colSubCategory
	}
	return col
}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		name := normalizeColumnName(col)
		if _, exists := index[name]; !exists {
			index[name] = i
		}
	}
	return index
}

func parseOrder(rec rawRecord, index map[string]int, minFields int) (models.Order, error) {
	if rec.fields == nil {
		return models.Order{}, &MalformedRowError{Line: rec.line, Field: "row", Err: errors.New("unparseable record")}
	}

	if len(rec.fields) < minFields {
		return models.Order{}, &MalformedRowError{
			Line:  rec.line,
			Field: "row",
			Err:   fmt.Errorf("expected at least %d columns, got %d", minFields, len(rec.fields)),
		}
	}

	field := func(name string) string {
		return strings.TrimSpace(rec.fields[index[name]])
	}

	orderDate, err := parseDate(field(colOrderDate))
	if err != nil {
		return models.Order{}, &MalformedRowError{Line: rec.line, Field: colOrderDate, Value: field(colOrderDate), Err: err}
	}

	shipDate, err := parseDate(field(colShipDate))
	if err != nil {
		return models.Order{}, &MalformedRowError{Line: rec.line, Field: colShipDate, Value: field(colShipDate), Err: err}
	}

	sales, err := decimal.NewFromString(field(colSales))
	if err != nil {
		return models.Order{}, &MalformedRowError{Line: rec.line, Field: colSales, Value: field(colSales), Err: err}
	}
	if sales.IsNegative() {
		return models.Order{}, &MalformedRowError{Line: rec.line, Field: colSales, Value: field(colSales), Err: errors.New("negative sales")}
	}

	profit, err := decimal.NewFromString(field(colProfit))
	if err != nil {
		return models.Order{}, &MalformedRowError{Line: rec.line, Field: colProfit, Value: field(colProfit), Err: err}
	}

	quantity, err := strconv.Atoi(field(colQuantity))
	if err != nil {
		return models.Order{}, &MalformedRowError{Line: rec.line, Field: colQuantity, Value: field(colQuantity), Err: err}
	}
	if quantity < 0 {
		return models.Order{}, &MalformedRowError{Line: rec.line, Field: colQuantity, Value: field(colQuantity), Err: errors.New("negative quantity")}
	}

	return models.Order{
		OrderID:      field(colOrderID),
		CustomerID:   field(colCustomerID),
		CustomerName: field(colCustomerName),
		OrderDate:    orderDate,
		ShipDate:     shipDate,
		Region:       field(colRegion),
		State:        field(colState),
		Category:     field(colCategory),
		SubCategory:  field(colSubCategory),
		Segment:      field(colSegment),
		Sales:        sales,
		Profit:       profit,
		Quantity:     quantity,
		OrderMonth:   orderDate.Month(),
		OrderYear:    orderDate.Year(),
	}, nil
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
