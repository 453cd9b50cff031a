package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sales-dashboard/internal/aggregate"
	"sales-dashboard/internal/cache"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/models"
)

const testHeader = "Order ID,Order Date,Ship Date,Customer ID,Customer Name,Segment,Region,State,Category,Sub-Category,Sales,Quantity,Profit\n"

const testRows = "CA-1,1/5/2020,1/8/2020,C1,Alice,Consumer,West,California,Furniture,Chairs,100,2,10\n" +
	"CA-2,2/5/2020,2/8/2020,C2,Bob,Corporate,East,New York,Technology,Phones,200,1,20\n" +
	"CA-3,3/5/2021,3/8/2021,C1,Alice,Consumer,West,California,Technology,Phones,300,3,30\n" +
	"CA-4,4/5/2021,4/8/2021,C3,Carol,Home Office,Central,Texas,Office Supplies,Paper,400,4,-5\n"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTempCSV(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type testSetup struct {
	dashboard *Dashboard
	store     *dataset.Store
	path      string
}

func newTestDashboard(t testing.TB, scope string, cacheEnabled bool) testSetup {
	t.Helper()
	logger := testLogger()
	path := createTempCSV(t, testHeader+testRows)

	store := dataset.NewStore(dataset.NewLoader("utf-8", logger), path, logger)

	var registry filter.Registry = filter.NewGlobalRegistry(store, logger)
	if scope == "session" {
		registry = filter.NewSessionRegistry(store, logger, 16, time.Hour)
	}

	d := NewDashboard(store, registry, cache.NewMemo(cacheEnabled, 32, time.Minute),
		metrics.New(prometheus.NewRegistry()), logger)

	if _, err := d.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	return testSetup{dashboard: d, store: store, path: path}
}

func totalSales(t *testing.T, view *View) string {
	t.Helper()
	row, ok := view.Tables[0].Lookup(aggregate.CardTotalSales)
	if !ok {
		t.Fatal("total sales card missing")
	}
	return row.Value.String()
}

func TestDashboard_ComputeView(t *testing.T) {
	s := newTestDashboard(t, "global", true)

	view, err := s.dashboard.ComputeView(context.Background(), models.PageOverview, models.DefaultSelection())
	if err != nil {
		t.Fatalf("ComputeView() error = %v", err)
	}

	if view.Version != 1 {
		t.Errorf("Version = %d, want 1", view.Version)
	}
	if len(view.Tables) != 5 {
		t.Fatalf("overview tables = %d, want 5", len(view.Tables))
	}
	if got := totalSales(t, view); got != "1000" {
		t.Errorf("total sales = %s, want 1000", got)
	}
	if view.Cache != cache.StatusMiss {
		t.Errorf("Cache = %s, want miss", view.Cache)
	}

	again, err := s.dashboard.ComputeView(context.Background(), models.PageOverview, models.DefaultSelection())
	if err != nil {
		t.Fatalf("ComputeView() error = %v", err)
	}
	if again.Cache != cache.StatusHit {
		t.Errorf("second Cache = %s, want hit", again.Cache)
	}
}

func TestDashboard_ComputeViewErrors(t *testing.T) {
	s := newTestDashboard(t, "global", true)

	tests := []struct {
		name  string
		page  models.PageID
		sel   models.FilterSelection
		check func(error) bool
	}{
		{
			name:  "unknown page",
			page:  "reports",
			sel:   models.DefaultSelection(),
			check: func(err error) bool { return errors.Is(err, aggregate.ErrUnknownPage) },
		},
		{
			name: "invalid year",
			page: models.PageOverview,
			sel:  models.FilterSelection{State: "All", Year: "20x1", Category: "All"},
			check: func(err error) bool {
				var yearErr *filter.InvalidYearError
				return errors.As(err, &yearErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.dashboard.ComputeView(context.Background(), tt.page, tt.sel)
			if err == nil || !tt.check(err) {
				t.Errorf("ComputeView() error = %v", err)
			}
		})
	}
}

func TestDashboard_NotLoaded(t *testing.T) {
	logger := testLogger()
	store := dataset.NewStore(dataset.NewLoader("", logger), "unused.csv", logger)
	d := NewDashboard(store, filter.NewGlobalRegistry(store, logger), cache.NewMemo(true, 4, time.Minute),
		metrics.New(prometheus.NewRegistry()), logger)

	if d.Ready() {
		t.Error("Ready() = true before load")
	}
	if _, err := d.ComputeView(context.Background(), models.PageOverview, models.DefaultSelection()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("error = %v, want ErrNotLoaded", err)
	}
	if loaded := d.Stats()["loaded"]; loaded != false {
		t.Errorf("Stats()[loaded] = %v", loaded)
	}
}

func TestDashboard_FilterScopes(t *testing.T) {
	texas := models.FilterSelection{State: "Texas", Year: "All", Category: "All"}

	t.Run("global", func(t *testing.T) {
		s := newTestDashboard(t, "global", true)
		s.dashboard.ApplyFilter(context.Background(), "a", texas)

		if got := s.dashboard.Selection("b"); got != texas {
			t.Errorf("Selection(b) = %+v, want shared %+v", got, texas)
		}
	})

	t.Run("session", func(t *testing.T) {
		s := newTestDashboard(t, "session", true)
		s.dashboard.ApplyFilter(context.Background(), "a", texas)

		if got := s.dashboard.Selection("b"); got != models.DefaultSelection() {
			t.Errorf("Selection(b) = %+v, want default", got)
		}

		view, err := s.dashboard.Page(context.Background(), "a", models.PageOverview)
		if err != nil {
			t.Fatalf("Page() error = %v", err)
		}
		if got := totalSales(t, view); got != "400" {
			t.Errorf("texas total sales = %s, want 400", got)
		}
	})
}

func TestDashboard_ApplyFilterFallsBack(t *testing.T) {
	s := newTestDashboard(t, "global", true)

	applied := s.dashboard.ApplyFilter(context.Background(), "", models.FilterSelection{State: "Atlantis", Year: "2021", Category: "Toys"})

	want := models.FilterSelection{State: "All", Year: "2021", Category: "All"}
	if applied != want {
		t.Errorf("ApplyFilter() = %+v, want %+v", applied, want)
	}
}

func TestDashboard_ComputeAll(t *testing.T) {
	s := newTestDashboard(t, "global", false)

	views, err := s.dashboard.ComputeAll(context.Background(), models.DefaultSelection())
	if err != nil {
		t.Fatalf("ComputeAll() error = %v", err)
	}

	if len(views) != len(models.Pages) {
		t.Fatalf("views = %d, want %d", len(views), len(models.Pages))
	}
	for i, page := range models.Pages {
		if views[i].Page != page {
			t.Errorf("views[%d].Page = %s, want %s", i, views[i].Page, page)
		}
		if len(views[i].Tables) == 0 {
			t.Errorf("page %s has no tables", page)
		}
	}

	if _, err := s.dashboard.ComputeAll(context.Background(), models.FilterSelection{State: "All", Year: "bad", Category: "All"}); err == nil {
		t.Error("ComputeAll() with invalid year should fail")
	}
}

func TestDashboard_ReloadServesNewVersion(t *testing.T) {
	s := newTestDashboard(t, "global", true)
	ctx := context.Background()

	if _, err := s.dashboard.ComputeView(ctx, models.PageOverview, models.DefaultSelection()); err != nil {
		t.Fatal(err)
	}

	extra := "CA-5,5/5/2021,5/8/2021,C4,Dan,Consumer,South,Florida,Furniture,Tables,1000,1,100\n"
	if err := os.WriteFile(s.path, []byte(testHeader+testRows+extra), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := s.dashboard.Reload(ctx)
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if snap.Version != 2 {
		t.Errorf("Version = %d, want 2", snap.Version)
	}

	view, err := s.dashboard.ComputeView(ctx, models.PageOverview, models.DefaultSelection())
	if err != nil {
		t.Fatal(err)
	}
	if view.Cache != cache.StatusMiss {
		t.Errorf("Cache = %s, want miss after reload", view.Cache)
	}
	if got := totalSales(t, view); got != "2000" {
		t.Errorf("total sales = %s, want 2000", got)
	}
}

func TestDashboard_ReloadRevalidatesSelections(t *testing.T) {
	stored := models.FilterSelection{State: "Texas", Year: "2021", Category: "Office Supplies"}
	// Texas and Office Supplies only appear in the dropped row.
	withoutTexas := testHeader +
		"CA-1,1/5/2020,1/8/2020,C1,Alice,Consumer,West,California,Furniture,Chairs,100,2,10\n" +
		"CA-2,2/5/2020,2/8/2020,C2,Bob,Corporate,East,New York,Technology,Phones,200,1,20\n" +
		"CA-3,3/5/2021,3/8/2021,C1,Alice,Consumer,West,California,Technology,Phones,300,3,30\n"
	want := models.FilterSelection{State: "All", Year: "2021", Category: "All"}

	for _, scope := range []string{"global", "session"} {
		t.Run(scope, func(t *testing.T) {
			s := newTestDashboard(t, scope, true)
			ctx := context.Background()

			if got := s.dashboard.ApplyFilter(ctx, "a", stored); got != stored {
				t.Fatalf("ApplyFilter() = %+v, want %+v", got, stored)
			}

			if err := os.WriteFile(s.path, []byte(withoutTexas), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := s.dashboard.Reload(ctx); err != nil {
				t.Fatalf("Reload() error = %v", err)
			}

			if got := s.dashboard.Selection("a"); got != want {
				t.Errorf("Selection() after reload = %+v, want %+v", got, want)
			}

			view, err := s.dashboard.Page(ctx, "a", models.PageOverview)
			if err != nil {
				t.Fatalf("Page() error = %v", err)
			}
			if got := totalSales(t, view); got != "300" {
				t.Errorf("total sales = %s, want 300", got)
			}
		})
	}
}

func TestDashboard_FailedReloadKeepsSnapshot(t *testing.T) {
	s := newTestDashboard(t, "global", true)

	if err := os.WriteFile(s.path, []byte(testHeader), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.dashboard.Reload(context.Background()); !errors.Is(err, dataset.ErrNoRecords) {
		t.Fatalf("Reload() error = %v, want ErrNoRecords", err)
	}

	stats := s.dashboard.Stats()
	if stats["version"] != uint64(1) || stats["record_count"] != 4 {
		t.Errorf("Stats() = %v, want version 1 with 4 records", stats)
	}
}

func TestDashboard_Stats(t *testing.T) {
	s := newTestDashboard(t, "global", true)

	stats := s.dashboard.Stats()

	expected := map[string]any{
		"loaded":        true,
		"record_count":  4,
		"rejected_rows": 0,
		"states":        3,
		"years":         2,
		"categories":    3,
		"cache_enabled": true,
	}
	for key, want := range expected {
		if stats[key] != want {
			t.Errorf("Stats()[%s] = %v, want %v", key, stats[key], want)
		}
	}
}

func TestDashboard_ConcurrentAccess(t *testing.T) {
	s := newTestDashboard(t, "session", true)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session := string(rune('a' + i%3))
			s.dashboard.ApplyFilter(ctx, session, models.FilterSelection{State: "California", Year: "All", Category: "All"})
			for _, page := range models.Pages {
				if _, err := s.dashboard.Page(ctx, session, page); err != nil {
					t.Errorf("Page(%s) error = %v", page, err)
				}
			}
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := s.dashboard.Reload(ctx); err != nil {
			t.Errorf("Reload() error = %v", err)
		}
	}()

	wg.Wait()
}

func BenchmarkDashboard_ComputeView(b *testing.B) {
	s := newTestDashboard(b, "global", false)
	ctx := context.Background()

	b.ResetTimer()
	for b.Loop() {
		_, _ = s.dashboard.ComputeView(ctx, models.PageLogistics, models.DefaultSelection())
	}
}
