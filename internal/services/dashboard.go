package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/aggregate"
	"sales-dashboard/internal/cache"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

const defaultReloadTimeout = 5 * time.Minute

var ErrNotLoaded = errors.New("dataset not loaded")

// View is one page computed against a single snapshot and selection.
type View struct {
	Page      models.PageID          `json:"page"`
	Selection models.FilterSelection `json:"selection"`
	Version   uint64                 `json:"version"`
	Cache     cache.Status           `json:"cache"`
	Tables    []models.DerivedTable  `json:"tables"`
}

// Dashboard ties the dataset snapshot, the filter selections and the page
// computations together. All methods are safe for concurrent use.
type Dashboard struct {
	store         *dataset.Store
	filters       filter.Registry
	memo          *cache.Memo
	metrics       *metrics.Metrics
	logger        *slog.Logger
	reloadTimeout time.Duration
}

type Option func(*Dashboard)

func WithReloadTimeout(d time.Duration) Option {
	return func(db *Dashboard) {
		if d > 0 {
			db.reloadTimeout = d
		}
	}
}

func NewDashboard(store *dataset.Store, filters filter.Registry, memo *cache.Memo, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dashboard{
		store:         store,
		filters:       filters,
		memo:          memo,
		metrics:       m,
		logger:        logger,
		reloadTimeout: defaultReloadTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dashboard) FilterLists() models.FilterValueLists {
	return d.store.FilterLists()
}

// Selection returns the active selection for a session. With a global
// registry every session shares one selection.
func (d *Dashboard) Selection(sessionID string) models.FilterSelection {
	return d.filters.Store(sessionID).Current()
}

// ApplyFilter validates and stores a new selection, returning the values
// actually applied after fallback to "All".
func (d *Dashboard) ApplyFilter(ctx context.Context, sessionID string, sel models.FilterSelection) models.FilterSelection {
	applied := d.filters.Store(sessionID).Apply(sel)
	observability.LoggerFrom(ctx, d.logger).Debug("filter applied",
		"requested", sel.Key(),
		"applied", applied.Key(),
	)
	return applied
}

// Page computes a page for the session's current selection.
func (d *Dashboard) Page(ctx context.Context, sessionID string, page models.PageID) (*View, error) {
	return d.ComputeView(ctx, page, d.Selection(sessionID))
}

// ComputeView derives a page's tables from the current snapshot. Results are
// memoized per (snapshot version, selection, page).
func (d *Dashboard) ComputeView(ctx context.Context, page models.PageID, sel models.FilterSelection) (*View, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.compute_view")
	defer span.End(observability.LoggerFrom(ctx, d.logger))
	span.SetTag("page", string(page))
	span.SetTag("selection", sel.Key())

	if !page.Valid() {
		err := fmt.Errorf("%w: %q", aggregate.ErrUnknownPage, page)
		span.SetError(err)
		return nil, err
	}

	snap := d.store.Snapshot()
	if snap == nil {
		span.SetError(ErrNotLoaded)
		return nil, ErrNotLoaded
	}

	key := cache.Key{Version: snap.Version, Selection: sel, Page: page}
	entry := d.memo.Do(ctx, key, func() ([]models.DerivedTable, error) {
		start := time.Now()
		tables, err := aggregate.ComputeView(page, snap.Table, sel)
		d.metrics.ObserveCompute(string(page), time.Since(start))
		return tables, err
	})
	d.metrics.CacheResults.WithLabelValues(string(page), string(entry.Status)).Inc()
	span.SetTag("cache", string(entry.Status))

	if entry.Status == cache.StatusError {
		span.SetError(entry.Err)
		return nil, entry.Err
	}

	return &View{
		Page:      page,
		Selection: sel,
		Version:   snap.Version,
		Cache:     entry.Status,
		Tables:    entry.Tables,
	}, nil
}

// ComputeAll computes every page concurrently for one selection, returned in
// navigation order.
func (d *Dashboard) ComputeAll(ctx context.Context, sel models.FilterSelection) ([]*View, error) {
	views := make([]*View, len(models.Pages))

	g, ctx := errgroup.WithContext(ctx)
	for i, page := range models.Pages {
		g.Go(func() error {
			view, err := d.ComputeView(ctx, page, sel)
			if err != nil {
				return fmt.Errorf("page %s: %w", page, err)
			}
			views[i] = view
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// Reload re-reads the dataset and publishes it as a new version. Stored
// selections that name values missing from the new data fall back to "All".
// The previous snapshot stays current when the reload fails.
func (d *Dashboard) Reload(ctx context.Context) (*dataset.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, d.reloadTimeout)
	defer cancel()

	start := time.Now()
	snap, err := d.store.Reload(ctx)
	if err != nil {
		d.metrics.Reloads.WithLabelValues("error").Inc()
		return nil, err
	}

	d.metrics.Reloads.WithLabelValues("ok").Inc()
	d.metrics.ObserveSnapshot(snap)
	d.memo.Purge()
	d.filters.Revalidate()

	d.logger.Info("dataset reloaded",
		"version", snap.Version,
		"records", len(snap.Table),
		"rejected", snap.Rejected,
		"duration", time.Since(start),
	)
	return snap, nil
}

func (d *Dashboard) Ready() bool {
	return d.store.Snapshot() != nil
}

// Stats reports the current snapshot and cache state for monitoring.
func (d *Dashboard) Stats() map[string]any {
	stats := map[string]any{
		"loaded":        false,
		"cache_enabled": d.memo.Enabled(),
		"cache_entries": d.memo.Len(),
	}

	snap := d.store.Snapshot()
	if snap == nil {
		return stats
	}

	stats["loaded"] = true
	stats["record_count"] = len(snap.Table)
	stats["rejected_rows"] = snap.Rejected
	stats["version"] = snap.Version
	stats["source"] = snap.Source
	stats["last_loaded"] = snap.LoadedAt
	stats["states"] = len(snap.Lists.States) - 1
	stats["years"] = len(snap.Lists.Years) - 1
	stats["categories"] = len(snap.Lists.Categories) - 1
	return stats
}
