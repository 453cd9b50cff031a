package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"sales-dashboard/internal/models"
)

// Snapshot is one immutable generation of the loaded dataset. Readers keep
// the pointer they obtained for the duration of a computation.
type Snapshot struct {
	Table    models.Table
	Lists    models.FilterValueLists
	Version  uint64
	LoadedAt time.Time
	Source   string
	Rejected int
}

// Store owns the current snapshot. Reload builds a complete new snapshot and
// swaps the pointer, so in-flight computations never see a partial table.
type Store struct {
	loader  *Loader
	path    string
	current atomic.Pointer[Snapshot]
	version atomic.Uint64
	reload  sync.Mutex
	logger  *slog.Logger
}

func NewStore(loader *Loader, path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		loader: loader,
		path:   path,
		logger: logger,
	}
}

// Reload reads the configured file and publishes it as a new version. It also
// performs the initial load. On failure the previous snapshot, if any, stays
// current.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	if s.loader == nil {
		return nil, fmt.Errorf("dataset store has no loader")
	}

	s.reload.Lock()
	defer s.reload.Unlock()

	res, err := s.loader.Load(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", s.path, err)
	}

	snap := s.publish(res.Table, res.Lists, s.path, res.Rejected)
	s.logger.Info("dataset published",
		"version", snap.Version,
		"records", len(snap.Table),
		"rejected", snap.Rejected,
	)
	return snap, nil
}

// Set publishes an in-memory table, deriving its filter value lists.
func (s *Store) Set(table models.Table) *Snapshot {
	s.reload.Lock()
	defer s.reload.Unlock()
	return s.publish(table, models.BuildFilterValueLists(table), "memory", 0)
}

func (s *Store) publish(table models.Table, lists models.FilterValueLists, source string, rejected int) *Snapshot {
	snap := &Snapshot{
		Table:    table,
		Lists:    lists,
		Version:  s.version.Add(1),
		LoadedAt: time.Now(),
		Source:   source,
		Rejected: rejected,
	}
	s.current.Store(snap)
	return snap
}

// Snapshot returns the current generation, or nil before the first load.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// FilterLists returns the value lists of the current snapshot.
func (s *Store) FilterLists() models.FilterValueLists {
	if snap := s.current.Load(); snap != nil {
		return snap.Lists
	}
	return models.BuildFilterValueLists(nil)
}
