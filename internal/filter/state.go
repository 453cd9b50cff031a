package filter

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"sales-dashboard/internal/cache"
	"sales-dashboard/internal/models"
)

// ListProvider supplies the legal filter values. The dataset store satisfies
// it, so validation follows hot reloads.
type ListProvider interface {
	FilterLists() models.FilterValueLists
}

// Store holds one Filter Selection. Apply replaces all three fields with a
// single pointer swap, so readers never observe a mix of old and new values.
type Store struct {
	lists   ListProvider
	current atomic.Pointer[models.FilterSelection]
	logger  *slog.Logger
}

func NewStore(lists ListProvider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{lists: lists, logger: logger}
	initial := models.DefaultSelection()
	s.current.Store(&initial)
	return s
}

func (s *Store) Current() models.FilterSelection {
	return *s.current.Load()
}

// Apply validates sel and stores it. Unknown values fall back to "All" rather
// than failing. The stored selection is returned.
func (s *Store) Apply(sel models.FilterSelection) models.FilterSelection {
	normalized := s.Normalize(sel)
	if normalized != sel {
		s.logger.Warn("filter selection corrected",
			"submitted", sel.Key(),
			"stored", normalized.Key(),
		)
	}
	s.current.Store(&normalized)
	return normalized
}

// Revalidate re-normalizes the stored selection against the current value
// lists. A concurrent Apply wins over the correction.
func (s *Store) Revalidate() models.FilterSelection {
	for {
		old := s.current.Load()
		normalized := s.Normalize(*old)
		if normalized == *old {
			return normalized
		}
		if s.current.CompareAndSwap(old, &normalized) {
			s.logger.Info("filter selection reset after reload",
				"previous", old.Key(),
				"stored", normalized.Key(),
			)
			return normalized
		}
	}
}

// Normalize replaces every field that is not a member of its value list with
// "All".
func (s *Store) Normalize(sel models.FilterSelection) models.FilterSelection {
	lists := s.lists.FilterLists()
	return models.FilterSelection{
		State:    orAll(sel.State, lists.States),
		Year:     orAll(sel.Year, lists.Years),
		Category: orAll(sel.Category, lists.Categories),
	}
}

func orAll(value string, allowed []string) string {
	if value == models.AllValue || !slices.Contains(allowed, value) {
		return models.AllValue
	}
	return value
}

// Registry resolves the selection store for a client.
type Registry interface {
	Store(sessionID string) *Store
	// Revalidate re-normalizes every live selection, for use after the value
	// lists change.
	Revalidate()
}

// GlobalRegistry shares one selection between every client.
type GlobalRegistry struct {
	store *Store
}

func NewGlobalRegistry(lists ListProvider, logger *slog.Logger) *GlobalRegistry {
	return &GlobalRegistry{store: NewStore(lists, logger)}
}

func (g *GlobalRegistry) Store(string) *Store {
	return g.store
}

func (g *GlobalRegistry) Revalidate() {
	g.store.Revalidate()
}

// SessionRegistry keeps a separate selection per session id. At most limit
// sessions are held; the least recently used is dropped first, and a session
// idle for longer than ttl starts over from the default selection.
type SessionRegistry struct {
	lists  ListProvider
	logger *slog.Logger

	mu     sync.Mutex
	stores *cache.LRU[*Store]
}

func NewSessionRegistry(lists ListProvider, logger *slog.Logger, limit int, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		lists:  lists,
		logger: logger,
		stores: cache.NewLRU[*Store](limit, ttl),
	}
}

// Store returns the session's selection, creating it on first use. Every
// call extends the session's lifetime.
func (r *SessionRegistry) Store(sessionID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores.Get(sessionID)
	if !ok {
		store = NewStore(r.lists, r.logger)
	}
	r.stores.Set(sessionID, store)
	return store
}

func (r *SessionRegistry) Revalidate() {
	for _, store := range r.stores.Values() {
		store.Revalidate()
	}
}

// Sweep drops expired sessions and reports how many were removed.
func (r *SessionRegistry) Sweep() int {
	return r.stores.CleanExpired()
}

func (r *SessionRegistry) Len() int {
	return r.stores.Size()
}
