// Package cache memoizes page computations keyed by dataset version, filter
// selection and page.
package cache

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"sales-dashboard/internal/models"
)

type Status string

const (
	StatusHit   Status = "hit"
	StatusMiss  Status = "miss"
	StatusError Status = "error"
)

// Entry is the outcome of a memoized lookup. Tables is set for hits and misses,
// Err only for StatusError. Tables are shared between callers and must not be
// modified.
type Entry struct {
	Status Status
	Tables []models.DerivedTable
	Err    error
}

// Key identifies one page computation. A reload bumps Version, so results for
// an older dataset are never looked up again.
type Key struct {
	Version   uint64
	Selection models.FilterSelection
	Page      models.PageID
}

func (k Key) String() string {
	return strconv.FormatUint(k.Version, 10) + "|" + string(k.Page) + "|" + k.Selection.Key()
}

type ComputeFunc func() ([]models.DerivedTable, error)

type Memo struct {
	enabled bool
	lru     *LRU[[]models.DerivedTable]
	group   singleflight.Group
}

// NewMemo returns a memo holding up to size results for ttl each. A disabled
// memo runs every computation.
func NewMemo(enabled bool, size int, ttl time.Duration) *Memo {
	return &Memo{
		enabled: enabled,
		lru:     NewLRU[[]models.DerivedTable](size, ttl),
	}
}

func (m *Memo) Enabled() bool {
	return m.enabled
}

// Do returns the cached tables for key or runs compute. Concurrent misses for
// the same key share one computation. Failed computations are not stored.
func (m *Memo) Do(ctx context.Context, key Key, compute ComputeFunc) Entry {
	if !m.enabled {
		return run(compute)
	}

	k := key.String()
	if tables, ok := m.lru.Get(k); ok {
		return Entry{Status: StatusHit, Tables: tables}
	}

	ch := m.group.DoChan(k, func() (any, error) {
		tables, err := compute()
		if err != nil {
			return nil, err
		}
		m.lru.Set(k, tables)
		return tables, nil
	})

	select {
	case <-ctx.Done():
		return Entry{Status: StatusError, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Entry{Status: StatusError, Err: res.Err}
		}
		return Entry{Status: StatusMiss, Tables: res.Val.([]models.DerivedTable)}
	}
}

// Purge drops every stored result.
func (m *Memo) Purge() {
	m.lru.Purge()
}

// Sweep drops expired results and reports how many were removed.
func (m *Memo) Sweep() int {
	return m.lru.CleanExpired()
}

func (m *Memo) Len() int {
	return m.lru.Size()
}

func run(compute ComputeFunc) Entry {
	tables, err := compute()
	if err != nil {
		return Entry{Status: StatusError, Err: err}
	}
	return Entry{Status: StatusMiss, Tables: tables}
}
