package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/folio/internal/core"
)

type memoryKey struct {
	fund    string
	holding string
	asOf    string
}

type memoryEntry struct {
	row       Row
	asOf      string
	provider  string
	quality   core.DataQuality
	fetchedAt time.Time
}

// MemoryStore is an in-memory cache.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[memoryKey]memoryEntry
}

// NewMemoryStore creates an empty in-memory cache.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memoryKey]memoryEntry)}
}

// Write replaces the snapshot of fund for asOf.
func (m *MemoryStore) Write(ctx context.Context, fund string, rows []Row, asOf, provider string, quality core.DataQuality) error {
	if len(rows) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.entries {
		if k.fund == fund && k.asOf == asOf {
			delete(m.entries, k)
		}
	}
	fetched := now()
	for _, r := range rows {
		m.entries[memoryKey{fund: fund, holding: r.Key(), asOf: asOf}] = memoryEntry{
			row:       r,
			asOf:      asOf,
			provider:  provider,
			quality:   quality,
			fetchedAt: fetched,
		}
	}
	return nil
}

// HasRecent reports whether any row for the fund is newer than the cutoff.
func (m *MemoryStore) HasRecent(ctx context.Context, fund string, maxAgeDays int) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := cutoff(maxAgeDays)
	for k, e := range m.entries {
		if k.fund == fund && !e.fetchedAt.Before(limit) {
			return true, nil
		}
	}
	return false, nil
}

// ReadLatest returns the rows of the newest as-of date.
func (m *MemoryStore) ReadLatest(ctx context.Context, fund string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest, found := "", false
	for k := range m.entries {
		if k.fund == fund && (!found || k.asOf > latest) {
			latest, found = k.asOf, true
		}
	}
	if !found {
		return nil, nil
	}

	snap := &Snapshot{Fund: fund, AsOfDate: latest}
	for k, e := range m.entries {
		if k.fund != fund || k.asOf != latest {
			continue
		}
		snap.Rows = append(snap.Rows, e.row)
		if !e.fetchedAt.Before(snap.FetchedAt) {
			snap.FetchedAt = e.fetchedAt
			snap.Provider = e.provider
			snap.Quality = e.quality
		}
	}
	sort.Slice(snap.Rows, func(i, j int) bool {
		if snap.Rows[i].Weight != snap.Rows[j].Weight {
			return snap.Rows[i].Weight > snap.Rows[j].Weight
		}
		return snap.Rows[i].Name < snap.Rows[j].Name
	})
	return snap, nil
}

// Len returns the number of stored rows.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
