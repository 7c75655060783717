package repository

import (
	"fmt"
	"sync/atomic"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
)

// CacheStore keeps the latest entry for each configured instrument.
// The key set is fixed at construction, so the map itself is never written
// after NewCacheStore returns; entries are swapped atomically.
type CacheStore struct {
	symbols []string
	entries map[string]*atomic.Pointer[models.CacheEntry]
}

var _ domrepo.EntryStore = (*CacheStore)(nil)

func NewCacheStore(symbols []string) *CacheStore {
	s := &CacheStore{
		symbols: append([]string(nil), symbols...),
		entries: make(map[string]*atomic.Pointer[models.CacheEntry], len(symbols)),
	}
	for _, sym := range symbols {
		s.entries[sym] = &atomic.Pointer[models.CacheEntry]{}
	}
	return s
}

// Get returns the current entry. ok is false when the symbol is unknown or
// has not been populated yet; use Known to tell the two apart.
func (s *CacheStore) Get(symbol string) (*models.CacheEntry, bool) {
	p, ok := s.entries[symbol]
	if !ok {
		return nil, false
	}
	e := p.Load()
	return e, e != nil
}

// Replace publishes e as the symbol's entry.
func (s *CacheStore) Replace(symbol string, e *models.CacheEntry) error {
	p, ok := s.entries[symbol]
	if !ok {
		return fmt.Errorf("cache store: %q: %w", symbol, models.ErrUnknownSymbol)
	}
	if e == nil {
		return fmt.Errorf("cache store: nil entry for %q", symbol)
	}
	p.Store(e)
	return nil
}

func (s *CacheStore) Known(symbol string) bool {
	_, ok := s.entries[symbol]
	return ok
}

// Symbols returns the configured keys in configuration order.
func (s *CacheStore) Symbols() []string {
	return append([]string(nil), s.symbols...)
}
