package repository

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"SignalDesk/internal/domain/models"
)

func TestCacheStoreGetReplace(t *testing.T) {
	s := NewCacheStore([]string{"EUR/USD", "BTC/USD"})

	if _, ok := s.Get("EUR/USD"); ok {
		t.Fatalf("expected empty entry before first replace")
	}
	if !s.Known("EUR/USD") || s.Known("DOGE/USD") {
		t.Fatalf("unexpected known set")
	}

	e := &models.CacheEntry{Symbol: "EUR/USD", CycleID: "a"}
	if err := s.Replace("EUR/USD", e); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, ok := s.Get("EUR/USD")
	if !ok || got != e {
		t.Fatalf("expected stored entry")
	}

	if err := s.Replace("DOGE/USD", e); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
	if err := s.Replace("EUR/USD", nil); err == nil {
		t.Fatalf("expected error for nil entry")
	}
}

func TestCacheStoreConcurrentReaders(t *testing.T) {
	s := NewCacheStore([]string{"XAU/USD"})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			id := fmt.Sprint(i)
			_ = s.Replace("XAU/USD", &models.CacheEntry{Symbol: "XAU/USD", CycleID: id, Source: id})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				if e, ok := s.Get("XAU/USD"); ok && e.CycleID != e.Source {
					t.Errorf("observed a mixed entry %+v", e)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestCacheStoreSymbolsCopy(t *testing.T) {
	s := NewCacheStore([]string{"EUR/USD"})
	syms := s.Symbols()
	syms[0] = "changed"
	if s.Symbols()[0] != "EUR/USD" {
		t.Fatalf("Symbols should return a copy")
	}
}
