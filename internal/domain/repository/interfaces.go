package repository

import (
	"context"

	"SignalDesk/internal/domain/models"
)

// EntryStore holds the latest CacheEntry per instrument.
// Get never blocks on a refresh; Replace swaps the whole entry.
type EntryStore interface {
	Get(symbol string) (*models.CacheEntry, bool)
	Replace(symbol string, e *models.CacheEntry) error
	Symbols() []string
}

// SignalPublisher forwards signal events to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, ev models.SignalEvent) error
	Close() error
}

type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordRefresh(symbol, status string)
	RecordSignal(symbol string, score float64)
	RecordDegraded(symbol string, degraded bool)
}
