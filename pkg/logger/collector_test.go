package logger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestCollectorAggregatesRepeats(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Service: "signaldesk", Publisher: pub})

	c.AddLog("error", "fetch failed", map[string]interface{}{"symbol": "EUR/USD"}, "a.go:1")
	c.AddLog("error", "fetch failed", map[string]interface{}{"symbol": "EUR/USD"}, "a.go:1")
	c.AddLog("error", "fetch failed", map[string]interface{}{"symbol": "XAU/USD"}, "a.go:1")
	c.Close()

	if pub.topic != "logs" || len(pub.batches) != 1 {
		t.Fatalf("expected one batch on topic logs, got %d on %q", len(pub.batches), pub.topic)
	}
	counts := map[interface{}]int{}
	for _, e := range pub.batches[0] {
		if e.Service != "signaldesk" {
			t.Fatalf("service not stamped: %+v", e)
		}
		counts[e.Fields["symbol"]] = e.Count
	}
	if counts["EUR/USD"] != 2 || counts["XAU/USD"] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	c.AddLog("warn", "a", nil, "x")
	c.AddLog("warn", "b", nil, "x")
	c.Close()

	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("expected a single batch of 2, got %+v", pub.batches)
	}
}

func TestLoggerFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Publisher: pub})
	l.Error("boom", Error(errors.New("x")), Float64("price", 1.1))
	l.Info("not collected")
	l.RemoveCollector()

	if len(pub.batches) != 1 || len(pub.batches[0]) != 1 {
		t.Fatalf("expected one collected entry, got %+v", pub.batches)
	}
	if got := pub.batches[0][0].Fields["price"]; got != 1.1 {
		t.Fatalf("float field lost: %v", got)
	}
}

func TestChildLoggerSeesLaterCollector(t *testing.T) {
	pub := &capturePublisher{}
	root := Nop()
	child := root.With(String("component", "refresher"))
	root.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Publisher: pub})

	child.Warn("provider slow", Duration("took", 2*time.Second), Error(nil))
	root.RemoveCollector()
	child.Warn("after removal")

	if len(pub.batches) != 1 || len(pub.batches[0]) != 1 {
		t.Fatalf("expected one collected entry, got %+v", pub.batches)
	}
	e := pub.batches[0][0]
	if e.Level != "warn" || e.Fields["took"] != "2s" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if !strings.Contains(e.Caller, "collector_test.go") {
		t.Fatalf("caller should point at the test, got %q", e.Caller)
	}
}
