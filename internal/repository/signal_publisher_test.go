package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"SignalDesk/internal/domain/models"
)

type fakeProducer struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaSignalPublisherKeysBySymbol(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaSignalPublisher(fp, "signals")
	ev := models.SignalEvent{Symbol: "BTC/USD", Label: models.SignalBuy, Score: 3}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if fp.topic != "signals" || string(fp.key) != "BTC/USD" {
		t.Fatalf("unexpected topic/key %s/%s", fp.topic, fp.key)
	}
	b, _ := json.Marshal(fp.value)
	var got map[string]interface{}
	_ = json.Unmarshal(b, &got)
	if got["signal"] != "BUY" || got["symbol"] != "BTC/USD" {
		t.Fatalf("unexpected payload %s", b)
	}
}

type recPublisher struct {
	n   int
	err error
}

func (r *recPublisher) Publish(context.Context, models.SignalEvent) error { r.n++; return r.err }
func (r *recPublisher) Close() error                                      { return nil }

func TestMultiPublisherContinuesPastFailures(t *testing.T) {
	bad := &recPublisher{err: errors.New("down")}
	good := &recPublisher{}
	m := NewMultiPublisher(nil)
	m.Add("kafka", bad)
	m.Add("ws", good)
	m.Add("nil", nil)

	err := m.Publish(context.Background(), models.SignalEvent{Symbol: "EUR/USD"})
	if err == nil || good.n != 1 || bad.n != 1 {
		t.Fatalf("expected error and both publishers called, err=%v good=%d bad=%d", err, good.n, bad.n)
	}
	if m.Len() != 2 {
		t.Fatalf("nil publishers should be skipped")
	}
}
