package repository

import (
	"context"
	"errors"
	"fmt"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
)

type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaSignalPublisher writes signal events to a Kafka topic keyed by
// instrument.
type KafkaSignalPublisher struct {
	producer messageProducer
	topic    string
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func NewKafkaSignalPublisher(producer messageProducer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, ev models.SignalEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

// Close is a no-op: the producer is shared with the log collector and is
// closed by the app.
func (p *KafkaSignalPublisher) Close() error { return nil }

type namedPublisher struct {
	name string
	pub  domrepo.SignalPublisher
}

// MultiPublisher fans an event out to every registered backend. A failing
// backend does not stop delivery to the others.
type MultiPublisher struct {
	pubs    []namedPublisher
	metrics domrepo.Metrics
}

var _ domrepo.SignalPublisher = (*MultiPublisher)(nil)

func NewMultiPublisher(metrics domrepo.Metrics) *MultiPublisher {
	return &MultiPublisher{metrics: metrics}
}

func (m *MultiPublisher) Add(name string, p domrepo.SignalPublisher) {
	if p == nil {
		return
	}
	m.pubs = append(m.pubs, namedPublisher{name: name, pub: p})
}

func (m *MultiPublisher) Len() int { return len(m.pubs) }

func (m *MultiPublisher) Publish(ctx context.Context, ev models.SignalEvent) error {
	var errs []error
	for _, np := range m.pubs {
		if err := np.pub.Publish(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", np.name, err))
			if m.metrics != nil {
				m.metrics.RecordError("publish_" + np.name)
			}
			continue
		}
		if m.metrics != nil {
			m.metrics.RecordMessageSent(np.name, ev.Symbol)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, np := range m.pubs {
		if err := np.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", np.name, err))
		}
	}
	return errors.Join(errs...)
}
