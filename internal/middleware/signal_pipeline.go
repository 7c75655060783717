package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
)

// SignalPipeline sits between the refresher and the publishers.
// It validates events, drops repeats of an already forwarded cycle,
// throttles per instrument and buffers when downstream is unavailable.
type SignalPipeline struct {
	next        domrepo.SignalPublisher
	metrics     domrepo.Metrics
	minInterval time.Duration
	bufCh       chan models.SignalEvent
	stopCh      chan struct{}
	doneCh      chan struct{}
	started     bool
	mu          sync.Mutex
	lastSent    map[string]sentMark
	retryDelay  time.Duration
}

type sentMark struct {
	cycle string
	at    time.Time
}

var _ domrepo.SignalPublisher = (*SignalPipeline)(nil)

type PipelineOption func(*SignalPipeline)

// WithMinInterval sets the minimum spacing between events of one instrument.
func WithMinInterval(d time.Duration) PipelineOption {
	return func(p *SignalPipeline) {
		if d >= 0 {
			p.minInterval = d
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *SignalPipeline) {
		if n > 0 {
			p.bufCh = make(chan models.SignalEvent, n)
		}
	}
}

// WithRetryDelay sets the initial backoff for buffered retries.
func WithRetryDelay(d time.Duration) PipelineOption {
	return func(p *SignalPipeline) {
		if d > 0 {
			p.retryDelay = d
		}
	}
}

func NewSignalPipeline(next domrepo.SignalPublisher, metrics domrepo.Metrics, opts ...PipelineOption) *SignalPipeline {
	p := &SignalPipeline{
		next:        next,
		metrics:     metrics,
		minInterval: time.Second,
		bufCh:       make(chan models.SignalEvent, 256),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		lastSent:    make(map[string]sentMark),
		retryDelay:  50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches background flushing of buffered events.
func (p *SignalPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		backoff := p.retryDelay
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case ev := <-p.bufCh:
				if err := p.next.Publish(ctx, ev); err != nil {
					p.recordError("pipeline_flush")
					if backoff < 2*time.Second {
						backoff *= 2
					}
					select {
					case <-time.After(backoff):
					case <-p.stopCh:
						return
					case <-ctx.Done():
						return
					}
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- ev:
					default:
						p.recordError("pipeline_buffer_drop")
					}
					continue
				}
				backoff = p.retryDelay
			}
		}
	}()
}

// Stop stops the background flushing. Buffered events are dropped.
func (p *SignalPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh
}

// Publish validates, throttles and forwards ev, buffering on downstream errors.
func (p *SignalPipeline) Publish(ctx context.Context, ev models.SignalEvent) error {
	start := time.Now()
	if err := validateEvent(ev); err != nil {
		p.recordError("pipeline_validate")
		return err
	}
	if !p.allow(ev, start) {
		p.recordError("pipeline_throttle")
		return nil
	}

	if err := p.next.Publish(ctx, ev); err != nil {
		p.recordError("pipeline_process")
		select {
		case p.bufCh <- ev:
		default:
			p.recordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
	}
	return nil
}

// Close stops the flusher and closes the downstream publisher.
func (p *SignalPipeline) Close() error {
	p.Stop()
	return p.next.Close()
}

// Buffered reports how many events wait for a retry.
func (p *SignalPipeline) Buffered() int { return len(p.bufCh) }

func (p *SignalPipeline) recordError(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}

func validateEvent(ev models.SignalEvent) error {
	if ev.Symbol == "" {
		return errors.New("event symbol empty")
	}
	if ev.CycleID == "" {
		return errors.New("event cycle id empty")
	}
	if ev.Timestamp.IsZero() {
		return errors.New("event timestamp missing")
	}
	switch ev.Label {
	case models.SignalBuy, models.SignalSell, models.SignalNeutral:
	default:
		return fmt.Errorf("event label %q invalid", ev.Label)
	}
	if ev.Price <= 0 {
		return errors.New("event price not positive")
	}
	return nil
}

func (p *SignalPipeline) allow(ev models.SignalEvent, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSent[ev.Symbol]
	if ok && (last.cycle == ev.CycleID || now.Sub(last.at) < p.minInterval) {
		return false
	}
	p.lastSent[ev.Symbol] = sentMark{cycle: ev.CycleID, at: now}
	return true
}
