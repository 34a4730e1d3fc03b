package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"VinSight/internal/domain/models"
	domrepo "VinSight/internal/domain/repository"
)

// AuditBuffer sits between the analysis service and the audit sink. A
// publish failure never reaches the caller: the result is parked in a
// bounded buffer and retried in the background with backoff, and dropped
// when the buffer is full.
type AuditBuffer struct {
	sink    domrepo.AuditSink
	metrics domrepo.Metrics
	bufSize int
	bufCh   chan *models.RunResult
	stopCh  chan struct{}
	started bool
	mu      sync.Mutex
}

type BufferOption func(*AuditBuffer)

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) BufferOption {
	return func(b *AuditBuffer) {
		if n > 0 {
			b.bufSize = n
		}
	}
}

// NewAuditBuffer creates a buffered audit publisher.
func NewAuditBuffer(sink domrepo.AuditSink, metrics domrepo.Metrics, opts ...BufferOption) *AuditBuffer {
	b := &AuditBuffer{
		sink:    sink,
		metrics: metrics,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.bufCh = make(chan *models.RunResult, b.bufSize)
	return b
}

// Start launches background flushing of buffered results.
func (b *AuditBuffer) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-b.stopCh:
				return
			case res := <-b.bufCh:
				if res == nil {
					continue
				}
				if err := b.sink.Publish(ctx, res); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					b.recordError("audit_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case b.bufCh <- res:
					default:
						b.recordError("audit_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (b *AuditBuffer) Stop() {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return
	}
	b.started = false
	b.mu.Unlock()
	close(b.stopCh)
}

// Publish forwards a run result to the sink, buffering on failure.
func (b *AuditBuffer) Publish(ctx context.Context, res *models.RunResult) error {
	if res == nil || res.RunID == "" {
		b.recordError("audit_validate")
		return fmt.Errorf("run result invalid")
	}

	if err := b.sink.Publish(ctx, res); err != nil {
		b.recordError("audit_publish")
		select {
		case b.bufCh <- res:
		default:
			b.recordError("audit_buffer_full")
		}
		return fmt.Errorf("audit downstream: %w", err)
	}
	return nil
}

// Close stops flushing and closes the underlying sink.
func (b *AuditBuffer) Close() error {
	b.Stop()
	return b.sink.Close()
}

func (b *AuditBuffer) recordError(kind string) {
	if b.metrics != nil {
		b.metrics.RecordError(kind)
	}
}
