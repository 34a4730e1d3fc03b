package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"VinSight/internal/domain/models"
)

type fakeSink struct {
	mu    sync.Mutex
	err   error
	calls int
	last  *models.RunResult
}

func (f *fakeSink) Publish(ctx context.Context, res *models.RunResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = res
	return f.err
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeSink) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestAuditBufferPublishes(t *testing.T) {
	sink := &fakeSink{}
	b := NewAuditBuffer(sink, nil)

	res := &models.RunResult{RunID: "u1-1", UserID: "u1"}
	if err := b.Publish(context.Background(), res); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if sink.callCount() != 1 {
		t.Fatalf("expected one publish, got %d", sink.callCount())
	}
}

func TestAuditBufferRejectsInvalid(t *testing.T) {
	b := NewAuditBuffer(&fakeSink{}, nil)
	if err := b.Publish(context.Background(), nil); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := b.Publish(context.Background(), &models.RunResult{}); err == nil {
		t.Fatalf("expected validation error for missing run id")
	}
}

func TestAuditBufferRetriesOnFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("broker down")}
	b := NewAuditBuffer(sink, nil, WithBufferSize(10))

	res := &models.RunResult{RunID: "u1-1", UserID: "u1"}
	if err := b.Publish(context.Background(), res); err == nil {
		t.Fatalf("expected downstream error")
	}

	sink.setErr(nil)
	b.Start(context.Background())
	defer b.Stop()

	deadline := time.After(2 * time.Second)
	for sink.callCount() < 2 {
		select {
		case <-deadline:
			t.Fatalf("buffered result was not flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
