package usecase

import (
	"context"
	"encoding/json"
	"time"

	drepo "VinSight/internal/domain/repository"
	"VinSight/internal/service/cache"
	"VinSight/pkg/logger"
)

const pulseCacheKey = "winedata:pulse"

// PulseCollector consumes the market pulse stream and keeps the shared
// cache warm so pipeline runs read a fresh pulse without an extra HTTP
// round-trip.
type PulseCollector struct {
	stream  drepo.PulseStream
	cache   cache.BytesCache
	metrics drepo.Metrics
	ttl     time.Duration
	log     *logger.Logger
}

// NewPulseCollector creates a new pulse collector.
func NewPulseCollector(stream drepo.PulseStream, c cache.BytesCache, metrics drepo.Metrics, ttl time.Duration, log *logger.Logger) *PulseCollector {
	return &PulseCollector{stream: stream, cache: c, metrics: metrics, ttl: ttl, log: log}
}

// IsConnected returns true if the pulse stream is connected.
func (p *PulseCollector) IsConnected() bool {
	return p.stream.IsConnected()
}

func (p *PulseCollector) Start(ctx context.Context) error {
	if err := p.stream.Connect(ctx); err != nil {
		return err
	}
	snapCh, errCh := p.stream.Read(ctx)
	go p.consume(ctx, snapCh, errCh)
	return nil
}

func (p *PulseCollector) consume(ctx context.Context, snapCh <-chan map[string]float64, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				if p.metrics != nil {
					p.metrics.RecordError("pulse_stream")
				}
				p.log.Warn("pulse stream error, reconnecting", logger.Error(err))
				_ = p.stream.Reconnect(ctx)
			}
		case snap := <-snapCh:
			if len(snap) == 0 {
				continue
			}
			b, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			if err := p.cache.SetBytes(pulseCacheKey, b, p.ttl); err != nil {
				p.log.Warn("pulse cache write failed", logger.Error(err))
			}
		}
	}
}

func (p *PulseCollector) Stop() error { return p.stream.Close() }
