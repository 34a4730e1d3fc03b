package repository

import (
	"context"

	"VinSight/internal/domain/models"
)

// DataService is the read-only contract to the backend that owns portfolio,
// market and arbitrage data. All calls are idempotent and side-effect free.
type DataService interface {
	Health(ctx context.Context) error
	PortfolioSummary(ctx context.Context, userID string) (*models.PortfolioSummary, error)
	Holdings(ctx context.Context, userID string) ([]models.Holding, error)
	MarketPulse(ctx context.Context) (map[string]float64, error)
	ArbitrageOpportunities(ctx context.Context, limit int) ([]models.ArbitrageOpportunity, error)
}

// Completer is the generative-language collaborator. Implementations must
// honor ctx deadlines; unavailability is reported as an error and never
// aborts the caller's pipeline.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// PulseStream is an optional push feed of market pulse snapshots.
type PulseStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan map[string]float64, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// AuditSink receives run results after the pipeline returns.
type AuditSink interface {
	Publish(ctx context.Context, res *models.RunResult) error
	Close() error
}

// OutcomeStore persists and queries flattened analysis outcomes.
type OutcomeStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, o *models.AnalysisOutcome) error
	Recent(ctx context.Context, userID string, limit int) ([]models.AnalysisOutcome, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational measurements for pipeline runs.
type Metrics interface {
	RecordRun(reason string, success bool)
	RecordStageLatency(stage string, seconds float64)
	RecordError(kind string)
	RecordRiskScore(userID string, score float64)
}
