package usecase

import (
	"context"
	"time"

	"VinSight/internal/domain/models"
	drepo "VinSight/internal/domain/repository"
	mid "VinSight/internal/middleware"
	"VinSight/internal/pipeline"
	"VinSight/pkg/logger"
)

// AnalysisService runs the decision pipeline and fans the result out to
// the audit trail and the outcome store. Both side channels are best
// effort: their failures are logged, never returned to the caller.
type AnalysisService struct {
	runner  *pipeline.Runner
	audit   *mid.AuditBuffer   // may be nil
	store   drepo.OutcomeStore // may be nil
	log     *logger.Logger
	sideTTL time.Duration
}

// NewAnalysisService creates the analysis usecase.
func NewAnalysisService(runner *pipeline.Runner, audit *mid.AuditBuffer, store drepo.OutcomeStore, log *logger.Logger) *AnalysisService {
	return &AnalysisService{
		runner:  runner,
		audit:   audit,
		store:   store,
		log:     log,
		sideTTL: 5 * time.Second,
	}
}

// Analyze executes one pipeline run for the user and records the outcome.
func (s *AnalysisService) Analyze(ctx context.Context, userID, assetID string) *models.RunResult {
	res := s.runner.Run(ctx, userID, assetID)

	// Side effects run against a fresh context so a request cancellation
	// after the run does not lose the audit trail.
	go s.record(res)

	return res
}

func (s *AnalysisService) record(res *models.RunResult) {
	ctx, cancel := context.WithTimeout(context.Background(), s.sideTTL)
	defer cancel()

	if s.audit != nil {
		if err := s.audit.Publish(ctx, res); err != nil {
			s.log.Warn("audit publish failed",
				logger.String("run_id", res.RunID),
				logger.Error(err))
		}
	}
	if s.store != nil {
		if err := s.store.Store(ctx, models.OutcomeFromResult(res)); err != nil {
			s.log.Warn("outcome store failed",
				logger.String("run_id", res.RunID),
				logger.Error(err))
		}
	}
}

// RecentOutcomes returns the latest persisted outcomes for a user.
func (s *AnalysisService) RecentOutcomes(ctx context.Context, userID string, limit int) ([]models.AnalysisOutcome, error) {
	if s.store == nil {
		return []models.AnalysisOutcome{}, nil
	}
	return s.store.Recent(ctx, userID, limit)
}

// OutcomeStoreHealthy reports outcome store reachability.
func (s *AnalysisService) OutcomeStoreHealthy(ctx context.Context) bool {
	if s.store == nil {
		return true
	}
	return s.store.Health(ctx) == nil
}
