package pipeline

import (
	"context"
	"fmt"
	"time"

	"VinSight/internal/domain/models"
	drepo "VinSight/internal/domain/repository"
	"VinSight/pkg/logger"
)

// Runner executes the analysis stages sequentially against one shared
// state. Stage failures accumulate inside the state; only an acquisition
// halt or the run deadline stops a run before the last stage.
type Runner struct {
	stages  []Stage
	log     *logger.Logger
	metrics drepo.Metrics
	timeout time.Duration
}

func NewRunner(stages []Stage, log *logger.Logger, metrics drepo.Metrics, timeout time.Duration) *Runner {
	return &Runner{stages: stages, log: log, metrics: metrics, timeout: timeout}
}

// DefaultStages wires the canonical stage order. The completer may be nil;
// prediction and explanation then skip their enrichment calls.
func DefaultStages(svc drepo.DataService, llm drepo.Completer, oppLimit int, temperature float64) []Stage {
	return []Stage{
		NewAcquisitionStage(svc, oppLimit),
		NewPredictionStage(llm, temperature),
		NewArbitrageStage(),
		NewSignalStage(),
		NewRiskStage(),
		NewRecommendationStage(),
		NewComplianceStage(),
		NewExplanationStage(llm, temperature),
	}
}

// Run executes the pipeline for one user. Replaying the same request
// against unchanged inputs yields the same result, modulo timing fields.
func (r *Runner) Run(ctx context.Context, userID, assetID string) *models.RunResult {
	start := time.Now()
	runID := fmt.Sprintf("%s-%d", userID, start.UnixNano())

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	st := models.NewPipelineState(userID, assetID)
	terminated := models.TerminatedCompleted

	r.log.Info("pipeline run started",
		logger.String("run_id", runID),
		logger.String("user_id", userID),
		logger.Int("stages", len(r.stages)))

	reachedExplanation := false
	for _, stage := range r.stages {
		if err := ctx.Err(); err != nil {
			terminated = models.TerminatedTimeout
			st.Errors = append(st.Errors, fmt.Sprintf("pipeline timed out before %s: %v", stage.Name(), err))
			break
		}

		stageStart := time.Now()
		delta := stage.Run(ctx, st)
		delta.Merge(st)
		if stage.Name() == StageExplanation {
			reachedExplanation = true
		}

		elapsed := time.Since(stageStart)
		if r.metrics != nil {
			r.metrics.RecordStageLatency(stage.Name(), elapsed.Seconds())
			for range delta.Errors {
				r.metrics.RecordError(stage.Name())
			}
		}
		r.log.Debug("stage finished",
			logger.String("run_id", runID),
			logger.String("stage", stage.Name()),
			logger.Duration("elapsed", elapsed),
			logger.Int("errors", len(delta.Errors)))

		if delta.Halt {
			terminated = models.TerminatedEarlyExit
			break
		}
	}

	if ctx.Err() != nil && terminated == models.TerminatedCompleted {
		terminated = models.TerminatedTimeout
	}

	res := buildResult(runID, st, terminated, reachedExplanation, time.Since(start))

	if r.metrics != nil {
		if res.RiskScore != nil {
			r.metrics.RecordRiskScore(userID, *res.RiskScore)
		}
		r.metrics.RecordRun(res.TerminatedReason, res.Success)
	}

	r.log.Info("pipeline run finished",
		logger.String("run_id", runID),
		logger.String("terminated", res.TerminatedReason),
		logger.Bool("success", res.Success),
		logger.Int("errors", len(res.Errors)),
		logger.Int64("execution_ms", res.ExecutionTimeMS))

	return res
}

// buildResult flattens the final state into the outward-facing result.
func buildResult(runID string, st *models.PipelineState, terminated string, reachedExplanation bool, elapsed time.Duration) *models.RunResult {
	res := &models.RunResult{
		RunID:            runID,
		UserID:           st.UserID,
		AssetID:          st.AssetID,
		Success:          reachedExplanation && st.Recommendation != nil,
		Recommendation:   st.Recommendation,
		Explanation:      st.Explanation,
		Structured:       st.Structured,
		ComplianceStatus: st.ComplianceStatus,
		Errors:           st.Errors,
		Warnings:         st.Warnings,
		ExecutionTimeMS:  elapsed.Milliseconds(),
		TerminatedReason: terminated,
	}
	if st.Recommendation != nil {
		res.ConfidenceScore = ptr(st.Recommendation.Confidence)
	}
	if st.Risk.Available() {
		res.RiskScore = st.Risk.RiskScore
	}
	return res
}
