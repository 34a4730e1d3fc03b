package pipeline

import (
	"context"

	"VinSight/internal/domain/models"
)

// Stage is one step of the analysis pipeline. A stage never returns an
// error: failures are reported through the Errors/Warnings of its Delta and
// the pipeline always proceeds with whatever state exists.
type Stage interface {
	Name() string
	Run(ctx context.Context, st *models.PipelineState) Delta
}

// Delta is the set of fields a stage contributes. The runner merges deltas
// into the shared state in stage order; a stage only ever sets its own
// output fields, so merging is a plain overwrite of non-zero members.
type Delta struct {
	PortfolioSummary *models.PortfolioSummary
	Holdings         []models.Holding
	MarketPulse      map[string]float64
	Opportunities    []models.ArbitrageOpportunity

	Predictions map[string]models.PricePrediction
	Analysis    []models.ScoredOpportunity
	Signals     *models.ComputedSignals
	Risk        *models.RiskMetrics

	Recommendation   *models.Recommendation
	ComplianceStatus models.ComplianceStatus
	ComplianceReason string
	MarketCommentary string
	Explanation      string
	Structured       *models.StructuredExplanation

	Errors   []string
	Warnings []string

	// Halt asks the runner to stop after this stage (early exit).
	Halt bool
}

// Merge applies the delta to the state. Errors and warnings append; data
// fields written by earlier stages are never rolled back.
func (d Delta) Merge(st *models.PipelineState) {
	if d.PortfolioSummary != nil {
		st.PortfolioSummary = d.PortfolioSummary
	}
	if d.Holdings != nil {
		st.Holdings = d.Holdings
	}
	if d.MarketPulse != nil {
		st.MarketPulse = d.MarketPulse
	}
	if d.Opportunities != nil {
		st.Opportunities = d.Opportunities
	}
	if d.Predictions != nil {
		st.Predictions = d.Predictions
	}
	if d.Analysis != nil {
		st.Analysis = d.Analysis
	}
	if d.Signals != nil {
		st.Signals = d.Signals
	}
	if d.Risk != nil {
		st.Risk = d.Risk
	}
	if d.Recommendation != nil {
		st.Recommendation = d.Recommendation
	}
	if d.ComplianceStatus != "" {
		st.ComplianceStatus = d.ComplianceStatus
	}
	if d.ComplianceReason != "" {
		st.ComplianceReason = d.ComplianceReason
	}
	if d.MarketCommentary != "" {
		st.MarketCommentary = d.MarketCommentary
	}
	if d.Explanation != "" {
		st.Explanation = d.Explanation
	}
	if d.Structured != nil {
		st.Structured = d.Structured
	}
	st.Errors = append(st.Errors, d.Errors...)
	st.Warnings = append(st.Warnings, d.Warnings...)
}

func errDelta(msgs ...string) Delta { return Delta{Errors: msgs} }
