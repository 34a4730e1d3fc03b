package models

import "time"

// Termination reasons for a pipeline run.
const (
	TerminatedCompleted = "completed"
	TerminatedEarlyExit = "early_exit"
	TerminatedTimeout   = "timeout"
)

// RunResult is what the pipeline exposes outward for one invocation.
type RunResult struct {
	RunID            string                 `json:"run_id"`
	UserID           string                 `json:"user_id"`
	AssetID          string                 `json:"asset_id,omitempty"`
	Success          bool                   `json:"success"`
	Recommendation   *Recommendation        `json:"recommendation,omitempty"`
	Explanation      string                 `json:"explanation,omitempty"`
	Structured       *StructuredExplanation `json:"structured_explanation,omitempty"`
	ConfidenceScore  *float64               `json:"confidence_score,omitempty"`
	ComplianceStatus ComplianceStatus       `json:"compliance_status,omitempty"`
	RiskScore        *float64               `json:"risk_score,omitempty"`
	Errors           []string               `json:"errors"`
	Warnings         []string               `json:"warnings"`
	ExecutionTimeMS  int64                  `json:"execution_time_ms"`
	TerminatedReason string                 `json:"terminated_reason"`
}

// AnalysisOutcome is the audit row persisted after a run returns.
type AnalysisOutcome struct {
	RunID            string    `json:"run_id"`
	UserID           string    `json:"user_id"`
	AssetID          string    `json:"asset_id"`
	Action           string    `json:"action"`
	Confidence       float64   `json:"confidence"`
	RiskScore        *float64  `json:"risk_score,omitempty"`
	ComplianceStatus string    `json:"compliance_status"`
	Success          bool      `json:"success"`
	TerminatedReason string    `json:"terminated_reason"`
	ErrorCount       int       `json:"error_count"`
	WarningCount     int       `json:"warning_count"`
	ExecutionTimeMS  int64     `json:"execution_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// OutcomeFromResult flattens a run result into its audit row.
func OutcomeFromResult(res *RunResult) *AnalysisOutcome {
	o := &AnalysisOutcome{
		RunID:            res.RunID,
		UserID:           res.UserID,
		AssetID:          res.AssetID,
		ComplianceStatus: string(res.ComplianceStatus),
		Success:          res.Success,
		TerminatedReason: res.TerminatedReason,
		ErrorCount:       len(res.Errors),
		WarningCount:     len(res.Warnings),
		ExecutionTimeMS:  res.ExecutionTimeMS,
		CreatedAt:        time.Now().UTC(),
	}
	if res.Recommendation != nil {
		o.Action = res.Recommendation.Action
		o.Confidence = res.Recommendation.Confidence
	}
	o.RiskScore = res.RiskScore
	return o
}
