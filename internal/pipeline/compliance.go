package pipeline

import (
	"context"
	"fmt"
	"strings"

	"VinSight/internal/domain/models"
)

const StageCompliance = "compliance_gate"

const (
	minActionConfidence    = 0.6
	minNegativeROIConf     = 0.75
	concentrationLimitPct  = 20.0
)

// ComplianceStage applies deterministic threshold rules to the
// recommendation. All rules are evaluated independently and their reasons
// accumulate; any triggered rule forces FAIL. A missing recommendation or a
// rule panic yields PENDING, which is never a silent pass.
type ComplianceStage struct{}

func NewComplianceStage() *ComplianceStage { return &ComplianceStage{} }

func (s *ComplianceStage) Name() string { return StageCompliance }

func (s *ComplianceStage) Run(ctx context.Context, st *models.PipelineState) (d Delta) {
	defer func() {
		if r := recover(); r != nil {
			d = Delta{
				ComplianceStatus: models.CompliancePending,
				ComplianceReason: fmt.Sprintf("compliance evaluation error: %v", r),
			}
		}
	}()

	rec := st.Recommendation
	if rec == nil {
		return Delta{
			ComplianceStatus: models.CompliancePending,
			ComplianceReason: "no recommendation to validate",
		}
	}

	var reasons []string

	// R1: actionable advice below the confidence floor.
	if (rec.Action == models.ActionBuy || rec.Action == models.ActionSell) && rec.Confidence < minActionConfidence {
		reasons = append(reasons, fmt.Sprintf(
			"confidence %.2f below minimum threshold of %.1f for %s", rec.Confidence, minActionConfidence, rec.Action))
	}

	// R2: buying into a negative expected return without strong conviction.
	if rec.Action == models.ActionBuy && rec.ExpectedROI != nil && *rec.ExpectedROI < 0 && rec.Confidence < minNegativeROIConf {
		reasons = append(reasons, fmt.Sprintf(
			"negative expected ROI %.2f%% requires confidence >= %.2f", *rec.ExpectedROI, minNegativeROIConf))
	}

	// R3: concentration check; only evaluated when the portfolio summary
	// carries the data. Missing data never fails the rule.
	if rec.Action == models.ActionBuy && st.PortfolioSummary != nil && st.PortfolioSummary.TopHoldingPct >= concentrationLimitPct {
		reasons = append(reasons, fmt.Sprintf(
			"portfolio concentration %.1f%% exceeds %.0f%% limit", st.PortfolioSummary.TopHoldingPct, concentrationLimitPct))
	}

	// R4: volume check hook; the data service does not expose traded volume
	// yet, so the rule observes analyzed opportunities and stays advisory.
	_ = len(st.Analysis)

	if len(reasons) > 0 {
		return Delta{
			ComplianceStatus: models.ComplianceFail,
			ComplianceReason: strings.Join(reasons, "; "),
		}
	}
	return Delta{ComplianceStatus: models.CompliancePass}
}
