package pipeline

import (
	"context"
	"strings"
	"testing"

	"VinSight/internal/domain/models"
)

func TestComplianceLowConfidenceBuyFails(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Recommendation = &models.Recommendation{Action: models.ActionBuy, Confidence: 0.5}

	d := NewComplianceStage().Run(context.Background(), st)

	if d.ComplianceStatus != models.ComplianceFail {
		t.Fatalf("expected FAIL, got %s", d.ComplianceStatus)
	}
	if !strings.Contains(d.ComplianceReason, "0.50 below minimum threshold of 0.6") {
		t.Fatalf("unexpected reason %q", d.ComplianceReason)
	}
}

func TestComplianceConfidentActionPasses(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Recommendation = &models.Recommendation{Action: models.ActionBuy, Confidence: 0.8}

	d := NewComplianceStage().Run(context.Background(), st)

	if d.ComplianceStatus != models.CompliancePass {
		t.Fatalf("expected PASS, got %s %q", d.ComplianceStatus, d.ComplianceReason)
	}
	if d.ComplianceReason != "" {
		t.Fatalf("PASS must carry no reason, got %q", d.ComplianceReason)
	}
}

func TestComplianceHoldNeverTripsConfidenceRule(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Recommendation = &models.Recommendation{Action: models.ActionHold, Confidence: 0.1}

	d := NewComplianceStage().Run(context.Background(), st)

	if d.ComplianceStatus != models.CompliancePass {
		t.Fatalf("HOLD should pass regardless of confidence, got %s", d.ComplianceStatus)
	}
}

func TestComplianceNegativeROIRequiresConviction(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Recommendation = &models.Recommendation{
		Action:      models.ActionBuy,
		Confidence:  0.7,
		ExpectedROI: ptr(-2.5),
	}

	d := NewComplianceStage().Run(context.Background(), st)

	if d.ComplianceStatus != models.ComplianceFail {
		t.Fatalf("expected FAIL, got %s", d.ComplianceStatus)
	}
	if !strings.Contains(d.ComplianceReason, "negative expected ROI") {
		t.Fatalf("unexpected reason %q", d.ComplianceReason)
	}
}

func TestComplianceConcentrationLimit(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Recommendation = &models.Recommendation{Action: models.ActionBuy, Confidence: 0.9}
	st.PortfolioSummary = &models.PortfolioSummary{TopHoldingPct: 35}

	d := NewComplianceStage().Run(context.Background(), st)

	if d.ComplianceStatus != models.ComplianceFail {
		t.Fatalf("expected FAIL, got %s", d.ComplianceStatus)
	}
	if !strings.Contains(d.ComplianceReason, "concentration") {
		t.Fatalf("unexpected reason %q", d.ComplianceReason)
	}
}

func TestComplianceReasonsAccumulate(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Recommendation = &models.Recommendation{
		Action:      models.ActionBuy,
		Confidence:  0.5,
		ExpectedROI: ptr(-1.0),
	}

	d := NewComplianceStage().Run(context.Background(), st)

	if d.ComplianceStatus != models.ComplianceFail {
		t.Fatalf("expected FAIL")
	}
	if !strings.Contains(d.ComplianceReason, "; ") {
		t.Fatalf("expected joined reasons, got %q", d.ComplianceReason)
	}
	if !strings.Contains(d.ComplianceReason, "below minimum threshold") ||
		!strings.Contains(d.ComplianceReason, "negative expected ROI") {
		t.Fatalf("missing a triggered rule in %q", d.ComplianceReason)
	}
}

func TestComplianceMonotonicInConfidence(t *testing.T) {
	// Raising confidence never turns a PASS into a FAIL.
	prevFailed := false
	for conf := 0.95; conf >= 0.0; conf -= 0.05 {
		st := models.NewPipelineState("u1", "")
		st.Recommendation = &models.Recommendation{Action: models.ActionSell, Confidence: conf}
		d := NewComplianceStage().Run(context.Background(), st)
		failed := d.ComplianceStatus == models.ComplianceFail
		if prevFailed && !failed {
			t.Fatalf("lowering confidence to %v un-failed the gate", conf)
		}
		prevFailed = failed
	}
}

func TestComplianceMissingRecommendationPending(t *testing.T) {
	st := models.NewPipelineState("u1", "")

	d := NewComplianceStage().Run(context.Background(), st)

	if d.ComplianceStatus != models.CompliancePending {
		t.Fatalf("expected PENDING, got %s", d.ComplianceStatus)
	}
	if d.ComplianceReason != "no recommendation to validate" {
		t.Fatalf("unexpected reason %q", d.ComplianceReason)
	}
}
