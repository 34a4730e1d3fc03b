package pipeline

import (
	"context"
	"math"
	"testing"

	"VinSight/internal/domain/models"
)

func fullRiskState() *models.PipelineState {
	st := models.NewPipelineState("u1", "")
	st.Predictions = map[string]models.PricePrediction{
		"W1": {AssetID: "W1", PredictedChangePercent: 5.0, Confidence: 0.70},
		"W2": {AssetID: "W2", PredictedChangePercent: -3.0, Confidence: 0.65},
	}
	st.Analysis = []models.ScoredOpportunity{
		{ArbitrageOpportunity: models.ArbitrageOpportunity{AssetID: "W3", Confidence: 0.9}, ProfitMarginPercent: 10, RiskScore: 0.1},
	}
	st.MarketPulse = map[string]float64{"a": 2.0, "b": 2.0}
	return st
}

func TestRiskCompositeFromAllComponents(t *testing.T) {
	st := fullRiskState()

	d := NewRiskStage().Run(context.Background(), st)

	if !d.Risk.Available() {
		t.Fatalf("expected composite score, reason %q", d.Risk.UncertaintyReason)
	}
	// volatility: changes {5, -3} -> stddev 4 -> 0.4
	if math.Abs(*d.Risk.Volatility-0.4) > 1e-9 {
		t.Fatalf("unexpected volatility %v", *d.Risk.Volatility)
	}
	// liquidity: 1 - 1/10*0.9 = 0.91
	if math.Abs(*d.Risk.LiquidityRisk-0.91) > 1e-9 {
		t.Fatalf("unexpected liquidity %v", *d.Risk.LiquidityRisk)
	}
	// identical regional changes disperse nothing
	if *d.Risk.MarketDispersion != 0 {
		t.Fatalf("unexpected dispersion %v", *d.Risk.MarketDispersion)
	}
	want := 0.4*0.4 + 0.3*0.91
	if math.Abs(*d.Risk.RiskScore-want) > 1e-9 {
		t.Fatalf("composite %v, want %v", *d.Risk.RiskScore, want)
	}
}

func TestRiskScoreStaysInUnitRange(t *testing.T) {
	st := fullRiskState()
	st.Predictions["W3"] = models.PricePrediction{AssetID: "W3", PredictedChangePercent: 500}
	st.MarketPulse["c"] = -80

	d := NewRiskStage().Run(context.Background(), st)

	if !d.Risk.Available() {
		t.Fatalf("expected composite score")
	}
	if *d.Risk.RiskScore < 0 || *d.Risk.RiskScore > 1 {
		t.Fatalf("score out of range: %v", *d.Risk.RiskScore)
	}
}

func TestRiskWithheldWhenComponentMissing(t *testing.T) {
	st := fullRiskState()
	st.MarketPulse = map[string]float64{"a": 2.0} // single region, no dispersion

	d := NewRiskStage().Run(context.Background(), st)

	if d.Risk.Available() {
		t.Fatalf("composite must be withheld with a missing component")
	}
	if d.Risk.UncertaintyReason != models.RiskComponentDispersion {
		t.Fatalf("unexpected reason %q", d.Risk.UncertaintyReason)
	}
}

func TestRiskNamesEveryMissingComponent(t *testing.T) {
	st := models.NewPipelineState("u1", "")

	d := NewRiskStage().Run(context.Background(), st)

	if d.Risk.Available() {
		t.Fatalf("composite must be withheld")
	}
	want := "volatility, liquidity, dispersion"
	if d.Risk.UncertaintyReason != want {
		t.Fatalf("reason %q, want %q", d.Risk.UncertaintyReason, want)
	}
}

func TestRiskLiquidityOnlyMissing(t *testing.T) {
	st := fullRiskState()
	st.Analysis = nil

	d := NewRiskStage().Run(context.Background(), st)

	if d.Risk.UncertaintyReason != models.RiskComponentLiquidity {
		t.Fatalf("unexpected reason %q", d.Risk.UncertaintyReason)
	}
	if d.Risk.Volatility == nil || d.Risk.MarketDispersion == nil {
		t.Fatalf("present components must still be recorded")
	}
}
