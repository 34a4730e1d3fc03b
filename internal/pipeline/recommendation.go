package pipeline

import (
	"context"
	"fmt"

	"VinSight/internal/domain/models"
)

const StageRecommendation = "recommendation"

// Momentum thresholds for flipping out of HOLD.
const (
	buyMomentumThreshold  = 2.0
	sellMomentumThreshold = -1.0
	elevatedRiskThreshold = 0.7
)

// RecommendationStage maps the signal bundle and composite risk to a
// BUY/SELL/HOLD advice. The mapping is a fixed function of upstream values
// so identical inputs always yield the identical recommendation.
type RecommendationStage struct{}

func NewRecommendationStage() *RecommendationStage { return &RecommendationStage{} }

func (s *RecommendationStage) Name() string { return StageRecommendation }

func (s *RecommendationStage) Run(ctx context.Context, st *models.PipelineState) Delta {
	if st.Signals == nil {
		return Delta{Warnings: []string{"no computed signals; skipping recommendation"}}
	}

	momentum, avgConf := momentumFrom(st.Predictions)
	var riskScore *float64
	if st.Risk.Available() {
		riskScore = st.Risk.RiskScore
	}

	rec := &models.Recommendation{
		Action:     models.ActionHold,
		AssetID:    st.AssetID,
		Confidence: avgConf,
		RiskScore:  riskScore,
	}

	switch {
	case riskScore != nil && *riskScore > elevatedRiskThreshold:
		rec.Confidence = clamp01(avgConf - 0.05)
		if momentum < 0 {
			rec.Action = models.ActionSell
			rec.AssetID = extremeAsset(st.Predictions, false)
			rec.Rationale = fmt.Sprintf(
				"composite risk %.2f is elevated and portfolio momentum is %+.2f%%; reducing exposure", *riskScore, momentum)
		} else {
			rec.Rationale = fmt.Sprintf(
				"composite risk %.2f is elevated; holding despite %+.2f%% momentum", *riskScore, momentum)
		}
	case momentum >= buyMomentumThreshold:
		rec.Action = models.ActionBuy
		rec.AssetID = extremeAsset(st.Predictions, true)
		rec.Quantity = 1
		rec.ExpectedROI = ptr(momentum)
		conf := avgConf
		if len(st.Analysis) > 0 {
			conf += 0.05 // supporting arbitrage flow
		}
		rec.Confidence = clamp01(conf)
		rec.Rationale = fmt.Sprintf(
			"confidence-weighted momentum %+.2f%% with %d supporting arbitrage opportunities", momentum, len(st.Analysis))
	case momentum <= sellMomentumThreshold:
		rec.Action = models.ActionSell
		rec.AssetID = extremeAsset(st.Predictions, false)
		rec.ExpectedROI = ptr(momentum)
		rec.Rationale = fmt.Sprintf("confidence-weighted momentum %+.2f%% signals deterioration", momentum)
	default:
		rec.Rationale = fmt.Sprintf("momentum %+.2f%% is inside the neutral band; no action warranted", momentum)
	}

	return Delta{Recommendation: rec}
}

// momentumFrom returns the confidence-weighted mean predicted change and the
// plain mean confidence across predictions. With no predictions both default
// to a neutral stance.
func momentumFrom(preds map[string]models.PricePrediction) (momentum, avgConf float64) {
	if len(preds) == 0 {
		return 0, 0.5
	}
	var weighted, weights, confSum float64
	for _, p := range preds {
		weighted += p.PredictedChangePercent * p.Confidence
		weights += p.Confidence
		confSum += p.Confidence
	}
	if weights > 0 {
		momentum = weighted / weights
	}
	return momentum, confSum / float64(len(preds))
}

// extremeAsset picks the asset with the highest (or lowest) predicted change.
// Ties break on asset id so the choice is stable.
func extremeAsset(preds map[string]models.PricePrediction, highest bool) string {
	var bestID string
	var bestChange float64
	for id, p := range preds {
		better := p.PredictedChangePercent > bestChange
		if !highest {
			better = p.PredictedChangePercent < bestChange
		}
		if bestID == "" || better || (p.PredictedChangePercent == bestChange && id < bestID) {
			bestID = id
			bestChange = p.PredictedChangePercent
		}
	}
	return bestID
}
