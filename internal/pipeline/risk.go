package pipeline

import (
	"context"
	"math"
	"strings"

	"VinSight/internal/domain/models"
)

const StageRisk = "risk_evaluation"

// Composite weights; they sum to exactly 1.0 and must be renormalized
// together if ever changed.
const (
	weightVolatility = 0.4
	weightLiquidity  = 0.3
	weightDispersion = 0.3
)

// RiskStage combines prediction spread, arbitrage liquidity and market
// dispersion into one composite score. A composite built from partial
// inputs is worse than no score: if any component is missing the score is
// withheld and the reason names exactly the missing components.
type RiskStage struct{}

func NewRiskStage() *RiskStage { return &RiskStage{} }

func (s *RiskStage) Name() string { return StageRisk }

func (s *RiskStage) Run(ctx context.Context, st *models.PipelineState) Delta {
	rm := &models.RiskMetrics{}

	if len(st.Predictions) > 0 {
		changes := make([]float64, 0, len(st.Predictions))
		for _, p := range st.Predictions {
			changes = append(changes, p.PredictedChangePercent)
		}
		rm.Volatility = ptr(clamp01(math.Sqrt(popVariance(changes)) / 10))
	}

	if len(st.Analysis) > 0 {
		confSum := 0.0
		for _, a := range st.Analysis {
			confSum += a.Confidence
		}
		avgConf := confSum / float64(len(st.Analysis))
		rm.LiquidityRisk = ptr(clamp01(1 - float64(len(st.Analysis))/10*avgConf))
	}

	if len(st.MarketPulse) >= 2 {
		changes := make([]float64, 0, len(st.MarketPulse))
		for _, pct := range st.MarketPulse {
			changes = append(changes, pct)
		}
		rm.MarketDispersion = ptr(clamp01(meanAbsDeviation(changes) / 5))
	}

	var missing []string
	if rm.Volatility == nil {
		missing = append(missing, models.RiskComponentVolatility)
	}
	if rm.LiquidityRisk == nil {
		missing = append(missing, models.RiskComponentLiquidity)
	}
	if rm.MarketDispersion == nil {
		missing = append(missing, models.RiskComponentDispersion)
	}
	if len(missing) > 0 {
		rm.UncertaintyReason = strings.Join(missing, ", ")
		return Delta{Risk: rm}
	}

	score := weightVolatility**rm.Volatility +
		weightLiquidity**rm.LiquidityRisk +
		weightDispersion**rm.MarketDispersion
	rm.RiskScore = ptr(clamp01(score))
	return Delta{Risk: rm}
}
