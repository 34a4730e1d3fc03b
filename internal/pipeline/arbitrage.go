package pipeline

import (
	"context"

	"VinSight/internal/domain/models"
)

const StageArbitrage = "arbitrage_analysis"

const (
	maxAnalyzedOpportunities = 10
	minProfitMarginPercent   = 2.0
	maxOpportunityRisk       = 0.7
)

// ArbitrageStage scores cross-region opportunities by profit margin and
// confidence-derived risk, keeping only the ones worth acting on. Input
// order is preserved.
type ArbitrageStage struct{}

func NewArbitrageStage() *ArbitrageStage { return &ArbitrageStage{} }

func (s *ArbitrageStage) Name() string { return StageArbitrage }

func (s *ArbitrageStage) Run(ctx context.Context, st *models.PipelineState) Delta {
	if st.Opportunities == nil {
		return Delta{}
	}

	opps := st.Opportunities
	if len(opps) > maxAnalyzedOpportunities {
		opps = opps[:maxAnalyzedOpportunities]
	}

	analyzed := make([]models.ScoredOpportunity, 0, len(opps))
	for _, opp := range opps {
		margin := 0.0
		if opp.BuyPrice > 0 {
			margin = opp.ExpectedProfit / opp.BuyPrice * 100
		}
		risk := clamp01(1 - opp.Confidence)
		if margin < minProfitMarginPercent || risk > maxOpportunityRisk {
			continue
		}
		analyzed = append(analyzed, models.ScoredOpportunity{
			ArbitrageOpportunity: opp,
			ProfitMarginPercent:  margin,
			RiskScore:            risk,
		})
	}
	return Delta{Analysis: analyzed}
}
