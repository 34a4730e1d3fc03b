package pipeline

import (
	"context"
	"fmt"
	"strings"

	"VinSight/internal/domain/models"
	drepo "VinSight/internal/domain/repository"
)

const StageExplanation = "explanation"

const noRecommendationMessage = "no recommendation available"

// ExplanationStage synthesizes the human-readable rationale from upstream
// computed values. The deterministic structured text is the source of
// truth; a model paraphrase is attempted when a completer is configured,
// and any model failure falls back to the deterministic text so the
// explanation is never empty.
type ExplanationStage struct {
	llm  drepo.Completer // may be nil
	temp float64
}

func NewExplanationStage(llm drepo.Completer, temperature float64) *ExplanationStage {
	return &ExplanationStage{llm: llm, temp: temperature}
}

func (s *ExplanationStage) Name() string { return StageExplanation }

func (s *ExplanationStage) Run(ctx context.Context, st *models.PipelineState) Delta {
	if st.Recommendation == nil {
		return Delta{
			Explanation: noRecommendationMessage,
			Structured:  &models.StructuredExplanation{Summary: noRecommendationMessage},
		}
	}

	structured := buildStructured(st)
	text := renderText(st, structured)

	if s.llm != nil {
		prompt := "Rewrite the following trading rationale as two or three natural sentences, " +
			"keeping every number unchanged:\n\n" + text
		if para, err := s.llm.Complete(ctx, prompt, s.temp); err == nil {
			if para = strings.TrimSpace(para); para != "" {
				text = para
			}
		}
	}

	return Delta{Explanation: text, Structured: structured}
}

func buildStructured(st *models.PipelineState) *models.StructuredExplanation {
	rec := st.Recommendation
	out := &models.StructuredExplanation{
		Summary: fmt.Sprintf("%s with %.0f%% confidence", rec.Action, rec.Confidence*100),
	}

	out.Factors = append(out.Factors, models.ExplanationFactor{
		Name:     "recommendation",
		Impact:   impactForAction(rec.Action),
		Weight:   clamp01(rec.Confidence),
		Evidence: rec.Rationale,
	})

	if rec.ExpectedROI != nil {
		impact := "positive"
		if *rec.ExpectedROI < 0 {
			impact = "negative"
		}
		out.Factors = append(out.Factors, models.ExplanationFactor{
			Name:     "expected_roi",
			Impact:   impact,
			Weight:   clamp01(rec.Confidence),
			Evidence: fmt.Sprintf("expected ROI %+.2f%%", *rec.ExpectedROI),
		})
	}

	if st.Risk != nil {
		if st.Risk.Available() {
			impact := "neutral"
			if *st.Risk.RiskScore > elevatedRiskThreshold {
				impact = "negative"
			}
			out.Factors = append(out.Factors, models.ExplanationFactor{
				Name:     "composite_risk",
				Impact:   impact,
				Weight:   *st.Risk.RiskScore,
				Evidence: fmt.Sprintf("composite risk score %.2f", *st.Risk.RiskScore),
			})
			out.RiskAnalysis = fmt.Sprintf("composite risk %.2f from volatility, liquidity and dispersion", *st.Risk.RiskScore)
		} else {
			out.Uncertainty = append(out.Uncertainty,
				fmt.Sprintf("risk score unavailable (missing: %s)", st.Risk.UncertaintyReason))
		}
	}

	if st.ComplianceStatus != "" {
		impact := "neutral"
		if st.ComplianceStatus == models.ComplianceFail {
			impact = "negative"
		}
		evidence := string(st.ComplianceStatus)
		if st.ComplianceReason != "" {
			evidence += ": " + st.ComplianceReason
		}
		out.Factors = append(out.Factors, models.ExplanationFactor{
			Name:     "compliance",
			Impact:   impact,
			Weight:   1.0,
			Evidence: evidence,
		})
	}

	if st.PortfolioSummary != nil {
		out.Factors = append(out.Factors, models.ExplanationFactor{
			Name:   "portfolio_context",
			Impact: "neutral",
			Weight: 0.5,
			Evidence: fmt.Sprintf("portfolio value %.2f across %d holdings",
				st.PortfolioSummary.TotalValue, st.PortfolioSummary.HoldingCount),
		})
	}

	if st.MarketCommentary != "" {
		out.Factors = append(out.Factors, models.ExplanationFactor{
			Name:     "market_commentary",
			Impact:   "neutral",
			Weight:   0.3,
			Evidence: st.MarketCommentary,
		})
	}

	out.Uncertainty = append(out.Uncertainty, st.Warnings...)
	return out
}

func renderText(st *models.PipelineState, structured *models.StructuredExplanation) string {
	rec := st.Recommendation
	var b strings.Builder
	fmt.Fprintf(&b, "Recommendation: %s (%.0f%% confidence). %s.", rec.Action, rec.Confidence*100, rec.Rationale)
	if rec.ExpectedROI != nil {
		fmt.Fprintf(&b, " Expected ROI: %+.2f%%.", *rec.ExpectedROI)
	}
	if st.ComplianceStatus != "" {
		fmt.Fprintf(&b, " Compliance: %s", st.ComplianceStatus)
		if st.ComplianceReason != "" {
			fmt.Fprintf(&b, " (%s)", st.ComplianceReason)
		}
		b.WriteString(".")
	}
	if st.PortfolioSummary != nil {
		fmt.Fprintf(&b, " Portfolio context: %.2f across %d holdings.",
			st.PortfolioSummary.TotalValue, st.PortfolioSummary.HoldingCount)
	}
	for _, u := range structured.Uncertainty {
		fmt.Fprintf(&b, " Note: %s.", u)
	}
	return b.String()
}

func impactForAction(action string) string {
	switch action {
	case models.ActionBuy:
		return "positive"
	case models.ActionSell:
		return "negative"
	default:
		return "neutral"
	}
}
