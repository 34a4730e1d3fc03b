package pipeline

import (
	"context"
	"fmt"
	"strings"

	"VinSight/internal/domain/models"
	drepo "VinSight/internal/domain/repository"
)

const StagePrediction = "price_prediction"

// Fixed trend table: the numeric forecast is always deterministic so runs
// are reproducible without a live model.
const maxPredictedHoldings = 10

// PredictionStage forecasts short-horizon price movement per held asset.
// When a completer is configured it additionally asks for one qualitative
// market commentary; a model failure is silently ignored because the
// commentary is garnish, not input.
type PredictionStage struct {
	llm  drepo.Completer // may be nil
	temp float64
}

func NewPredictionStage(llm drepo.Completer, temperature float64) *PredictionStage {
	return &PredictionStage{llm: llm, temp: temperature}
}

func (s *PredictionStage) Name() string { return StagePrediction }

func (s *PredictionStage) Run(ctx context.Context, st *models.PipelineState) Delta {
	if st.Holdings == nil {
		// Acquisition wrote nothing; keep predictions absent rather than empty.
		return Delta{}
	}

	holdings := st.Holdings
	if len(holdings) > maxPredictedHoldings {
		holdings = holdings[:maxPredictedHoldings]
	}

	preds := make(map[string]models.PricePrediction, len(holdings))
	for _, h := range holdings {
		change, conf := trendForecast(h.Trend)
		preds[h.AssetID] = models.PricePrediction{
			AssetID:                h.AssetID,
			PredictedPrice:         h.CurrentValue * (1 + change/100),
			PredictedChangePercent: change,
			Confidence:             conf,
			Trend:                  h.Trend,
			Reasoning:              trendReason(h.AssetName, h.Trend, change),
		}
	}

	d := Delta{Predictions: preds}
	if s.llm != nil && len(holdings) > 0 {
		if text, err := s.llm.Complete(ctx, commentaryPrompt(holdings, st.MarketPulse), s.temp); err == nil {
			if text = strings.TrimSpace(text); text != "" {
				d.MarketCommentary = text
			}
		}
	}
	return d
}

// trendForecast maps a holding trend to (predicted change %, confidence).
func trendForecast(trend string) (float64, float64) {
	switch trend {
	case "up":
		return 5.0, 0.70
	case "down":
		return -3.0, 0.65
	default:
		return 1.0, 0.60
	}
}

func trendReason(name, trend string, change float64) string {
	switch trend {
	case "up":
		return fmt.Sprintf("%s shows an upward trend; expecting %+.1f%% over the short horizon", name, change)
	case "down":
		return fmt.Sprintf("%s shows a downward trend; expecting %+.1f%% over the short horizon", name, change)
	default:
		return fmt.Sprintf("%s is trading sideways; expecting %+.1f%% over the short horizon", name, change)
	}
}

func commentaryPrompt(holdings []models.Holding, pulse map[string]float64) string {
	var b strings.Builder
	b.WriteString("Give a two-sentence market commentary for a wine portfolio. Holdings:\n")
	for _, h := range holdings {
		fmt.Fprintf(&b, "- %s (%s), value %.2f, trend %s\n", h.AssetName, h.AssetID, h.CurrentValue, h.Trend)
	}
	if len(pulse) > 0 {
		b.WriteString("Regional market pulse (percent change):\n")
		for region, pct := range pulse {
			fmt.Fprintf(&b, "- %s: %+.2f%%\n", region, pct)
		}
	}
	return b.String()
}
