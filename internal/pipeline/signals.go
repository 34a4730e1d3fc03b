package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"

	"VinSight/internal/domain/models"
)

const StageSignals = "signal_calculation"

// SignalStage normalizes predictions, analyzed opportunities and raw
// market/portfolio data into one signal bundle. It is a pure derivation
// with no external calls; malformed input is reported as an error with an
// empty bundle instead of propagating.
type SignalStage struct{}

func NewSignalStage() *SignalStage { return &SignalStage{} }

func (s *SignalStage) Name() string { return StageSignals }

func (s *SignalStage) Run(ctx context.Context, st *models.PipelineState) (d Delta) {
	defer func() {
		if r := recover(); r != nil {
			d = Delta{
				Signals: &models.ComputedSignals{},
				Errors:  []string{fmt.Sprintf("signal calculation failed: %v", r)},
			}
		}
	}()

	sig := &models.ComputedSignals{}

	if len(st.Predictions) > 0 {
		// Map iteration order is random; emit price signals sorted by asset
		// so identical inputs produce identical bundles.
		ids := make([]string, 0, len(st.Predictions))
		for id := range st.Predictions {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		sig.Price = make([]models.PriceSignal, 0, len(ids))
		for _, id := range ids {
			p := st.Predictions[id]
			sig.Price = append(sig.Price, models.PriceSignal{
				AssetID:        id,
				SignalStrength: math.Abs(p.PredictedChangePercent) * p.Confidence,
				Direction:      p.Trend,
			})
		}
	}

	if len(st.Analysis) > 0 {
		sig.Arbitrage = make([]models.ArbitrageSignal, 0, len(st.Analysis))
		for _, a := range st.Analysis {
			sig.Arbitrage = append(sig.Arbitrage, models.ArbitrageSignal{
				AssetID:        a.AssetID,
				SignalStrength: a.ProfitMarginPercent * a.Confidence,
			})
		}
	}

	if len(st.MarketPulse) > 0 {
		changes := make([]float64, 0, len(st.MarketPulse))
		for _, pct := range st.MarketPulse {
			changes = append(changes, pct)
		}
		sig.Market = models.MarketSignals{
			AverageChange: mean(changes),
			Volatility:    popStddev(changes),
			Regions:       len(changes),
		}
	}

	if len(st.Holdings) > 0 {
		total := 0.0
		for _, h := range st.Holdings {
			total += h.CurrentValue
		}
		sig.Portfolio = models.PortfolioSignals{
			TotalValue:      total,
			AvgHoldingValue: total / float64(len(st.Holdings)),
			Holdings:        len(st.Holdings),
		}
	}

	return Delta{Signals: sig}
}
