package models

// PortfolioSummary is the aggregate view of a user's cellar returned by the
// wine data service.
type PortfolioSummary struct {
	UserID        string  `json:"user_id"`
	TotalValue    float64 `json:"total_value"`
	HoldingCount  int     `json:"holding_count"`
	TopHoldingPct float64 `json:"top_holding_pct"` // largest holding as a share of total value, 0..100
	Currency      string  `json:"currency"`
}

// Holding is a single position in the user's cellar.
type Holding struct {
	AssetID      string  `json:"asset_id"`
	AssetName    string  `json:"asset_name"`
	CurrentValue float64 `json:"current_value"`
	Trend        string  `json:"trend"` // "up", "down", "stable"
}

// ArbitrageOpportunity is a cross-region price gap candidate from the data service.
type ArbitrageOpportunity struct {
	AssetID        string  `json:"asset_id"`
	AssetName      string  `json:"asset_name"`
	BuyRegion      string  `json:"buy_region"`
	SellRegion     string  `json:"sell_region"`
	BuyPrice       float64 `json:"buy_price"`
	SellPrice      float64 `json:"sell_price"`
	ExpectedProfit float64 `json:"expected_profit"`
	Confidence     float64 `json:"confidence"` // 0..1
}

// PricePrediction is a short-horizon forecast for one held asset.
type PricePrediction struct {
	AssetID                string  `json:"asset_id"`
	PredictedPrice         float64 `json:"predicted_price"`
	PredictedChangePercent float64 `json:"predicted_change_percent"`
	Confidence             float64 `json:"confidence"` // 0..1
	Trend                  string  `json:"trend"`
	Reasoning              string  `json:"reasoning"`
}

// ScoredOpportunity is an arbitrage opportunity enriched with margin and risk.
type ScoredOpportunity struct {
	ArbitrageOpportunity
	ProfitMarginPercent float64 `json:"profit_margin_percent"`
	RiskScore           float64 `json:"risk_score"` // 0..1, derived from confidence
}

// PriceSignal summarizes one price prediction for downstream consumption.
type PriceSignal struct {
	AssetID        string  `json:"asset_id"`
	SignalStrength float64 `json:"signal_strength"` // |change%| x confidence
	Direction      string  `json:"direction"`       // "up", "down", "stable"
}

// ArbitrageSignal summarizes one scored opportunity.
type ArbitrageSignal struct {
	AssetID        string  `json:"asset_id"`
	SignalStrength float64 `json:"signal_strength"` // margin% x confidence
}

// MarketSignals aggregates the per-region market pulse.
type MarketSignals struct {
	AverageChange float64 `json:"average_change"`
	Volatility    float64 `json:"volatility"` // population stddev, 0 if fewer than 2 regions
	Regions       int     `json:"regions"`
}

// PortfolioSignals aggregates the holdings snapshot.
type PortfolioSignals struct {
	TotalValue      float64 `json:"total_value"`
	AvgHoldingValue float64 `json:"avg_holding_value"`
	Holdings        int     `json:"holdings"`
}

// ComputedSignals is the unified signal bundle derived from all raw inputs.
// It is a pure view over upstream data and is never persisted on its own.
type ComputedSignals struct {
	Price     []PriceSignal    `json:"price_signals"`
	Arbitrage []ArbitrageSignal `json:"arbitrage_signals"`
	Market    MarketSignals    `json:"market_signals"`
	Portfolio PortfolioSignals `json:"portfolio_signals"`
}

// Risk component names used in UncertaintyReason.
const (
	RiskComponentVolatility = "volatility"
	RiskComponentLiquidity  = "liquidity"
	RiskComponentDispersion = "dispersion"
)

// RiskMetrics carries the composite risk evaluation. A nil RiskScore means
// the composite is unavailable; UncertaintyReason then names the missing
// components joined by ", ".
type RiskMetrics struct {
	Volatility        *float64 `json:"volatility,omitempty"`
	LiquidityRisk     *float64 `json:"liquidity_risk,omitempty"`
	MarketDispersion  *float64 `json:"market_dispersion,omitempty"`
	RiskScore         *float64 `json:"risk_score,omitempty"`
	UncertaintyReason string   `json:"uncertainty_reason,omitempty"`
}

// Available reports whether a composite score was computed.
func (r *RiskMetrics) Available() bool { return r != nil && r.RiskScore != nil }

// Recommendation actions.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
	ActionHold = "HOLD"
)

// Recommendation is the pipeline's trading advice for the analysis subject.
type Recommendation struct {
	Action      string   `json:"action"` // BUY, SELL, HOLD
	AssetID     string   `json:"asset_id,omitempty"`
	Quantity    float64  `json:"quantity,omitempty"`
	ExpectedROI *float64 `json:"expected_roi,omitempty"` // percent
	RiskScore   *float64 `json:"risk_score,omitempty"`
	Confidence  float64  `json:"confidence"` // 0..1
	Rationale   string   `json:"rationale"`
}

// ComplianceStatus is the verdict of the compliance gate.
type ComplianceStatus string

const (
	CompliancePass    ComplianceStatus = "PASS"
	ComplianceFail    ComplianceStatus = "FAIL"
	CompliancePending ComplianceStatus = "PENDING" // not evaluated or evaluation errored; never a silent pass
)

// ExplanationFactor is one weighted contributor in the structured explanation.
type ExplanationFactor struct {
	Name     string  `json:"name"`
	Impact   string  `json:"impact"` // "positive", "negative", "neutral"
	Weight   float64 `json:"weight"` // 0..1
	Evidence string  `json:"evidence"`
}

// StructuredExplanation is the machine-readable rationale built strictly
// from upstream computed values.
type StructuredExplanation struct {
	Summary      string              `json:"summary"`
	Factors      []ExplanationFactor `json:"factors"`
	RiskAnalysis string              `json:"risk_analysis,omitempty"`
	Uncertainty  []string            `json:"uncertainty,omitempty"`
}

// PipelineState is the mutable record threaded through the analysis stages.
// One instance lives per invocation; each stage reads fields written by
// earlier stages and contributes its own via a Delta merge. A nil slice or
// map means "absent", an empty one means "fetched but empty".
type PipelineState struct {
	UserID  string `json:"user_id"`
	AssetID string `json:"asset_id,omitempty"`

	PortfolioSummary *PortfolioSummary      `json:"portfolio_summary,omitempty"`
	Holdings         []Holding              `json:"holdings,omitempty"`
	MarketPulse      map[string]float64     `json:"market_pulse,omitempty"` // region -> percent change
	Opportunities    []ArbitrageOpportunity `json:"arbitrage_opportunities,omitempty"`

	Predictions map[string]PricePrediction `json:"price_predictions,omitempty"`
	Analysis    []ScoredOpportunity        `json:"arbitrage_analysis,omitempty"`
	Signals     *ComputedSignals           `json:"computed_signals,omitempty"`
	Risk        *RiskMetrics               `json:"risk_metrics,omitempty"`

	Recommendation   *Recommendation        `json:"recommendation,omitempty"`
	ComplianceStatus ComplianceStatus       `json:"compliance_status,omitempty"`
	ComplianceReason string                 `json:"compliance_reason,omitempty"`
	MarketCommentary string                 `json:"market_commentary,omitempty"` // optional model enrichment
	Explanation      string                 `json:"explanation,omitempty"`
	Structured       *StructuredExplanation `json:"structured_explanation,omitempty"`

	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewPipelineState creates a fresh state scoped to one user and optional asset.
func NewPipelineState(userID, assetID string) *PipelineState {
	return &PipelineState{
		UserID:   userID,
		AssetID:  assetID,
		Errors:   []string{},
		Warnings: []string{},
	}
}
