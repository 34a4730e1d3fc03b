package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"VinSight/internal/domain/models"
)

type fakeDataSvc struct {
	healthErr   error
	summary     *models.PortfolioSummary
	summaryErr  error
	holdings    []models.Holding
	holdingsErr error
	pulse       map[string]float64
	pulseErr    error
	opps        []models.ArbitrageOpportunity
	oppsErr     error
}

func (f *fakeDataSvc) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeDataSvc) PortfolioSummary(ctx context.Context, userID string) (*models.PortfolioSummary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeDataSvc) Holdings(ctx context.Context, userID string) ([]models.Holding, error) {
	return f.holdings, f.holdingsErr
}

func (f *fakeDataSvc) MarketPulse(ctx context.Context) (map[string]float64, error) {
	return f.pulse, f.pulseErr
}

func (f *fakeDataSvc) ArbitrageOpportunities(ctx context.Context, limit int) ([]models.ArbitrageOpportunity, error) {
	return f.opps, f.oppsErr
}

func healthySvc() *fakeDataSvc {
	return &fakeDataSvc{
		summary: &models.PortfolioSummary{UserID: "u1", TotalValue: 300, HoldingCount: 2, TopHoldingPct: 60, Currency: "EUR"},
		holdings: []models.Holding{
			{AssetID: "W1", AssetName: "Margaux 2015", CurrentValue: 180, Trend: "up"},
			{AssetID: "W2", AssetName: "Barolo 2016", CurrentValue: 120, Trend: "stable"},
		},
		pulse: map[string]float64{"bordeaux": 1.5, "tuscany": -0.5},
		opps: []models.ArbitrageOpportunity{
			{AssetID: "W3", AssetName: "Rioja 2018", BuyRegion: "ES", SellRegion: "UK", BuyPrice: 100, SellPrice: 110, ExpectedProfit: 10, Confidence: 0.9},
		},
	}
}

func TestAcquisitionHealthFailureHalts(t *testing.T) {
	svc := &fakeDataSvc{healthErr: errors.New("connection refused")}
	st := models.NewPipelineState("u1", "")

	d := NewAcquisitionStage(svc, 0).Run(context.Background(), st)

	if !d.Halt {
		t.Fatalf("expected halt")
	}
	if len(d.Errors) != 1 || !strings.Contains(d.Errors[0], "wine data service unhealthy") {
		t.Fatalf("unexpected errors %v", d.Errors)
	}
	if d.PortfolioSummary != nil || d.Holdings != nil || d.MarketPulse != nil || d.Opportunities != nil {
		t.Fatalf("expected no data writes on health failure")
	}
}

func TestAcquisitionFetchErrorWithholdsAllWrites(t *testing.T) {
	svc := healthySvc()
	svc.holdingsErr = errors.New("timeout")
	st := models.NewPipelineState("u1", "")

	d := NewAcquisitionStage(svc, 0).Run(context.Background(), st)

	if len(d.Errors) == 0 {
		t.Fatalf("expected fetch error")
	}
	if !strings.Contains(d.Errors[0], "fetch holdings") {
		t.Fatalf("unexpected error %q", d.Errors[0])
	}
	if d.PortfolioSummary != nil || d.Holdings != nil || d.MarketPulse != nil || d.Opportunities != nil {
		t.Fatalf("partial writes leaked through a fetch failure")
	}
	if d.Halt {
		t.Fatalf("fetch failure must not halt the pipeline")
	}
}

func TestAcquisitionEmptyContextHalts(t *testing.T) {
	svc := &fakeDataSvc{
		holdings: []models.Holding{},
		pulse:    map[string]float64{},
		opps:     []models.ArbitrageOpportunity{},
	}
	st := models.NewPipelineState("u1", "")

	d := NewAcquisitionStage(svc, 0).Run(context.Background(), st)

	if !d.Halt {
		t.Fatalf("expected halt on empty context")
	}
	if len(d.Warnings) != 1 || d.Warnings[0] != "cannot perform analysis with empty context" {
		t.Fatalf("unexpected warnings %v", d.Warnings)
	}
	if len(d.Errors) != 1 {
		t.Fatalf("expected one error, got %v", d.Errors)
	}
}

func TestAcquisitionNormalizesNilCollections(t *testing.T) {
	svc := healthySvc()
	svc.pulse = nil
	st := models.NewPipelineState("u1", "")

	d := NewAcquisitionStage(svc, 0).Run(context.Background(), st)

	if len(d.Errors) != 0 {
		t.Fatalf("unexpected errors %v", d.Errors)
	}
	if d.MarketPulse == nil {
		t.Fatalf("nil pulse should normalize to empty map")
	}
	if len(d.Holdings) != 2 || len(d.Opportunities) != 1 {
		t.Fatalf("unexpected data %v %v", d.Holdings, d.Opportunities)
	}
	if d.PortfolioSummary == nil || d.PortfolioSummary.TotalValue != 300 {
		t.Fatalf("unexpected summary %+v", d.PortfolioSummary)
	}
}
