package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"VinSight/internal/domain/models"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestPredictionUpwardTrend(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Holdings = []models.Holding{{AssetID: "W1", AssetName: "Margaux 2015", CurrentValue: 100, Trend: "up"}}

	d := NewPredictionStage(nil, 0).Run(context.Background(), st)

	p, ok := d.Predictions["W1"]
	if !ok {
		t.Fatalf("missing prediction for W1")
	}
	if p.PredictedChangePercent != 5.0 || p.Confidence != 0.70 {
		t.Fatalf("unexpected forecast %+v", p)
	}
	if math.Abs(p.PredictedPrice-105.0) > 1e-9 {
		t.Fatalf("unexpected predicted price %v", p.PredictedPrice)
	}
	if p.Trend != "up" {
		t.Fatalf("unexpected trend %q", p.Trend)
	}
}

func TestPredictionTrendTable(t *testing.T) {
	cases := []struct {
		trend  string
		change float64
		conf   float64
	}{
		{"up", 5.0, 0.70},
		{"down", -3.0, 0.65},
		{"stable", 1.0, 0.60},
		{"", 1.0, 0.60},
	}
	for _, c := range cases {
		change, conf := trendForecast(c.trend)
		if change != c.change || conf != c.conf {
			t.Fatalf("trend %q: got (%v, %v), want (%v, %v)", c.trend, change, conf, c.change, c.conf)
		}
	}
}

func TestPredictionCapsHoldings(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	for i := 0; i < 15; i++ {
		st.Holdings = append(st.Holdings, models.Holding{
			AssetID: fmt.Sprintf("W%02d", i), CurrentValue: 100, Trend: "stable",
		})
	}

	d := NewPredictionStage(nil, 0).Run(context.Background(), st)

	if len(d.Predictions) != maxPredictedHoldings {
		t.Fatalf("expected %d predictions, got %d", maxPredictedHoldings, len(d.Predictions))
	}
}

func TestPredictionAbsentHoldingsStayAbsent(t *testing.T) {
	st := models.NewPipelineState("u1", "")

	d := NewPredictionStage(nil, 0).Run(context.Background(), st)

	if d.Predictions != nil {
		t.Fatalf("expected absent predictions, got %v", d.Predictions)
	}
}

func TestPredictionEmptyHoldingsYieldEmptyMap(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Holdings = []models.Holding{}

	d := NewPredictionStage(nil, 0).Run(context.Background(), st)

	if d.Predictions == nil || len(d.Predictions) != 0 {
		t.Fatalf("expected empty prediction map, got %v", d.Predictions)
	}
}

func TestPredictionCommentaryFailureIsIgnored(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Holdings = []models.Holding{{AssetID: "W1", CurrentValue: 100, Trend: "up"}}
	llm := &fakeCompleter{err: errors.New("model unavailable")}

	d := NewPredictionStage(llm, 0.2).Run(context.Background(), st)

	if llm.calls != 1 {
		t.Fatalf("expected one completion attempt, got %d", llm.calls)
	}
	if d.MarketCommentary != "" {
		t.Fatalf("commentary should be empty on model failure")
	}
	if len(d.Errors) != 0 {
		t.Fatalf("model failure must not surface as a stage error: %v", d.Errors)
	}
	if len(d.Predictions) != 1 {
		t.Fatalf("numeric predictions must survive model failure")
	}
}

func TestPredictionCommentaryAttached(t *testing.T) {
	st := models.NewPipelineState("u1", "")
	st.Holdings = []models.Holding{{AssetID: "W1", CurrentValue: 100, Trend: "up"}}
	llm := &fakeCompleter{reply: "Fine wines remain firm."}

	d := NewPredictionStage(llm, 0.2).Run(context.Background(), st)

	if d.MarketCommentary != "Fine wines remain firm." {
		t.Fatalf("unexpected commentary %q", d.MarketCommentary)
	}
}
