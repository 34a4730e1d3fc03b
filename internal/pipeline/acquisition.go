package pipeline

import (
	"context"
	"fmt"
	"sync"

	"VinSight/internal/domain/models"
	drepo "VinSight/internal/domain/repository"
)

const StageAcquisition = "data_acquisition"

// AcquisitionStage pulls the portfolio, holdings, market pulse and top
// arbitrage opportunities from the wine data service. It probes the service
// first and writes nothing when the probe fails, so downstream stages see
// "absent" rather than zeroed data.
type AcquisitionStage struct {
	svc      drepo.DataService
	oppLimit int
}

func NewAcquisitionStage(svc drepo.DataService, oppLimit int) *AcquisitionStage {
	if oppLimit <= 0 {
		oppLimit = 20
	}
	return &AcquisitionStage{svc: svc, oppLimit: oppLimit}
}

func (s *AcquisitionStage) Name() string { return StageAcquisition }

func (s *AcquisitionStage) Run(ctx context.Context, st *models.PipelineState) Delta {
	if err := s.svc.Health(ctx); err != nil {
		return Delta{
			Errors: []string{fmt.Sprintf("wine data service unhealthy: %v", err)},
			Halt:   true,
		}
	}

	// The four fetches have no ordering dependency; issue them concurrently
	// and wait for all before merging anything.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		fetched Delta
		errs    []string
	)
	fail := func(what string, err error) {
		mu.Lock()
		errs = append(errs, fmt.Sprintf("fetch %s: %v", what, err))
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		sum, err := s.svc.PortfolioSummary(ctx, st.UserID)
		if err != nil {
			fail("portfolio summary", err)
			return
		}
		mu.Lock()
		fetched.PortfolioSummary = sum
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		hs, err := s.svc.Holdings(ctx, st.UserID)
		if err != nil {
			fail("holdings", err)
			return
		}
		if hs == nil {
			hs = []models.Holding{}
		}
		mu.Lock()
		fetched.Holdings = hs
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		pulse, err := s.svc.MarketPulse(ctx)
		if err != nil {
			fail("market pulse", err)
			return
		}
		if pulse == nil {
			pulse = map[string]float64{}
		}
		mu.Lock()
		fetched.MarketPulse = pulse
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		opps, err := s.svc.ArbitrageOpportunities(ctx, s.oppLimit)
		if err != nil {
			fail("arbitrage opportunities", err)
			return
		}
		if opps == nil {
			opps = []models.ArbitrageOpportunity{}
		}
		mu.Lock()
		fetched.Opportunities = opps
		mu.Unlock()
	}()
	wg.Wait()

	// Any transport failure withholds all field writes.
	if len(errs) > 0 {
		return errDelta(errs...)
	}

	if len(fetched.Holdings) == 0 && len(fetched.MarketPulse) == 0 && len(fetched.Opportunities) == 0 {
		return Delta{
			Warnings: []string{"cannot perform analysis with empty context"},
			Errors:   []string{"no portfolio, market or arbitrage data available"},
			Halt:     true,
		}
	}

	return fetched
}
