package pipeline

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"VinSight/internal/domain/models"
	"VinSight/pkg/logger"
)

func newTestRunner(svc *fakeDataSvc) *Runner {
	return NewRunner(DefaultStages(svc, nil, 20, 0.2), logger.Nop(), nil, 5*time.Second)
}

func TestRunnerHappyPath(t *testing.T) {
	r := newTestRunner(healthySvc())

	res := r.Run(context.Background(), "u1", "")

	if res.TerminatedReason != models.TerminatedCompleted {
		t.Fatalf("expected completed, got %s (errors %v)", res.TerminatedReason, res.Errors)
	}
	if !res.Success {
		t.Fatalf("expected success, errors %v", res.Errors)
	}
	if res.Recommendation == nil {
		t.Fatalf("expected a recommendation")
	}
	if res.Explanation == "" || res.Structured == nil {
		t.Fatalf("expected an explanation")
	}
	if res.ComplianceStatus == "" {
		t.Fatalf("expected a compliance verdict")
	}
	if res.ConfidenceScore == nil {
		t.Fatalf("expected a confidence score")
	}
	if !strings.HasPrefix(res.RunID, "u1-") {
		t.Fatalf("unexpected run id %q", res.RunID)
	}
}

func TestRunnerIsDeterministic(t *testing.T) {
	r := newTestRunner(healthySvc())

	a := r.Run(context.Background(), "u1", "")
	b := r.Run(context.Background(), "u1", "")

	if !reflect.DeepEqual(a.Recommendation, b.Recommendation) {
		t.Fatalf("recommendations differ:\n%+v\n%+v", a.Recommendation, b.Recommendation)
	}
	if a.Explanation != b.Explanation {
		t.Fatalf("explanations differ:\n%q\n%q", a.Explanation, b.Explanation)
	}
	if a.ComplianceStatus != b.ComplianceStatus {
		t.Fatalf("compliance differs: %s vs %s", a.ComplianceStatus, b.ComplianceStatus)
	}
	if !reflect.DeepEqual(a.Structured, b.Structured) {
		t.Fatalf("structured explanations differ")
	}
}

func TestRunnerEarlyExitOnUnhealthyService(t *testing.T) {
	r := newTestRunner(&fakeDataSvc{healthErr: errors.New("down")})

	res := r.Run(context.Background(), "u1", "")

	if res.TerminatedReason != models.TerminatedEarlyExit {
		t.Fatalf("expected early_exit, got %s", res.TerminatedReason)
	}
	if res.Success {
		t.Fatalf("early exit must not be a success")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "wine data service unhealthy") {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	if res.Recommendation != nil {
		t.Fatalf("no recommendation expected after early exit")
	}
}

func TestRunnerTimeoutOnCanceledContext(t *testing.T) {
	r := NewRunner(DefaultStages(healthySvc(), nil, 20, 0.2), logger.Nop(), nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Run(ctx, "u1", "")

	if res.TerminatedReason != models.TerminatedTimeout {
		t.Fatalf("expected timeout, got %s", res.TerminatedReason)
	}
	if res.Success {
		t.Fatalf("timed-out run must not be a success")
	}
	if len(res.Errors) == 0 || !strings.Contains(res.Errors[0], "timed out") {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
}

func TestRunnerDegradedDataStillCompletes(t *testing.T) {
	svc := healthySvc()
	svc.holdings = []models.Holding{} // nothing to predict
	r := newTestRunner(svc)

	res := r.Run(context.Background(), "u1", "")

	if res.TerminatedReason != models.TerminatedCompleted {
		t.Fatalf("expected completed, got %s", res.TerminatedReason)
	}
	// Opportunities and pulse still exist, so a neutral recommendation is produced.
	if res.Recommendation == nil || res.Recommendation.Action != models.ActionHold {
		t.Fatalf("expected neutral HOLD, got %+v", res.Recommendation)
	}
	if !res.Success {
		t.Fatalf("degraded but completed run should succeed")
	}
}

func TestRunnerRiskScoreSurfacesInResult(t *testing.T) {
	r := newTestRunner(healthySvc())

	res := r.Run(context.Background(), "u1", "")

	if res.RiskScore == nil {
		t.Fatalf("expected risk score with full inputs")
	}
	if *res.RiskScore < 0 || *res.RiskScore > 1 {
		t.Fatalf("risk score out of range: %v", *res.RiskScore)
	}
}
