package api

import (
	models "VinSight/internal/domain/models"
	drepo "VinSight/internal/domain/repository"
	"VinSight/internal/usecase"
	xhttp "VinSight/pkg/http"
	xlogger "VinSight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler exposes the decision pipeline over HTTP.
type AnalysisEchoHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.AnalysisService
	datasvc drepo.DataService
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, svc *usecase.AnalysisService, datasvc drepo.DataService) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{logger: logger, svc: svc, datasvc: datasvc}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analysis", h.Analyze)
	g.GET("/outcomes", h.Outcomes)
	g.GET("/health", h.Health)
}

// Analyze runs the full pipeline for one user.
func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res := h.svc.Analyze(c.Request().Context(), req.UserID, req.AssetID)
	return xhttp.SuccessResponse(c, res)
}

// Outcomes returns the most recent persisted outcomes for a user.
func (h *AnalysisEchoHandler) Outcomes(c echo.Context) error {
	req := &models.OutcomesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.svc.RecentOutcomes(c.Request().Context(), req.UserID, req.Limit)
	if err != nil {
		h.logger.Error("outcomes usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Health reports the reachability of the service's dependencies.
func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	status := map[string]string{
		"data_service":  "ok",
		"outcome_store": "ok",
	}

	degraded := false
	if err := h.datasvc.Health(ctx); err != nil {
		status["data_service"] = err.Error()
		degraded = true
	}
	if !h.svc.OutcomeStoreHealthy(ctx) {
		status["outcome_store"] = "unreachable"
		degraded = true
	}

	if degraded {
		return xhttp.ServiceUnavailableResponse(c, status)
	}
	return xhttp.SuccessResponse(c, status)
}
