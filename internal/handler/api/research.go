package api

import (
	"time"

	"StockResearch/internal/domain/models"
	xhttp "StockResearch/pkg/http"
	xlogger "StockResearch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Research builds a multi-section research report for a ticker.
func (h *Handler) Research(c echo.Context) error {
	req := &models.ResearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	start := time.Now()
	report, err := h.research.BuildReport(
		c.Request().Context(),
		req.Ticker,
		req.Sections,
		time.Duration(req.TimeoutMS)*time.Millisecond,
	)
	if err != nil {
		return h.respondErr(c, err)
	}

	h.logger.Debug("research request served",
		xlogger.String("ticker", report.Ticker),
		xlogger.Duration("elapsed", time.Since(start)),
	)
	return xhttp.SuccessResponse(c, report)
}

// Budget reports the remaining call budget per provider.
func (h *Handler) Budget(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"providers": h.budget.Snapshot(),
	})
}
