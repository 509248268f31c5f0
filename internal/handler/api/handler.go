package api

import (
	"errors"
	"net/http"

	"StockResearch/internal/service/alphavantage"
	"StockResearch/internal/service/budget"
	"StockResearch/internal/service/finnhub"
	"StockResearch/internal/usecase"
	xhttp "StockResearch/pkg/http"
	xlogger "StockResearch/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Handler implements the Echo-based HTTP surface over the research,
// resolver, and trading use cases.
type Handler struct {
	logger   *xlogger.Logger
	resolver *usecase.Resolver
	catalog  usecase.Catalog
	research *usecase.ResearchBuilder
	trading  *usecase.Trading
	budget   *budget.Tracker
	av       *alphavantage.Client
	fh       *finnhub.Client
}

func NewHandler(logger *xlogger.Logger, resolver *usecase.Resolver, catalog usecase.Catalog, research *usecase.ResearchBuilder, trading *usecase.Trading, bt *budget.Tracker, av *alphavantage.Client, fh *finnhub.Client) *Handler {
	return &Handler{
		logger:   logger,
		resolver: resolver,
		catalog:  catalog,
		research: research,
		trading:  trading,
		budget:   bt,
		av:       av,
		fh:       fh,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)

	g := e.Group("/api")
	g.GET("/quote/:ticker", h.Quote)
	g.GET("/historical/:ticker", h.Historical)
	g.GET("/company/:ticker", h.Company)
	g.GET("/financials/:ticker", h.Financials)
	g.GET("/sentiment/:ticker", h.Sentiment)
	g.GET("/insiders/:ticker", h.Insiders)
	g.GET("/technicals/:ticker", h.Technicals)
	g.GET("/analysts/:ticker", h.Analysts)
	g.GET("/macro", h.Macro)
	g.POST("/research", h.Research)
	g.GET("/budget", h.Budget)

	if h.trading != nil {
		t := g.Group("/trading")
		t.GET("/account", h.Account)
		t.GET("/positions", h.Positions)
		t.GET("/positions/:symbol", h.Position)
		t.POST("/orders", h.PlaceOrder)
		t.GET("/orders", h.Orders)
		t.DELETE("/orders/:id", h.CancelOrder)
	}
}

// Healthz reports liveness and which optional subsystems are enabled.
func (h *Handler) Healthz(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":  "ok",
		"trading": h.trading != nil,
	})
}

// respondErr maps use case errors to application error responses.
func (h *Handler) respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidTicker):
		return xhttp.AppErrorResponse(c,
			xhttp.BadRequestError(err.Error()))
	case errors.Is(err, usecase.ErrBudgetExhausted):
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_BUDGET_EXHAUSTED", "", err.Error(), http.StatusTooManyRequests))
	case errors.Is(err, usecase.ErrProviderUnavailable):
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_PROVIDER_UNAVAILABLE", "", err.Error(), http.StatusBadGateway))
	case errors.Is(err, usecase.ErrNoSectionsSucceeded):
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_NO_DATA", "", err.Error(), http.StatusBadGateway))
	case errors.Is(err, usecase.ErrRiskLimit):
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_RISK_LIMIT", "", err.Error(), http.StatusUnprocessableEntity))
	default:
		h.logger.Error("handler error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}

// resolve runs one request through the resolver and writes the tagged payload.
func (h *Handler) resolve(c echo.Context, req usecase.Request) error {
	res, err := h.resolver.Resolve(c.Request().Context(), req)
	if err != nil {
		return h.respondErr(c, err)
	}
	return xhttp.SuccessResponse(c, toolResponse{
		Ticker:    req.Ticker,
		Data:      res.Value,
		Freshness: string(res.Freshness),
	})
}
