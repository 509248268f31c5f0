package api

import (
	"strings"

	"StockResearch/internal/domain/models"
	xhttp "StockResearch/pkg/http"

	"github.com/labstack/echo/v4"
)

// Account serves the broker account summary.
func (h *Handler) Account(c echo.Context) error {
	account, err := h.trading.Account(c.Request().Context())
	if err != nil {
		return h.respondErr(c, err)
	}
	return xhttp.SuccessResponse(c, account)
}

// Positions serves all open positions.
func (h *Handler) Positions(c echo.Context) error {
	positions, err := h.trading.Positions(c.Request().Context())
	if err != nil {
		return h.respondErr(c, err)
	}
	return xhttp.SuccessResponse(c, positions)
}

// Position serves one position; 404 when flat.
func (h *Handler) Position(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol is required")
	}
	position, err := h.trading.Position(c.Request().Context(), symbol)
	if err != nil {
		return h.respondErr(c, err)
	}
	if position == nil {
		return xhttp.NotFoundResponse(c, "no open position for "+symbol)
	}
	return xhttp.SuccessResponse(c, position)
}

// PlaceOrder submits an order after risk checks.
func (h *Handler) PlaceOrder(c echo.Context) error {
	req := &models.OrderRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	order, err := h.trading.PlaceOrder(c.Request().Context(), *req)
	if err != nil {
		return h.respondErr(c, err)
	}
	return xhttp.CreatedResponse(c, order)
}

// Orders lists orders, filtered by ?status= (open by default).
func (h *Handler) Orders(c echo.Context) error {
	status := c.QueryParam("status")
	if status == "" {
		status = "open"
	}
	orders, err := h.trading.Orders(c.Request().Context(), status)
	if err != nil {
		return h.respondErr(c, err)
	}
	return xhttp.SuccessResponse(c, orders)
}

// CancelOrder cancels an open order by id.
func (h *Handler) CancelOrder(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return xhttp.BadRequestResponse(c, "order id is required")
	}
	if err := h.trading.CancelOrder(c.Request().Context(), id); err != nil {
		return h.respondErr(c, err)
	}
	return xhttp.NoContentResponse(c)
}
