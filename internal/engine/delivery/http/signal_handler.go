package http

import (
	"errors"
	"net/http"
	"strconv"

	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/repository"

	"github.com/labstack/echo/v4"
)

// SignalHandler serves the append-only record history.
type SignalHandler struct {
	signalRepo repository.SignalRepository
	cycleRepo  repository.CycleRecordRepository
	targetRepo repository.PriceTargetRepository
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(signalRepo repository.SignalRepository, cycleRepo repository.CycleRecordRepository, targetRepo repository.PriceTargetRepository) *SignalHandler {
	return &SignalHandler{signalRepo: signalRepo, cycleRepo: cycleRepo, targetRepo: targetRepo}
}

// RegisterRoutes registers the record routes to the Echo group.
func (h *SignalHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/signals", h.GetSignals)
	e.GET("/cycles", h.GetCycles)
	e.GET("/price-targets", h.GetPriceTargets)
}

// GetSignals returns recent signal records, optionally filtered by ticker.
func (h *SignalHandler) GetSignals(c echo.Context) error {
	ticker, limit, err := recordQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	records, err := h.signalRepo.FindRecent(c.Request().Context(), ticker, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, records)
}

// GetCycles returns recent cycle records, optionally filtered by ticker.
func (h *SignalHandler) GetCycles(c echo.Context) error {
	ticker, limit, err := recordQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	records, err := h.cycleRepo.FindRecent(c.Request().Context(), ticker, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, records)
}

// GetPriceTargets returns recent price target records, optionally
// filtered by ticker.
func (h *SignalHandler) GetPriceTargets(c echo.Context) error {
	ticker, limit, err := recordQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	records, err := h.targetRepo.FindRecent(c.Request().Context(), ticker, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, records)
}

func recordQuery(c echo.Context) (ticker string, limit int, err error) {
	ticker = c.QueryParam("ticker")
	limit = 100
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return "", 0, errors.New("invalid limit")
		}
	}
	return ticker, limit, nil
}
