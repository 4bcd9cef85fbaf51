package http

import (
	"errors"
	"net/http"

	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/service"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// StateHandler serves the reconstructed effective states.
type StateHandler struct {
	stateService service.StateService
}

// NewStateHandler creates a new StateHandler.
func NewStateHandler(stateService service.StateService) *StateHandler {
	return &StateHandler{stateService: stateService}
}

// RegisterRoutes registers the state routes to the Echo group.
func (h *StateHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetStates)
	g.GET("/:ticker", h.GetState)
}

// GetStates returns the effective state of every tracked ticker.
func (h *StateHandler) GetStates(c echo.Context) error {
	states, err := h.stateService.GetStates(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, states)
}

// GetState returns the effective state of one ticker.
func (h *StateHandler) GetState(c echo.Context) error {
	ticker := c.Param("ticker")
	state, err := h.stateService.GetState(c.Request().Context(), ticker)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "no effective state for ticker"})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, state)
}
