package http

import (
	"encoding/json"
	"net/http"

	"signal-engine/internal/engine/config"
	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/repository"
	"signal-engine/internal/entity"
	"signal-engine/pkg/common"
	"signal-engine/pkg/logger"
	"signal-engine/pkg/utils"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// PriceHandler accepts daily closes from the price-feed collaborator and
// manual auto-cancel triggers.
type PriceHandler struct {
	cfg         *config.Config
	redisClient *redis.Client
	priceRepo   repository.PriceRepository
	logger      *logger.Logger
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(cfg *config.Config, redisClient *redis.Client, priceRepo repository.PriceRepository, log *logger.Logger) *PriceHandler {
	return &PriceHandler{cfg: cfg, redisClient: redisClient, priceRepo: priceRepo, logger: log}
}

// RegisterRoutes registers the price routes to the Echo instance.
func (h *PriceHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/prices", h.StorePrice)
	e.POST("/auto-cancel", h.TriggerAutoCancel)
}

// StorePrice stores one daily close. Re-posting the same
// (ticker, date, source) is a no-op; the first observation wins.
func (h *PriceHandler) StorePrice(c echo.Context) error {
	var req dto.StorePriceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request payload"})
	}
	if req.Ticker == "" || req.Date == "" || req.Source == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ticker, date and source are required"})
	}
	if _, err := utils.ParseDate(req.Date); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "date must be YYYY-MM-DD"})
	}

	obs := &entity.PriceObservation{
		Ticker: req.Ticker,
		Date:   req.Date,
		Close:  req.Close,
		Source: req.Source,
	}
	if err := h.priceRepo.CreateIgnoreConflict(c.Request().Context(), obs); err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, obs)
}

// TriggerAutoCancel queues an auto-cancel detection pass.
func (h *PriceHandler) TriggerAutoCancel(c echo.Context) error {
	var req dto.RunAutoCancelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request payload"})
	}
	if req.Date == "" {
		req.Date = utils.DateNowUTC()
	} else if _, err := utils.ParseDate(req.Date); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "date must be YYYY-MM-DD"})
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}

	if err := h.redisClient.XAdd(c.Request().Context(), &redis.XAddArgs{
		Stream: common.RedisStreamAutoCancel,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: h.cfg.Redis.StreamMaxLen,
	}).Err(); err != nil {
		h.logger.Error("Failed to queue auto-cancel trigger", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusAccepted, echo.Map{"status": "queued", "date": req.Date})
}
