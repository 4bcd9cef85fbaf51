package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"signal-engine/internal/engine/config"
	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/repository"
	"signal-engine/pkg/common"
	"signal-engine/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// BulletinHandler handles HTTP requests for bulletins. Ingestion is
// asynchronous: the bulletin is queued onto the trigger stream and the
// consumer does the actual work, so the HTTP path never writes to the
// store directly.
type BulletinHandler struct {
	cfg          *config.Config
	redisClient  *redis.Client
	bulletinRepo repository.BulletinRepository
	logger       *logger.Logger
}

// NewBulletinHandler creates a new BulletinHandler.
func NewBulletinHandler(cfg *config.Config, redisClient *redis.Client, bulletinRepo repository.BulletinRepository, log *logger.Logger) *BulletinHandler {
	return &BulletinHandler{cfg: cfg, redisClient: redisClient, bulletinRepo: bulletinRepo, logger: log}
}

// RegisterRoutes registers the bulletin routes to the Echo group.
func (h *BulletinHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.QueueBulletin)
	g.GET("", h.GetRecentBulletins)
}

// QueueBulletin accepts a bulletin and queues it for ingestion.
func (h *BulletinHandler) QueueBulletin(c echo.Context) error {
	var req dto.IngestBulletinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request payload"})
	}
	if req.MessageID == "" || req.Body == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "message_id and body are required"})
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}

	if err := h.redisClient.XAdd(c.Request().Context(), &redis.XAddArgs{
		Stream: common.RedisStreamBulletinIngest,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: h.cfg.Redis.StreamMaxLen,
	}).Err(); err != nil {
		h.logger.Error("Failed to queue bulletin", logger.ErrorField(err), logger.StringField("message_id", req.MessageID))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusAccepted, echo.Map{"status": "queued", "message_id": req.MessageID})
}

// GetRecentBulletins returns the most recently ingested bulletins.
func (h *BulletinHandler) GetRecentBulletins(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid limit"})
		}
		limit = parsed
	}

	bulletins, err := h.bulletinRepo.FindRecent(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, bulletins)
}
