package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"signal-engine/internal/engine/config"
	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/service"
	"signal-engine/pkg/common"
	"signal-engine/pkg/logger"
	"signal-engine/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisConsumer drains the trigger streams. All ingestion and detection
// triggers funnel through here, so the store only ever sees whole
// batches in arrival order.
type RedisConsumer struct {
	cfg               *config.Config
	redisClient       *redis.Client
	ingestionService  service.IngestionService
	autoCancelService service.AutoCancelService
	logger            *logger.Logger
	stopChan          chan struct{}
	wg                sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	ingestionService service.IngestionService,
	autoCancelService service.AutoCancelService,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		cfg:               cfg,
		redisClient:       redisClient,
		ingestionService:  ingestionService,
		autoCancelService: autoCancelService,
		logger:            log,
		stopChan:          make(chan struct{}),
	}
}

// Start begins the consumer's processing loops.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")
	c.registerStreamHandler(ctx, c.processIngest, common.RedisStreamBulletinIngest, c.cfg.Engine.RedisStreamReadTimeout)
	c.registerStreamHandler(ctx, c.processAutoCancel, common.RedisStreamAutoCancel, c.cfg.Engine.RedisStreamReadTimeout)
}

func (c *RedisConsumer) registerStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.Field("stream", streamName))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

func (c *RedisConsumer) processIngest(ctx context.Context) {
	message, ok := c.readOne(ctx, common.RedisStreamBulletinIngest)
	if !ok {
		return
	}

	var req dto.IngestBulletinRequest
	if !c.unmarshalPayload(ctx, common.RedisStreamBulletinIngest, message, &req) {
		return
	}

	if _, err := c.ingestionService.IngestBulletin(ctx, &req); err != nil {
		c.logger.Error("Failed to ingest bulletin",
			logger.ErrorField(err),
			logger.StringField("message_id", req.MessageID),
		)
		return
	}

	c.ack(ctx, common.RedisStreamBulletinIngest, message.ID)
}

func (c *RedisConsumer) processAutoCancel(ctx context.Context) {
	message, ok := c.readOne(ctx, common.RedisStreamAutoCancel)
	if !ok {
		return
	}

	var req dto.RunAutoCancelRequest
	if !c.unmarshalPayload(ctx, common.RedisStreamAutoCancel, message, &req) {
		return
	}

	if _, err := c.autoCancelService.RunDetection(ctx, req.Date); err != nil {
		c.logger.Error("Auto-cancel detection failed",
			logger.ErrorField(err),
			logger.StringField("date", req.Date),
		)
		return
	}

	c.ack(ctx, common.RedisStreamAutoCancel, message.ID)
}

func (c *RedisConsumer) readOne(ctx context.Context, stream string) (redis.XMessage, bool) {
	streams, err := c.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if err == context.Canceled || err == context.DeadlineExceeded || err == redis.Nil {
			return redis.XMessage{}, false
		}
		c.logger.Error("Failed to read from stream", logger.ErrorField(err), logger.StringField("stream", stream))
		return redis.XMessage{}, false
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return redis.XMessage{}, false
	}
	return streams[0].Messages[0], true
}

func (c *RedisConsumer) unmarshalPayload(ctx context.Context, stream string, message redis.XMessage, out interface{}) bool {
	payload, ok := message.Values["payload"].(string)
	if !ok {
		c.logger.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		// Ack to prevent reprocessing of a malformed message.
		c.ack(ctx, stream, message.ID)
		return false
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		c.logger.Error("Failed to unmarshal payload", logger.ErrorField(err), logger.Field("message_id", message.ID))
		c.ack(ctx, stream, message.ID)
		return false
	}
	return true
}

func (c *RedisConsumer) ack(ctx context.Context, stream, messageID string) {
	if err := c.redisClient.XAck(ctx, stream, common.RedisStreamGroup, messageID).Err(); err != nil {
		c.logger.Error("Failed to acknowledge message", logger.ErrorField(err), logger.Field("message_id", messageID))
	}
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
