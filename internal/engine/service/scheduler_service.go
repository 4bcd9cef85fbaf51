package service

import (
	"context"
	"encoding/json"

	"signal-engine/internal/engine/config"
	"signal-engine/internal/engine/dto"
	"signal-engine/pkg/common"
	"signal-engine/pkg/logger"
	"signal-engine/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// SchedulerService publishes the daily auto-cancel trigger to the
// trigger stream, once at startup and then on a cron schedule.
// Publishing instead of calling the detector directly keeps all writes
// funneled through the one consumer.
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop()
}

// streamPublisher is the slice of the redis client the scheduler needs.
type streamPublisher interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

type schedulerService struct {
	cfg       *config.Config
	publisher streamPublisher
	logger    *logger.Logger
	cron      *cron.Cron
}

// NewSchedulerService creates a new SchedulerService.
func NewSchedulerService(cfg *config.Config, publisher streamPublisher, log *logger.Logger) SchedulerService {
	return &schedulerService{
		cfg:       cfg,
		publisher: publisher,
		logger:    log,
		cron:      cron.New(),
	}
}

func (s *schedulerService) Start(ctx context.Context) error {
	// Catch-up pass for breaches that happened while the engine was
	// down. A rerun for an already-handled day is a no-op downstream,
	// so publishing unconditionally is safe.
	s.publishAutoCancelTrigger(ctx)

	spec := s.cfg.Engine.AutoCancelSchedule
	if spec == "" {
		s.logger.Info("Auto-cancel schedule not configured, scheduler idle after startup check")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.publishAutoCancelTrigger(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", logger.StringField("auto_cancel_schedule", spec))
	return nil
}

func (s *schedulerService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *schedulerService) publishAutoCancelTrigger(ctx context.Context) {
	payload, err := json.Marshal(dto.RunAutoCancelRequest{Date: utils.DateNowUTC()})
	if err != nil {
		s.logger.Error("Failed to marshal auto-cancel trigger", logger.ErrorField(err))
		return
	}

	if err := s.publisher.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamAutoCancel,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: s.cfg.Redis.StreamMaxLen,
	}).Err(); err != nil {
		s.logger.Error("Failed to publish auto-cancel trigger", logger.ErrorField(err))
		return
	}

	s.logger.Info("Auto-cancel trigger published")
}
