package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/repository"
	"signal-engine/internal/entity"
	"signal-engine/pkg/logger"
	"signal-engine/pkg/telegram"
	"signal-engine/pkg/utils"

	"github.com/lib/pq"
)

// AutoCancelService compares each ticker's effective cancel condition
// against the stored daily close and, on a breach, appends a synthetic
// CANCELLED record so the reversal flows through the same reconstruction
// path as an authored cancellation.
type AutoCancelService interface {
	// RunDetection checks every effective state against the close for the
	// given date. An empty date means today.
	RunDetection(ctx context.Context, date string) ([]dto.AutoCancellation, error)
}

type autoCancelService struct {
	storeMu *sync.Mutex

	logger       *logger.Logger
	bulletinRepo repository.BulletinRepository
	signalRepo   repository.SignalRepository
	stateRepo    repository.EffectiveStateRepository
	priceRepo    repository.PriceRepository
	stateService StateService
	notifier     telegram.Notifier
}

// NewAutoCancelService creates a new AutoCancelService. notifier may be
// nil.
func NewAutoCancelService(
	storeMu *sync.Mutex,
	log *logger.Logger,
	bulletinRepo repository.BulletinRepository,
	signalRepo repository.SignalRepository,
	stateRepo repository.EffectiveStateRepository,
	priceRepo repository.PriceRepository,
	stateService StateService,
	notifier telegram.Notifier,
) AutoCancelService {
	return &autoCancelService{
		storeMu:      storeMu,
		logger:       log,
		bulletinRepo: bulletinRepo,
		signalRepo:   signalRepo,
		stateRepo:    stateRepo,
		priceRepo:    priceRepo,
		stateService: stateService,
		notifier:     notifier,
	}
}

func (s *autoCancelService) RunDetection(ctx context.Context, date string) ([]dto.AutoCancellation, error) {
	if date == "" {
		date = utils.DateNowUTC()
	}

	s.storeMu.Lock()
	cancellations, err := s.detect(ctx, date)
	s.storeMu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(cancellations)
	return cancellations, nil
}

func (s *autoCancelService) detect(ctx context.Context, date string) ([]dto.AutoCancellation, error) {
	// Every ticker is evaluated against the snapshot taken before any
	// write in this pass, so one breach cannot influence another.
	states, err := s.stateRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	var cancellations []dto.AutoCancellation
	for _, state := range states {
		if !utils.ShouldContinue(ctx, s.logger) {
			break
		}
		if state.CancelLevel == nil || state.CancelDirection == nil {
			continue
		}

		source, err := s.signalRepo.FindByID(ctx, state.SourceRecordID)
		if err != nil {
			s.logger.Error("Failed to load source record",
				logger.StringField("ticker", state.Ticker), logger.ErrorField(err))
			continue
		}
		// Hourly-close conditions cannot be evaluated against a daily
		// close; those signals are exempt from automatic cancellation.
		if source.UsesHourlyClose {
			continue
		}

		closePrice, err := s.priceRepo.FindClose(ctx, state.Ticker, date)
		if err != nil {
			return nil, err
		}
		if closePrice == nil {
			continue
		}

		if !breached(*state.CancelDirection, *closePrice, *state.CancelLevel) {
			continue
		}

		s.logger.Info("Cancel level breached",
			logger.StringField("ticker", state.Ticker),
			logger.Float64Field("close", *closePrice),
			logger.Float64Field("cancel_level", *state.CancelLevel),
		)

		created, err := s.cancel(ctx, &state, date, *closePrice)
		if err != nil {
			return nil, err
		}
		if !created {
			continue
		}

		cancellations = append(cancellations, dto.AutoCancellation{
			Ticker:      state.Ticker,
			Instrument:  state.Instrument,
			OldSignal:   state.EffectiveSignal,
			NewSignal:   state.EffectiveSignal.Opposite(),
			CancelLevel: *state.CancelLevel,
			ClosePrice:  *closePrice,
			Date:        date,
		})
	}

	s.logger.Info("Auto-cancel detection finished",
		logger.StringField("date", date),
		logger.IntField("states", len(states)),
		logger.IntField("cancellations", len(cancellations)),
	)
	return cancellations, nil
}

// breached reports whether the close violates the cancel condition. The
// comparison is strict: a close exactly at the level does not cancel.
func breached(direction entity.Direction, closePrice, cancelLevel float64) bool {
	switch direction {
	case entity.DirectionAbove:
		return closePrice > cancelLevel
	case entity.DirectionBelow:
		return closePrice < cancelLevel
	default:
		return false
	}
}

// cancel appends the synthetic CANCELLED record under a synthetic
// bulletin. The bulletin's message id carries the (ticker, date)
// identity, so a rerun for the same day is a silent no-op.
func (s *autoCancelService) cancel(ctx context.Context, state *entity.EffectiveState, date string, closePrice float64) (bool, error) {
	messageID := fmt.Sprintf("auto-cancel-%s-%s", state.Ticker, date)
	rawText := fmt.Sprintf("Auto-cancelled %s signal for %s: close %g breached cancel level %g (%s)",
		state.EffectiveSignal, state.Ticker, closePrice, *state.CancelLevel, *state.CancelDirection)

	bulletin := &entity.Bulletin{
		MessageID:   messageID,
		Subject:     fmt.Sprintf("Auto-cancel %s %s", state.Ticker, date),
		DateSent:    date,
		DateParsed:  time.Now().UTC(),
		Type:        entity.BulletinAutoCancel,
		RawText:     rawText,
		SignalCount: 1,
		Tickers:     pq.StringArray{state.Ticker},
	}
	created, err := s.bulletinRepo.Create(ctx, bulletin)
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	record := entity.SignalRecord{
		BulletinID:      bulletin.ID,
		Date:            date,
		Instrument:      state.Instrument,
		Ticker:          state.Ticker,
		AssetClass:      state.AssetClass,
		SignalType:      state.EffectiveSignal,
		SignalStatus:    entity.StatusCancelled,
		OriginPrice:     state.OriginPrice,
		CancelDirection: state.CancelDirection,
		CancelLevel:     state.CancelLevel,
		RawText:         rawText,
	}
	if err := s.signalRepo.CreateBatch(ctx, []entity.SignalRecord{record}); err != nil {
		return false, err
	}

	// Same total rebuild as ingestion: every ticker is recomputed from
	// scratch on any store change.
	if _, err := s.stateService.RebuildAll(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *autoCancelService) notify(cancellations []dto.AutoCancellation) {
	if s.notifier == nil || len(cancellations) == 0 {
		return
	}
	msg := telegram.FormatAutoCancellationsForTelegram(cancellations)
	if err := s.notifier.SendMessage(msg); err != nil {
		s.logger.Error("Failed to send auto-cancel notification", logger.ErrorField(err))
	}
}
