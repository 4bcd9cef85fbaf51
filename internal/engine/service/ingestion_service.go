package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/parser"
	"signal-engine/internal/engine/repository"
	"signal-engine/internal/entity"
	"signal-engine/pkg/logger"
	"signal-engine/pkg/telegram"
	"signal-engine/pkg/utils"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// IngestionService turns one bulletin into stored records and a rebuilt
// state table. All store writes go through a single mutex: extraction
// runs outside the lock, writes and the rebuild inside it, so concurrent
// triggers serialize at the store boundary and each rebuild sees a
// complete batch.
type IngestionService interface {
	IngestBulletin(ctx context.Context, req *dto.IngestBulletinRequest) (*dto.IngestReport, error)
}

type ingestionService struct {
	storeMu *sync.Mutex

	logger       *logger.Logger
	registry     *parser.Registry
	grammar      *parser.GrammarExtractor
	aiRepo       repository.SignalExtractor
	bulletinRepo repository.BulletinRepository
	signalRepo   repository.SignalRepository
	cycleRepo    repository.CycleRecordRepository
	targetRepo   repository.PriceTargetRepository
	stateService StateService
	notifier     telegram.Notifier
}

// NewIngestionService creates a new IngestionService. aiRepo and notifier
// may be nil; the LLM fallback and alerting are then disabled.
func NewIngestionService(
	storeMu *sync.Mutex,
	log *logger.Logger,
	registry *parser.Registry,
	aiRepo repository.SignalExtractor,
	bulletinRepo repository.BulletinRepository,
	signalRepo repository.SignalRepository,
	cycleRepo repository.CycleRecordRepository,
	targetRepo repository.PriceTargetRepository,
	stateService StateService,
	notifier telegram.Notifier,
) IngestionService {
	return &ingestionService{
		storeMu:      storeMu,
		logger:       log,
		registry:     registry,
		grammar:      parser.NewGrammarExtractor(registry),
		aiRepo:       aiRepo,
		bulletinRepo: bulletinRepo,
		signalRepo:   signalRepo,
		cycleRepo:    cycleRepo,
		targetRepo:   targetRepo,
		stateService: stateService,
		notifier:     notifier,
	}
}

func (s *ingestionService) IngestBulletin(ctx context.Context, req *dto.IngestBulletinRequest) (*dto.IngestReport, error) {
	if existing, err := s.bulletinRepo.FindByMessageID(ctx, req.MessageID); err == nil {
		s.logger.Info("Bulletin already ingested, skipping",
			logger.StringField("message_id", req.MessageID))
		return &dto.IngestReport{BulletinID: existing.ID, Duplicate: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	body := parser.NormalizeBody(req.Body)
	bulletinType := parser.ClassifyBulletin(req.Subject)

	// Extraction happens outside the store lock; it may block on the LLM
	// rate limiter for a while.
	extraction := s.extract(ctx, body)

	rawExtraction, err := json.Marshal(extraction)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date == "" {
		date = utils.DateNowUTC()
	}

	s.storeMu.Lock()
	report, changes, err := s.store(ctx, req, body, bulletinType, date, extraction, rawExtraction)
	s.storeMu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(changes)
	return report, nil
}

func (s *ingestionService) extract(ctx context.Context, body string) *dto.ExtractionResult {
	result := s.grammar.Extract(body)
	if !result.Empty() || s.aiRepo == nil {
		return result
	}

	s.logger.Info("Grammar extracted nothing, trying LLM fallback")
	llmResult, err := s.aiRepo.ExtractSignals(ctx, body)
	if err != nil {
		// Fail closed: a broken LLM response stores the bulletin with an
		// empty batch rather than guessed records.
		s.logger.Error("LLM extraction failed", logger.ErrorField(err))
		return result
	}
	// The marker is detected on the raw body, so it survives the fallback.
	llmResult.NoteTheChange = result.NoteTheChange
	return llmResult
}

func (s *ingestionService) store(ctx context.Context, req *dto.IngestBulletinRequest, body string, bulletinType entity.BulletinType, date string, extraction *dto.ExtractionResult, rawExtraction []byte) (*dto.IngestReport, []dto.StateChange, error) {
	bulletin := &entity.Bulletin{
		MessageID:  req.MessageID,
		Subject:    req.Subject,
		DateSent:   date,
		DateParsed: time.Now().UTC(),
		Type:       bulletinType,
		RawText:    body,
		Tickers:    pq.StringArray(extraction.Tickers()),
	}
	created, err := s.bulletinRepo.Create(ctx, bulletin)
	if err != nil {
		return nil, nil, err
	}
	if !created {
		existing, err := s.bulletinRepo.FindByMessageID(ctx, req.MessageID)
		if err != nil {
			return nil, nil, err
		}
		return &dto.IngestReport{BulletinID: existing.ID, Duplicate: true}, nil, nil
	}

	signals := make([]entity.SignalRecord, 0, len(extraction.Signals))
	for _, d := range extraction.Signals {
		signals = append(signals, entity.SignalRecord{
			BulletinID:       bulletin.ID,
			Date:             date,
			Instrument:       d.Instrument,
			Ticker:           d.Ticker,
			AssetClass:       d.AssetClass,
			SignalType:       d.SignalType,
			SignalStatus:     d.SignalStatus,
			OriginPrice:      d.OriginPrice,
			CancelDirection:  d.CancelDirection,
			CancelLevel:      d.CancelLevel,
			TriggerDirection: d.TriggerDirection,
			TriggerLevel:     d.TriggerLevel,
			NoteTheChange:    d.NoteTheChange,
			UsesHourlyClose:  d.UsesHourlyClose,
			RawText:          d.RawText,
		})
	}
	if err := s.signalRepo.CreateBatch(ctx, signals); err != nil {
		return nil, nil, err
	}

	cycles := make([]entity.CycleRecord, 0, len(extraction.Cycles))
	for _, d := range extraction.Cycles {
		cycles = append(cycles, entity.CycleRecord{
			BulletinID:       bulletin.ID,
			Date:             date,
			Instrument:       d.Instrument,
			Ticker:           d.Ticker,
			Timeframe:        d.Timeframe,
			Direction:        d.Direction,
			UntilDescription: d.UntilDescription,
			RawText:          d.RawText,
		})
	}
	if err := s.cycleRepo.CreateBatch(ctx, cycles); err != nil {
		return nil, nil, err
	}

	targets := make([]entity.PriceTargetRecord, 0, len(extraction.PriceTargets))
	for _, d := range extraction.PriceTargets {
		targets = append(targets, entity.PriceTargetRecord{
			BulletinID:  bulletin.ID,
			Date:        date,
			Instrument:  d.Instrument,
			Ticker:      d.Ticker,
			TargetPrice: d.TargetPrice,
			Direction:   d.Direction,
			Condition:   d.Condition,
			RawText:     d.RawText,
		})
	}
	if err := s.targetRepo.CreateBatch(ctx, targets); err != nil {
		return nil, nil, err
	}

	if err := s.bulletinRepo.UpdateExtraction(ctx, bulletin.ID, len(signals), rawExtraction); err != nil {
		return nil, nil, err
	}

	changes, err := s.stateService.RebuildAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Ingested bulletin",
		logger.StringField("message_id", req.MessageID),
		logger.StringField("type", string(bulletinType)),
		logger.IntField("signals", len(signals)),
		logger.IntField("cycles", len(cycles)),
		logger.IntField("targets", len(targets)),
		logger.IntField("state_changes", len(changes)),
	)

	return &dto.IngestReport{
		BulletinID:   bulletin.ID,
		Signals:      len(signals),
		Cycles:       len(cycles),
		PriceTargets: len(targets),
		StateChanges: changes,
	}, changes, nil
}

func (s *ingestionService) notify(changes []dto.StateChange) {
	if s.notifier == nil || len(changes) == 0 {
		return
	}
	msg := telegram.FormatStateChangesForTelegram(changes)
	if err := s.notifier.SendMessage(msg); err != nil {
		s.logger.Error("Failed to send state change notification", logger.ErrorField(err))
	}
}
