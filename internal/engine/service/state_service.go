package service

import (
	"context"
	"time"

	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/repository"
	"signal-engine/internal/entity"
	"signal-engine/pkg/logger"

	"github.com/patrickmn/go-cache"
)

const stateCacheKey = "effective_states"

// StateService reconstructs the effective state table from the signal
// record history and serves it. Rebuilds are total on purpose: every
// store change recomputes every ticker from scratch, there is no
// incremental per-ticker patching.
type StateService interface {
	// RebuildAll recomputes every ticker's effective state from scratch
	// and returns the signal flips relative to the previous table.
	RebuildAll(ctx context.Context) ([]dto.StateChange, error)
	GetStates(ctx context.Context) ([]entity.EffectiveState, error)
	GetState(ctx context.Context, ticker string) (*entity.EffectiveState, error)
}

type stateService struct {
	signalRepo repository.SignalRepository
	stateRepo  repository.EffectiveStateRepository
	logger     *logger.Logger
	cache      *cache.Cache
}

// NewStateService creates a new StateService. cacheTTL bounds how long a
// served snapshot can trail a rebuild issued by another process.
func NewStateService(signalRepo repository.SignalRepository, stateRepo repository.EffectiveStateRepository, log *logger.Logger, cacheTTL time.Duration) StateService {
	return &stateService{
		signalRepo: signalRepo,
		stateRepo:  stateRepo,
		logger:     log,
		cache:      cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (s *stateService) RebuildAll(ctx context.Context) ([]dto.StateChange, error) {
	old, err := s.stateRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.signalRepo.FindAllOrdered(ctx)
	if err != nil {
		return nil, err
	}

	states := ReconstructStates(records, time.Now().UTC())
	if err := s.stateRepo.ReplaceAll(ctx, states); err != nil {
		return nil, err
	}
	s.cache.Flush()

	changes := diffStates(old, states)
	s.logger.Info("Rebuilt effective states",
		logger.IntField("tickers", len(states)),
		logger.IntField("changes", len(changes)),
	)
	return changes, nil
}

func (s *stateService) GetStates(ctx context.Context) ([]entity.EffectiveState, error) {
	if cached, ok := s.cache.Get(stateCacheKey); ok {
		return cached.([]entity.EffectiveState), nil
	}
	states, err := s.stateRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(stateCacheKey, states, cache.DefaultExpiration)
	return states, nil
}

func (s *stateService) GetState(ctx context.Context, ticker string) (*entity.EffectiveState, error) {
	return s.stateRepo.FindByTicker(ctx, ticker)
}

// ReconstructStates derives the effective state table from the full
// record history. It is deterministic: the same records always produce
// the same table. Records must arrive ordered by (date, id) ascending;
// the last record per ticker governs. Records without an attributed
// ticker are kept in the store for audit but never produce state.
func ReconstructStates(records []entity.SignalRecord, now time.Time) []entity.EffectiveState {
	latest := make(map[string]entity.SignalRecord)
	var order []string
	for _, rec := range records {
		if rec.Ticker == entity.TickerUnknown {
			continue
		}
		if _, seen := latest[rec.Ticker]; !seen {
			order = append(order, rec.Ticker)
		}
		latest[rec.Ticker] = rec
	}

	states := make([]entity.EffectiveState, 0, len(latest))
	for _, ticker := range order {
		states = append(states, deriveState(latest[ticker], now))
	}
	return states
}

// deriveState maps the governing record to the ticker's current state. A
// CANCELLED record implies an automatic reversal: the opposite signal is
// in effect, entered at the cancel level, with the record's trigger
// fields as the new cancel condition.
func deriveState(rec entity.SignalRecord, now time.Time) entity.EffectiveState {
	state := entity.EffectiveState{
		Ticker:         rec.Ticker,
		Instrument:     rec.Instrument,
		AssetClass:     rec.AssetClass,
		SourceRecordID: rec.ID,
		LastSignalDate: rec.Date,
		LastUpdated:    now,
	}

	if rec.SignalStatus == entity.StatusCancelled {
		state.EffectiveSignal = rec.SignalType.Opposite()
		state.OriginPrice = rec.CancelLevel
		state.CancelDirection = rec.TriggerDirection
		state.CancelLevel = rec.TriggerLevel
		state.ImpliedReversal = true
		return state
	}

	state.EffectiveSignal = rec.SignalType
	state.OriginPrice = rec.OriginPrice
	state.CancelDirection = rec.CancelDirection
	state.CancelLevel = rec.CancelLevel
	state.TriggerDirection = rec.TriggerDirection
	state.TriggerLevel = rec.TriggerLevel
	return state
}

// diffStates reports effective-signal flips between two tables. A ticker
// appearing for the first time is a flip from NEUTRAL.
func diffStates(old, next []entity.EffectiveState) []dto.StateChange {
	prev := make(map[string]entity.EffectiveState, len(old))
	for _, st := range old {
		prev[st.Ticker] = st
	}

	var changes []dto.StateChange
	for _, st := range next {
		oldSignal := entity.SignalNeutral
		if p, ok := prev[st.Ticker]; ok {
			oldSignal = p.EffectiveSignal
		}
		if oldSignal == st.EffectiveSignal {
			continue
		}
		changes = append(changes, dto.StateChange{
			Ticker:          st.Ticker,
			Instrument:      st.Instrument,
			OldSignal:       oldSignal,
			NewSignal:       st.EffectiveSignal,
			OriginPrice:     st.OriginPrice,
			CancelDirection: st.CancelDirection,
			CancelLevel:     st.CancelLevel,
			Date:            st.LastSignalDate,
		})
	}
	return changes
}
