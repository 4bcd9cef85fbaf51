package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"signal-engine/internal/entity"
	"signal-engine/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBulletinRepo struct {
	nextID      int64
	byMessageID map[string]*entity.Bulletin
}

func newFakeBulletinRepo() *fakeBulletinRepo {
	return &fakeBulletinRepo{byMessageID: make(map[string]*entity.Bulletin)}
}

func (f *fakeBulletinRepo) Create(_ context.Context, bulletin *entity.Bulletin) (bool, error) {
	if _, ok := f.byMessageID[bulletin.MessageID]; ok {
		return false, nil
	}
	f.nextID++
	bulletin.ID = f.nextID
	stored := *bulletin
	f.byMessageID[bulletin.MessageID] = &stored
	return true, nil
}

func (f *fakeBulletinRepo) FindByID(_ context.Context, id int64) (*entity.Bulletin, error) {
	for _, b := range f.byMessageID {
		if b.ID == id {
			found := *b
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBulletinRepo) FindByMessageID(_ context.Context, messageID string) (*entity.Bulletin, error) {
	b, ok := f.byMessageID[messageID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *b
	return &found, nil
}

func (f *fakeBulletinRepo) FindRecent(_ context.Context, _ int) ([]entity.Bulletin, error) {
	return nil, nil
}

func (f *fakeBulletinRepo) UpdateExtraction(_ context.Context, _ int64, _ int, _ []byte) error {
	return nil
}

type fakeSignalRepo struct {
	nextID  int64
	records []entity.SignalRecord
}

func (f *fakeSignalRepo) CreateBatch(_ context.Context, records []entity.SignalRecord) error {
	for _, rec := range records {
		f.nextID++
		rec.ID = f.nextID
		f.records = append(f.records, rec)
	}
	return nil
}

func (f *fakeSignalRepo) FindAllOrdered(_ context.Context) ([]entity.SignalRecord, error) {
	out := make([]entity.SignalRecord, len(f.records))
	copy(out, f.records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeSignalRepo) FindByID(_ context.Context, id int64) (*entity.SignalRecord, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			found := rec
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSignalRepo) FindRecent(_ context.Context, _ string, _ int) ([]entity.SignalRecord, error) {
	return nil, nil
}

type fakeStateRepo struct {
	states          map[string]entity.EffectiveState
	replaceAllCalls int
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{states: make(map[string]entity.EffectiveState)}
}

func (f *fakeStateRepo) ReplaceAll(_ context.Context, states []entity.EffectiveState) error {
	f.replaceAllCalls++
	f.states = make(map[string]entity.EffectiveState, len(states))
	for _, st := range states {
		f.states[st.Ticker] = st
	}
	return nil
}

func (f *fakeStateRepo) FindAll(_ context.Context) ([]entity.EffectiveState, error) {
	out := make([]entity.EffectiveState, 0, len(f.states))
	for _, st := range f.states {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (f *fakeStateRepo) FindByTicker(_ context.Context, ticker string) (*entity.EffectiveState, error) {
	st, ok := f.states[ticker]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &st, nil
}

type fakePriceRepo struct {
	closes map[string]float64
}

func newFakePriceRepo() *fakePriceRepo {
	return &fakePriceRepo{closes: make(map[string]float64)}
}

func (f *fakePriceRepo) setClose(ticker, date string, close float64) {
	f.closes[ticker+"|"+date] = close
}

func (f *fakePriceRepo) CreateIgnoreConflict(_ context.Context, _ *entity.PriceObservation) error {
	return nil
}

func (f *fakePriceRepo) FindClose(_ context.Context, ticker, date string) (*float64, error) {
	v, ok := f.closes[ticker+"|"+date]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

type autoCancelFixture struct {
	bulletins *fakeBulletinRepo
	signals   *fakeSignalRepo
	states    *fakeStateRepo
	prices    *fakePriceRepo

	stateService StateService
	service      AutoCancelService
}

func newAutoCancelFixture(t *testing.T) *autoCancelFixture {
	t.Helper()

	log, err := logger.New("error", "json")
	require.NoError(t, err)

	f := &autoCancelFixture{
		bulletins: newFakeBulletinRepo(),
		signals:   &fakeSignalRepo{},
		states:    newFakeStateRepo(),
		prices:    newFakePriceRepo(),
	}
	f.stateService = NewStateService(f.signals, f.states, log, time.Minute)

	var storeMu sync.Mutex
	f.service = NewAutoCancelService(&storeMu, log, f.bulletins, f.signals, f.states, f.prices, f.stateService, nil)
	return f
}

// seedActive stores an ACTIVE record under its own bulletin and rebuilds
// the state table so the ticker has an effective state to evaluate.
func (f *autoCancelFixture) seedActive(t *testing.T, ticker string, signal entity.SignalType, origin float64, cancelDir entity.Direction, cancelLevel float64, hourly bool) {
	t.Helper()
	ctx := context.Background()

	bulletin := &entity.Bulletin{
		MessageID: fmt.Sprintf("seed-%s", ticker),
		DateSent:  "2026-02-17",
		Type:      entity.BulletinMorningUpdate,
	}
	created, err := f.bulletins.Create(ctx, bulletin)
	require.NoError(t, err)
	require.True(t, created)

	rec := entity.SignalRecord{
		BulletinID:      bulletin.ID,
		Date:            "2026-02-17",
		Instrument:      ticker,
		Ticker:          ticker,
		SignalType:      signal,
		SignalStatus:    entity.StatusActive,
		OriginPrice:     ptr(origin),
		CancelDirection: ptr(cancelDir),
		CancelLevel:     ptr(cancelLevel),
		UsesHourlyClose: hourly,
	}
	require.NoError(t, f.signals.CreateBatch(ctx, []entity.SignalRecord{rec}))

	_, err = f.stateService.RebuildAll(ctx)
	require.NoError(t, err)
}

func TestAutoCancelBreachReversesState(t *testing.T) {
	f := newAutoCancelFixture(t)
	f.seedActive(t, "ES", entity.SignalBuy, 5025, entity.DirectionBelow, 5000, false)
	f.prices.setClose("ES", "2026-02-18", 4990.5)

	cancellations, err := f.service.RunDetection(context.Background(), "2026-02-18")
	require.NoError(t, err)
	require.Len(t, cancellations, 1)

	c := cancellations[0]
	assert.Equal(t, "ES", c.Ticker)
	assert.Equal(t, entity.SignalBuy, c.OldSignal)
	assert.Equal(t, entity.SignalSell, c.NewSignal)
	assert.Equal(t, 5000.0, c.CancelLevel)
	assert.Equal(t, 4990.5, c.ClosePrice)

	state, err := f.states.FindByTicker(context.Background(), "ES")
	require.NoError(t, err)
	assert.Equal(t, entity.SignalSell, state.EffectiveSignal)
	assert.True(t, state.ImpliedReversal)
	// The reversal enters at the breached cancel level.
	require.NotNil(t, state.OriginPrice)
	assert.Equal(t, 5000.0, *state.OriginPrice)

	_, err = f.bulletins.FindByMessageID(context.Background(), "auto-cancel-ES-2026-02-18")
	assert.NoError(t, err)
}

func TestAutoCancelRebuildsWholeTable(t *testing.T) {
	f := newAutoCancelFixture(t)
	f.seedActive(t, "ES", entity.SignalBuy, 5025, entity.DirectionBelow, 5000, false)
	f.seedActive(t, "GC", entity.SignalSell, 2920, entity.DirectionAbove, 2950, false)
	f.prices.setClose("ES", "2026-02-18", 4990)
	f.prices.setClose("GC", "2026-02-18", 2940)

	before := f.states.replaceAllCalls

	cancellations, err := f.service.RunDetection(context.Background(), "2026-02-18")
	require.NoError(t, err)
	require.Len(t, cancellations, 1)

	// One breach swaps the whole table once; the untouched ticker is
	// recomputed in the same pass, not patched around.
	assert.Equal(t, before+1, f.states.replaceAllCalls)

	states, err := f.states.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, states, 2)

	es, err := f.states.FindByTicker(context.Background(), "ES")
	require.NoError(t, err)
	assert.Equal(t, entity.SignalSell, es.EffectiveSignal)

	gc, err := f.states.FindByTicker(context.Background(), "GC")
	require.NoError(t, err)
	assert.Equal(t, entity.SignalSell, gc.EffectiveSignal)
	assert.False(t, gc.ImpliedReversal)
}

func TestAutoCancelCloseAtLevelDoesNotCancel(t *testing.T) {
	f := newAutoCancelFixture(t)
	f.seedActive(t, "SPY", entity.SignalBuy, 420, entity.DirectionBelow, 418, false)
	f.prices.setClose("SPY", "2026-02-18", 418)

	cancellations, err := f.service.RunDetection(context.Background(), "2026-02-18")
	require.NoError(t, err)
	assert.Empty(t, cancellations)

	state, err := f.states.FindByTicker(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, entity.SignalBuy, state.EffectiveSignal)
}

func TestAutoCancelRerunSameDayIsNoOp(t *testing.T) {
	f := newAutoCancelFixture(t)
	f.seedActive(t, "GC", entity.SignalSell, 2920, entity.DirectionAbove, 2950, false)
	f.prices.setClose("GC", "2026-02-18", 2951)

	first, err := f.service.RunDetection(context.Background(), "2026-02-18")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := f.service.RunDetection(context.Background(), "2026-02-18")
	require.NoError(t, err)
	assert.Empty(t, second)

	// Seed record plus exactly one synthetic cancellation.
	assert.Len(t, f.signals.records, 2)
}

func TestAutoCancelHourlyCloseExempt(t *testing.T) {
	f := newAutoCancelFixture(t)
	f.seedActive(t, "CL", entity.SignalBuy, 72, entity.DirectionBelow, 70, true)
	f.prices.setClose("CL", "2026-02-18", 68)

	cancellations, err := f.service.RunDetection(context.Background(), "2026-02-18")
	require.NoError(t, err)
	assert.Empty(t, cancellations)
}

func TestAutoCancelMissingPriceSkipped(t *testing.T) {
	f := newAutoCancelFixture(t)
	f.seedActive(t, "SI", entity.SignalBuy, 33, entity.DirectionBelow, 32, false)

	cancellations, err := f.service.RunDetection(context.Background(), "2026-02-18")
	require.NoError(t, err)
	assert.Empty(t, cancellations)
}

func TestBreached(t *testing.T) {
	tests := []struct {
		direction entity.Direction
		close     float64
		level     float64
		want      bool
	}{
		{entity.DirectionAbove, 418.01, 418, true},
		{entity.DirectionAbove, 418, 418, false},
		{entity.DirectionAbove, 417.99, 418, false},
		{entity.DirectionBelow, 417.99, 418, true},
		{entity.DirectionBelow, 418, 418, false},
		{entity.DirectionBelow, 418.01, 418, false},
	}
	for _, tt := range tests {
		got := breached(tt.direction, tt.close, tt.level)
		assert.Equal(t, tt.want, got, "%s close=%v level=%v", tt.direction, tt.close, tt.level)
	}
}
