package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/parser"
	"signal-engine/internal/entity"
	"signal-engine/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCycleRepo struct {
	records []entity.CycleRecord
}

func (f *fakeCycleRepo) CreateBatch(_ context.Context, records []entity.CycleRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeCycleRepo) FindRecent(_ context.Context, _ string, _ int) ([]entity.CycleRecord, error) {
	return nil, nil
}

type fakeTargetRepo struct {
	records []entity.PriceTargetRecord
}

func (f *fakeTargetRepo) CreateBatch(_ context.Context, records []entity.PriceTargetRecord) error {
	f.records = append(f.records, records...)
	return nil
}

func (f *fakeTargetRepo) FindRecent(_ context.Context, _ string, _ int) ([]entity.PriceTargetRecord, error) {
	return nil, nil
}

type ingestionFixture struct {
	bulletins *fakeBulletinRepo
	signals   *fakeSignalRepo
	cycles    *fakeCycleRepo
	targets   *fakeTargetRepo
	states    *fakeStateRepo

	service IngestionService
}

func newIngestionFixture(t *testing.T) *ingestionFixture {
	t.Helper()

	log, err := logger.New("error", "json")
	require.NoError(t, err)

	f := &ingestionFixture{
		bulletins: newFakeBulletinRepo(),
		signals:   &fakeSignalRepo{},
		cycles:    &fakeCycleRepo{},
		targets:   &fakeTargetRepo{},
		states:    newFakeStateRepo(),
	}
	stateService := NewStateService(f.signals, f.states, log, time.Minute)

	var storeMu sync.Mutex
	f.service = NewIngestionService(&storeMu, log, parser.NewRegistry(), nil,
		f.bulletins, f.signals, f.cycles, f.targets, stateService, nil)
	return f
}

func TestIngestBulletinStoresRecordsAndState(t *testing.T) {
	f := newIngestionFixture(t)

	req := &dto.IngestBulletinRequest{
		MessageID: "msg-100",
		Subject:   "Morning Update February 17th 2026",
		Date:      "2026-02-17",
		Body: "Gold (April contract)\n" +
			"Continues on a buy signal from 2,895 as long as there is no close below 2,870.\n" +
			"There is still an upside price target at 3,050.\n" +
			"The daily cycle is up until the end of next week.\n",
	}

	report, err := f.service.IngestBulletin(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, report.Duplicate)
	assert.Equal(t, 1, report.Signals)
	assert.Equal(t, 1, report.Cycles)
	assert.Equal(t, 1, report.PriceTargets)

	// A fresh BUY flips the ticker out of NEUTRAL.
	require.Len(t, report.StateChanges, 1)
	assert.Equal(t, "GC", report.StateChanges[0].Ticker)
	assert.Equal(t, entity.SignalNeutral, report.StateChanges[0].OldSignal)
	assert.Equal(t, entity.SignalBuy, report.StateChanges[0].NewSignal)

	state, err := f.states.FindByTicker(context.Background(), "GC")
	require.NoError(t, err)
	assert.Equal(t, entity.SignalBuy, state.EffectiveSignal)
	require.NotNil(t, state.OriginPrice)
	assert.Equal(t, 2895.0, *state.OriginPrice)

	bulletin, err := f.bulletins.FindByMessageID(context.Background(), "msg-100")
	require.NoError(t, err)
	assert.Equal(t, entity.BulletinMorningUpdate, bulletin.Type)
}

func TestIngestBulletinDuplicateMessageID(t *testing.T) {
	f := newIngestionFixture(t)

	req := &dto.IngestBulletinRequest{
		MessageID: "msg-200",
		Subject:   "Morning Update",
		Date:      "2026-02-17",
		Body:      "Gold (April contract)\nContinues on a buy signal from 2,895 as long as there is no close below 2,870.\n",
	}

	first, err := f.service.IngestBulletin(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	second, err := f.service.IngestBulletin(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.BulletinID, second.BulletinID)

	assert.Len(t, f.signals.records, 1)
}

func TestIngestBulletinCancellationFlipsState(t *testing.T) {
	f := newIngestionFixture(t)
	ctx := context.Background()

	_, err := f.service.IngestBulletin(ctx, &dto.IngestBulletinRequest{
		MessageID: "msg-300",
		Subject:   "Morning Update",
		Date:      "2026-02-17",
		Body:      "Silver (March contract)\nContinues on a buy signal from 32.50 as long as there is no close below 31.80.\n",
	})
	require.NoError(t, err)

	report, err := f.service.IngestBulletin(ctx, &dto.IngestBulletinRequest{
		MessageID: "msg-301",
		Subject:   "Intraday Update",
		Date:      "2026-02-18",
		Body: "Silver (March contract)\nCancelled the buy signal from 32.50 with the close below 31.80. " +
			"A close above 32.00 will resume a new buy signal.\n",
	})
	require.NoError(t, err)

	require.Len(t, report.StateChanges, 1)
	assert.Equal(t, entity.SignalBuy, report.StateChanges[0].OldSignal)
	assert.Equal(t, entity.SignalSell, report.StateChanges[0].NewSignal)

	state, err := f.states.FindByTicker(ctx, "SI")
	require.NoError(t, err)
	assert.Equal(t, entity.SignalSell, state.EffectiveSignal)
	assert.True(t, state.ImpliedReversal)
	// The resume trigger becomes the new cancel condition.
	require.NotNil(t, state.CancelDirection)
	assert.Equal(t, entity.DirectionAbove, *state.CancelDirection)
	require.NotNil(t, state.CancelLevel)
	assert.Equal(t, 32.0, *state.CancelLevel)
}

func TestIngestBulletinNoSignalsStoresEmptyBatch(t *testing.T) {
	f := newIngestionFixture(t)

	report, err := f.service.IngestBulletin(context.Background(), &dto.IngestBulletinRequest{
		MessageID: "msg-400",
		Subject:   "Special Report",
		Date:      "2026-02-17",
		Body:      "A longer essay with no actionable statements.",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Signals)
	assert.Empty(t, report.StateChanges)

	_, err = f.bulletins.FindByMessageID(context.Background(), "msg-400")
	assert.NoError(t, err)
}
