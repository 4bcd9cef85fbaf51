package service

import (
	"testing"
	"time"

	"signal-engine/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func activeRecord(id int64, ticker, date string, signal entity.SignalType, origin, cancel float64, cancelDir entity.Direction) entity.SignalRecord {
	return entity.SignalRecord{
		ID:              id,
		Ticker:          ticker,
		Instrument:      ticker,
		Date:            date,
		SignalType:      signal,
		SignalStatus:    entity.StatusActive,
		OriginPrice:     ptr(origin),
		CancelDirection: ptr(cancelDir),
		CancelLevel:     ptr(cancel),
	}
}

func TestReconstructStatesLatestRecordWins(t *testing.T) {
	records := []entity.SignalRecord{
		activeRecord(1, "ES", "2026-02-17", entity.SignalBuy, 5000, 4950, entity.DirectionBelow),
		activeRecord(2, "ES", "2026-02-18", entity.SignalSell, 5100, 5150, entity.DirectionAbove),
	}

	states := ReconstructStates(records, time.Now())
	require.Len(t, states, 1)
	assert.Equal(t, entity.SignalSell, states[0].EffectiveSignal)
	assert.Equal(t, "2026-02-18", states[0].LastSignalDate)
	assert.Equal(t, int64(2), states[0].SourceRecordID)
}

func TestReconstructStatesSameDateHigherIDWins(t *testing.T) {
	records := []entity.SignalRecord{
		activeRecord(1, "GC", "2026-02-17", entity.SignalBuy, 2895, 2870, entity.DirectionBelow),
		activeRecord(2, "GC", "2026-02-17", entity.SignalBuy, 2900, 2880, entity.DirectionBelow),
	}

	states := ReconstructStates(records, time.Now())
	require.Len(t, states, 1)
	assert.Equal(t, 2900.0, *states[0].OriginPrice)
	assert.Equal(t, int64(2), states[0].SourceRecordID)
}

func TestReconstructStatesCancelledImpliesReversal(t *testing.T) {
	rec := entity.SignalRecord{
		ID:               3,
		Ticker:           "ES",
		Date:             "2026-02-18",
		SignalType:       entity.SignalBuy,
		SignalStatus:     entity.StatusCancelled,
		OriginPrice:      ptr(5025.0),
		CancelDirection:  ptr(entity.DirectionBelow),
		CancelLevel:      ptr(5000.0),
		TriggerDirection: ptr(entity.DirectionAbove),
		TriggerLevel:     ptr(5050.0),
	}

	states := ReconstructStates([]entity.SignalRecord{rec}, time.Now())
	require.Len(t, states, 1)

	st := states[0]
	assert.Equal(t, entity.SignalSell, st.EffectiveSignal)
	assert.True(t, st.ImpliedReversal)
	// The reversal enters at the cancel level, with the trigger as the
	// new cancel condition.
	require.NotNil(t, st.OriginPrice)
	assert.Equal(t, 5000.0, *st.OriginPrice)
	require.NotNil(t, st.CancelDirection)
	assert.Equal(t, entity.DirectionAbove, *st.CancelDirection)
	require.NotNil(t, st.CancelLevel)
	assert.Equal(t, 5050.0, *st.CancelLevel)
}

func TestReconstructStatesCancelledWithoutTrigger(t *testing.T) {
	rec := entity.SignalRecord{
		ID:              4,
		Ticker:          "SI",
		Date:            "2026-02-18",
		SignalType:      entity.SignalSell,
		SignalStatus:    entity.StatusCancelled,
		OriginPrice:     ptr(32.5),
		CancelDirection: ptr(entity.DirectionAbove),
		CancelLevel:     ptr(33.0),
	}

	states := ReconstructStates([]entity.SignalRecord{rec}, time.Now())
	require.Len(t, states, 1)
	assert.Equal(t, entity.SignalBuy, states[0].EffectiveSignal)
	assert.Nil(t, states[0].CancelDirection)
	assert.Nil(t, states[0].CancelLevel)
}

func TestReconstructStatesDirectionalCancelsToNeutral(t *testing.T) {
	rec := entity.SignalRecord{
		ID:           5,
		Ticker:       "CL",
		Date:         "2026-02-18",
		SignalType:   entity.SignalDirectional,
		SignalStatus: entity.StatusCancelled,
		CancelLevel:  ptr(70.0),
	}

	states := ReconstructStates([]entity.SignalRecord{rec}, time.Now())
	require.Len(t, states, 1)
	assert.Equal(t, entity.SignalNeutral, states[0].EffectiveSignal)
}

func TestReconstructStatesSkipsUnknownTicker(t *testing.T) {
	records := []entity.SignalRecord{
		activeRecord(1, entity.TickerUnknown, "2026-02-17", entity.SignalBuy, 100, 95, entity.DirectionBelow),
		activeRecord(2, "GC", "2026-02-17", entity.SignalBuy, 2895, 2870, entity.DirectionBelow),
	}

	states := ReconstructStates(records, time.Now())
	require.Len(t, states, 1)
	assert.Equal(t, "GC", states[0].Ticker)
}

func TestReconstructStatesDeterministic(t *testing.T) {
	records := []entity.SignalRecord{
		activeRecord(1, "ES", "2026-02-17", entity.SignalBuy, 5000, 4950, entity.DirectionBelow),
		activeRecord(2, "GC", "2026-02-17", entity.SignalSell, 2895, 2920, entity.DirectionAbove),
		activeRecord(3, "ES", "2026-02-18", entity.SignalBuy, 5010, 4960, entity.DirectionBelow),
	}

	now := time.Now()
	first := ReconstructStates(records, now)
	second := ReconstructStates(records, now)
	assert.Equal(t, first, second)
}

func TestDiffStatesReportsFlips(t *testing.T) {
	old := []entity.EffectiveState{
		{Ticker: "ES", EffectiveSignal: entity.SignalBuy},
		{Ticker: "GC", EffectiveSignal: entity.SignalSell},
	}
	next := []entity.EffectiveState{
		{Ticker: "ES", EffectiveSignal: entity.SignalSell, LastSignalDate: "2026-02-18"},
		{Ticker: "GC", EffectiveSignal: entity.SignalSell},
		{Ticker: "SI", EffectiveSignal: entity.SignalBuy, LastSignalDate: "2026-02-18"},
	}

	changes := diffStates(old, next)
	require.Len(t, changes, 2)

	assert.Equal(t, "ES", changes[0].Ticker)
	assert.Equal(t, entity.SignalBuy, changes[0].OldSignal)
	assert.Equal(t, entity.SignalSell, changes[0].NewSignal)

	// A ticker with no prior state flips from NEUTRAL.
	assert.Equal(t, "SI", changes[1].Ticker)
	assert.Equal(t, entity.SignalNeutral, changes[1].OldSignal)
}
