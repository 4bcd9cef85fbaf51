package repository

import (
	"encoding/json"
	"testing"

	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/parser"
	"signal-engine/internal/entity"
	"signal-engine/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeminiRepo(t *testing.T) *geminiAIRepository {
	t.Helper()
	log, err := logger.New("error", "json")
	require.NoError(t, err)
	return &geminiAIRepository{
		logger:   log,
		registry: parser.NewRegistry(),
	}
}

func num(s string) *json.Number {
	n := json.Number(s)
	return &n
}

func TestValidateDropsUnknownTicker(t *testing.T) {
	r := newTestGeminiRepo(t)

	raw := &dto.LLMExtraction{
		Signals: []dto.LLMSignal{
			{Ticker: "NOPE", SignalType: "BUY", SignalStatus: "ACTIVE"},
			{Ticker: "GC", Instrument: "Gold", SignalType: "BUY", SignalStatus: "ACTIVE"},
		},
		Cycles: []dto.LLMCycle{
			{Ticker: "NOPE", Direction: "UP"},
		},
		PriceTargets: []dto.LLMPriceTarget{
			{Ticker: "NOPE", Direction: "UPSIDE"},
		},
	}

	result := r.validate(raw)
	require.Len(t, result.Signals, 1)
	assert.Equal(t, "GC", result.Signals[0].Ticker)
	assert.Empty(t, result.Cycles)
	assert.Empty(t, result.PriceTargets)
}

func TestValidateCoercesLooseFields(t *testing.T) {
	r := newTestGeminiRepo(t)

	raw := &dto.LLMExtraction{
		Signals: []dto.LLMSignal{{
			Ticker:           "SI",
			Instrument:       "Silver",
			SignalType:       "sell",
			SignalStatus:     "cancelled",
			OriginPrice:      num("32.50"),
			CancelDirection:  "below",
			CancelLevel:      num("31.80"),
			TriggerDirection: "sideways",
			NoteTheChange:    json.Number("1"),
			UsesHourlyClose:  json.Number("0"),
		}},
	}

	result := r.validate(raw)
	require.Len(t, result.Signals, 1)

	d := result.Signals[0]
	assert.Equal(t, entity.SignalSell, d.SignalType)
	assert.Equal(t, entity.StatusCancelled, d.SignalStatus)
	require.NotNil(t, d.OriginPrice)
	assert.Equal(t, 32.5, *d.OriginPrice)
	require.NotNil(t, d.CancelDirection)
	assert.Equal(t, entity.DirectionBelow, *d.CancelDirection)
	// An unrecognized direction is dropped, not guessed.
	assert.Nil(t, d.TriggerDirection)
	assert.True(t, d.NoteTheChange)
	assert.False(t, d.UsesHourlyClose)
}

func TestValidateDefaultsBogusEnums(t *testing.T) {
	r := newTestGeminiRepo(t)

	raw := &dto.LLMExtraction{
		Signals: []dto.LLMSignal{{
			Ticker:       "GC",
			SignalType:   "hold",
			SignalStatus: "pending",
		}},
		Cycles: []dto.LLMCycle{{
			Ticker:    "GC",
			Timeframe: "daily",
			Direction: "sideways",
		}},
		PriceTargets: []dto.LLMPriceTarget{{
			Ticker:      "GC",
			TargetPrice: num("3050"),
			Direction:   "somewhere",
		}},
	}

	result := r.validate(raw)
	require.Len(t, result.Signals, 1)
	assert.Equal(t, entity.SignalBuy, result.Signals[0].SignalType)
	assert.Equal(t, entity.StatusActive, result.Signals[0].SignalStatus)

	require.Len(t, result.Cycles, 1)
	assert.Equal(t, entity.CycleUp, result.Cycles[0].Direction)

	require.Len(t, result.PriceTargets, 1)
	assert.Equal(t, entity.TargetDownside, result.PriceTargets[0].Direction)
}

func TestValidateReassignsCoinScalePrices(t *testing.T) {
	r := newTestGeminiRepo(t)

	raw := &dto.LLMExtraction{
		Signals: []dto.LLMSignal{{
			Ticker:       "GBTC",
			Instrument:   "GBTC",
			AssetClass:   "Crypto ETF",
			SignalType:   "BUY",
			SignalStatus: "ACTIVE",
			OriginPrice:  num("97000"),
		}},
	}

	result := r.validate(raw)
	require.Len(t, result.Signals, 1)
	assert.Equal(t, "BTC", result.Signals[0].Ticker)
	assert.Equal(t, "Bitcoin", result.Signals[0].Instrument)
}

func TestParseExtractionResponseStripsFences(t *testing.T) {
	r := newTestGeminiRepo(t)

	doc := `{"signals":[{"ticker":"GC","instrument":"Gold","signal_type":"BUY","signal_status":"ACTIVE","origin_price":2895}],"cycles":[],"price_targets":[]}`
	resp := &dto.GeminiAPIResponse{}
	resp.Candidates = []dto.Candidate{{}}
	resp.Candidates[0].Content.Parts = []dto.Part{{Text: "```json\n" + doc + "\n```"}}

	result, err := r.parseExtractionResponse(resp)
	require.NoError(t, err)
	require.Len(t, result.Signals, 1)
	assert.Equal(t, "GC", result.Signals[0].Ticker)
	require.NotNil(t, result.Signals[0].OriginPrice)
	assert.Equal(t, 2895.0, *result.Signals[0].OriginPrice)
}

func TestParseExtractionResponseNoContent(t *testing.T) {
	r := newTestGeminiRepo(t)

	_, err := r.parseExtractionResponse(&dto.GeminiAPIResponse{})
	assert.Error(t, err)
}

func TestParseExtractionResponseMalformedJSON(t *testing.T) {
	r := newTestGeminiRepo(t)

	resp := &dto.GeminiAPIResponse{}
	resp.Candidates = []dto.Candidate{{}}
	resp.Candidates[0].Content.Parts = []dto.Part{{Text: "no json here"}}

	_, err := r.parseExtractionResponse(resp)
	assert.Error(t, err)
}
