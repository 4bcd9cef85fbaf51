package dto

import (
	"signal-engine/internal/entity"
)

// SignalDraft is an extracted signal before it is persisted. Both the
// grammar extractor and the LLM extractor must emit this shape.
type SignalDraft struct {
	Instrument       string               `json:"instrument"`
	Ticker           string               `json:"ticker"`
	AssetClass       string               `json:"asset_class"`
	SignalType       entity.SignalType    `json:"signal_type"`
	SignalStatus     entity.SignalStatus  `json:"signal_status"`
	OriginPrice      *float64             `json:"origin_price"`
	CancelDirection  *entity.Direction    `json:"cancel_direction"`
	CancelLevel      *float64             `json:"cancel_level"`
	TriggerDirection *entity.Direction    `json:"trigger_direction"`
	TriggerLevel     *float64             `json:"trigger_level"`
	NoteTheChange    bool                 `json:"note_the_change"`
	UsesHourlyClose  bool                 `json:"uses_hourly_close"`
	RawText          string               `json:"raw_text"`
}

// CycleDraft is an extracted cycle statement before persistence.
type CycleDraft struct {
	Instrument       string                `json:"instrument"`
	Ticker           string                `json:"ticker"`
	Timeframe        string                `json:"timeframe"`
	Direction        entity.CycleDirection `json:"direction"`
	UntilDescription string                `json:"until_description"`
	RawText          string                `json:"raw_text"`
}

// PriceTargetDraft is an extracted price target before persistence.
type PriceTargetDraft struct {
	Instrument  string                 `json:"instrument"`
	Ticker      string                 `json:"ticker"`
	TargetPrice *float64               `json:"target_price"`
	Direction   entity.TargetDirection `json:"direction"`
	Condition   string                 `json:"condition"`
	RawText     string                 `json:"raw_text"`
}

// ExtractionResult is the full batch extracted from one bulletin.
type ExtractionResult struct {
	Signals      []SignalDraft      `json:"signals"`
	Cycles       []CycleDraft       `json:"cycles"`
	PriceTargets []PriceTargetDraft `json:"price_targets"`

	// NoteTheChange records whether the "(note the change)" marker appears
	// anywhere in the body, even outside a parsed signal sentence.
	NoteTheChange bool `json:"note_the_change"`
}

// Empty reports whether nothing was extracted.
func (r *ExtractionResult) Empty() bool {
	return len(r.Signals) == 0 && len(r.Cycles) == 0 && len(r.PriceTargets) == 0
}

// Tickers returns the distinct tickers touched by the batch, in first
// occurrence order.
func (r *ExtractionResult) Tickers() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(ticker string) {
		if ticker == "" || seen[ticker] {
			return
		}
		seen[ticker] = true
		out = append(out, ticker)
	}
	for _, s := range r.Signals {
		add(s.Ticker)
	}
	for _, c := range r.Cycles {
		add(c.Ticker)
	}
	for _, t := range r.PriceTargets {
		add(t.Ticker)
	}
	return out
}
