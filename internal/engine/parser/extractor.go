package parser

import (
	"signal-engine/internal/engine/dto"
	"signal-engine/internal/entity"
)

// GrammarExtractor runs the deterministic grammar over a normalized
// bulletin body and attributes every match to an instrument via the
// registry. It is the primary extraction path; the LLM path is the
// fallback for prose the grammar cannot parse.
type GrammarExtractor struct {
	registry *Registry
}

func NewGrammarExtractor(registry *Registry) *GrammarExtractor {
	return &GrammarExtractor{registry: registry}
}

// Extract produces the full draft batch from one bulletin body. The body
// must already be normalized to plain text.
func (e *GrammarExtractor) Extract(body string) *dto.ExtractionResult {
	result := &dto.ExtractionResult{NoteTheChange: HasNoteTheChange(body)}

	for _, m := range FindActiveSignals(body) {
		attr := e.registry.Attribute(body[:m.Start])
		result.Signals = append(result.Signals, dto.SignalDraft{
			Instrument:      attr.Instrument,
			Ticker:          attr.Ticker,
			AssetClass:      attr.AssetClass,
			SignalType:      m.SignalType,
			SignalStatus:    entity.StatusActive,
			OriginPrice:     m.OriginPrice,
			CancelDirection: &m.CancelDirection,
			CancelLevel:     m.CancelLevel,
			NoteTheChange:   m.NoteTheChange,
			UsesHourlyClose: m.UsesHourlyClose,
			RawText:         m.RawText,
		})
	}

	for _, m := range FindCancelledSignals(body) {
		attr := e.registry.Attribute(body[:m.Start])
		cancelDir := m.CancelDirection
		result.Signals = append(result.Signals, dto.SignalDraft{
			Instrument:       attr.Instrument,
			Ticker:           attr.Ticker,
			AssetClass:       attr.AssetClass,
			SignalType:       m.SignalType,
			SignalStatus:     entity.StatusCancelled,
			OriginPrice:      m.OriginPrice,
			CancelDirection:  &cancelDir,
			CancelLevel:      m.CancelLevel,
			TriggerDirection: m.TriggerDirection,
			TriggerLevel:     m.TriggerLevel,
			UsesHourlyClose:  m.UsesHourlyClose,
			RawText:          m.RawText,
		})
	}

	for _, m := range FindPriceTargets(body) {
		attr := e.registry.Attribute(body[:m.Start])
		result.PriceTargets = append(result.PriceTargets, dto.PriceTargetDraft{
			Instrument:  attr.Instrument,
			Ticker:      attr.Ticker,
			TargetPrice: m.TargetPrice,
			Direction:   m.Direction,
			Condition:   m.Condition,
			RawText:     m.RawText,
		})
	}

	for _, m := range FindCycles(body) {
		attr := e.registry.Attribute(body[:m.Start])
		result.Cycles = append(result.Cycles, dto.CycleDraft{
			Instrument:       attr.Instrument,
			Ticker:           attr.Ticker,
			Timeframe:        m.Timeframe,
			Direction:        m.Direction,
			UntilDescription: m.UntilDescription,
			RawText:          m.RawText,
		})
	}

	ReassignByMagnitude(result.Signals)
	return result
}

// ReassignByMagnitude corrects crypto signals attributed to an ETF section
// when the quoted price magnitude can only belong to the underlying coin.
// Combined headers like "Bitcoin & GBTC" cover both, and the ETF trades
// orders of magnitude below the coin.
func ReassignByMagnitude(signals []dto.SignalDraft) {
	for i := range signals {
		s := &signals[i]
		if s.OriginPrice == nil {
			continue
		}
		switch {
		case s.Ticker == "GBTC" && *s.OriginPrice > 1000:
			s.Instrument, s.Ticker, s.AssetClass = "Bitcoin", "BTC", "Crypto"
		case s.Ticker == "ETHE" && *s.OriginPrice > 100:
			s.Instrument, s.Ticker, s.AssetClass = "Ethereum", "ETH", "Crypto"
		}
	}
}
