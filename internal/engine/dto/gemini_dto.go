package dto

import "encoding/json"

// GeminiAPIRequest is the request body for the Gemini generateContent API.
type GeminiAPIRequest struct {
	Contents []Content `json:"contents"`
}

// Content is a single content block in a Gemini request.
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is a single part of a content block.
type Part struct {
	Text string `json:"text"`
}

// GeminiAPIResponse is the response body from the Gemini API.
type GeminiAPIResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is a single response candidate.
type Candidate struct {
	Content struct {
		Parts []Part `json:"parts"`
	} `json:"content"`
}

// LLMSignal is the loosely-typed signal shape the model returns. Numeric
// fields come back as numbers or null, flags as 0/1; the
// repository coerces everything before a SignalDraft is built.
type LLMSignal struct {
	Instrument       string       `json:"instrument"`
	Ticker           string       `json:"ticker"`
	AssetClass       string       `json:"asset_class"`
	SignalType       string       `json:"signal_type"`
	SignalStatus     string       `json:"signal_status"`
	OriginPrice      *json.Number `json:"origin_price"`
	CancelDirection  string       `json:"cancel_direction"`
	CancelLevel      *json.Number `json:"cancel_level"`
	TriggerDirection string       `json:"trigger_direction"`
	TriggerLevel     *json.Number `json:"trigger_level"`
	NoteTheChange    json.Number  `json:"note_the_change"`
	UsesHourlyClose  json.Number  `json:"uses_hourly_close"`
	RawText          string       `json:"raw_text"`
}

// LLMCycle is the loosely-typed cycle shape the model returns.
type LLMCycle struct {
	Instrument       string `json:"instrument"`
	Ticker           string `json:"ticker"`
	Timeframe        string `json:"timeframe"`
	Direction        string `json:"direction"`
	UntilDescription string `json:"until_description"`
	RawText          string `json:"raw_text"`
}

// LLMPriceTarget is the loosely-typed price target shape the model returns.
type LLMPriceTarget struct {
	Instrument  string       `json:"instrument"`
	Ticker      string       `json:"ticker"`
	TargetPrice *json.Number `json:"target_price"`
	Direction   string       `json:"direction"`
	Condition   string       `json:"condition"`
	RawText     string       `json:"raw_text"`
}

// LLMExtraction is the full document the model must return.
type LLMExtraction struct {
	Signals      []LLMSignal      `json:"signals"`
	Cycles       []LLMCycle       `json:"cycles"`
	PriceTargets []LLMPriceTarget `json:"price_targets"`
}
