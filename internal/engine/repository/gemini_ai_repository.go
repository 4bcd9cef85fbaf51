package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"signal-engine/internal/engine/config"
	"signal-engine/internal/engine/dto"
	"signal-engine/internal/engine/parser"
	"signal-engine/internal/entity"
	"signal-engine/pkg/logger"
	"signal-engine/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiAIRepository is a SignalExtractor backed by the Google Gemini API.
// It fails closed: anything the model returns that does not validate is
// dropped, and a broken response yields an empty batch, never a partial
// guess.
type geminiAIRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	registry       *parser.Registry
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new instance of geminiAIRepository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, registry *parser.Registry, genAiClient *genai.Client) (SignalExtractor, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute)

	return &geminiAIRepository{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		registry:       registry,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

// ExtractSignals parses one bulletin body with the model and validates
// the result against the draft contract.
func (r *geminiAIRepository) ExtractSignals(ctx context.Context, body string) (*dto.ExtractionResult, error) {
	if len(body) < 50 {
		return &dto.ExtractionResult{}, nil
	}

	prompt := BuildExtractionPrompt(r.registry.InstrumentsJSON(), body)

	geminiResp, err := r.executeGeminiAIRequest(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return r.parseExtractionResponse(geminiResp)
}

func (r *geminiAIRepository) executeGeminiAIRequest(ctx context.Context, prompt string) (*dto.GeminiAPIResponse, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, "user"),
	}
	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.DebugContext(ctx, "Gemini token count",
		logger.IntField("total_tokens", int(geminiTokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)

	if err := r.tokenLimiter.Wait(ctx, int(geminiTokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for token limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.GeminiAPIRequest{
		Contents: []dto.Content{{Parts: []dto.Part{{Text: prompt}}}},
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("Failed to marshal payload", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/%s:generateContent?key=%s", r.cfg.Gemini.BaseURL, r.cfg.Gemini.Model, r.cfg.Gemini.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		r.logger.Error("Failed to create new http request", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("Failed to send request to Gemini API", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to send request to Gemini API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("Received non-OK response from Gemini API", logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK response from Gemini API: %d - %s", resp.StatusCode, string(body))
	}

	var geminiResp dto.GeminiAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		r.logger.Error("Failed to decode response body", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &geminiResp, nil
}

func (r *geminiAIRepository) parseExtractionResponse(resp *dto.GeminiAPIResponse) (*dto.ExtractionResult, error) {
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("invalid response from Gemini API: no content found")
	}

	jsonString := resp.Candidates[0].Content.Parts[0].Text
	jsonString = strings.Trim(jsonString, "`json\n`")

	var raw dto.LLMExtraction
	if err := json.Unmarshal([]byte(jsonString), &raw); err != nil {
		r.logger.Error("Failed to unmarshal extraction from Gemini response", logger.ErrorField(err), logger.StringField("response", truncate(jsonString, 500)))
		return nil, fmt.Errorf("failed to unmarshal extraction from Gemini response: %w", err)
	}

	return r.validate(&raw), nil
}

// validate coerces the loosely-typed model output into draft shapes,
// dropping anything that does not resolve against the registry.
func (r *geminiAIRepository) validate(raw *dto.LLMExtraction) *dto.ExtractionResult {
	result := &dto.ExtractionResult{}

	for _, s := range raw.Signals {
		if !r.registry.HasTicker(s.Ticker) {
			r.logger.Warn("Model returned unknown ticker, skipping", logger.StringField("ticker", s.Ticker))
			continue
		}

		draft := dto.SignalDraft{
			Instrument:      s.Instrument,
			Ticker:          s.Ticker,
			AssetClass:      s.AssetClass,
			SignalType:      validateSignalType(s.SignalType),
			SignalStatus:    validateSignalStatus(s.SignalStatus),
			OriginPrice:     numberToFloat(s.OriginPrice),
			CancelLevel:     numberToFloat(s.CancelLevel),
			TriggerLevel:    numberToFloat(s.TriggerLevel),
			NoteTheChange:   numberToBool(s.NoteTheChange),
			UsesHourlyClose: numberToBool(s.UsesHourlyClose),
			RawText:         truncate(s.RawText, 500),
		}
		if d := validateDirection(s.CancelDirection); d != nil {
			draft.CancelDirection = d
		}
		draft.TriggerDirection = validateDirection(s.TriggerDirection)
		result.Signals = append(result.Signals, draft)
	}

	parser.ReassignByMagnitude(result.Signals)

	for _, c := range raw.Cycles {
		if !r.registry.HasTicker(c.Ticker) {
			continue
		}
		dir := entity.CycleDirection(strings.ToUpper(c.Direction))
		if dir != entity.CycleUp && dir != entity.CycleDown {
			dir = entity.CycleUp
		}
		result.Cycles = append(result.Cycles, dto.CycleDraft{
			Instrument:       c.Instrument,
			Ticker:           c.Ticker,
			Timeframe:        c.Timeframe,
			Direction:        dir,
			UntilDescription: truncate(c.UntilDescription, 200),
			RawText:          truncate(c.RawText, 500),
		})
	}

	for _, t := range raw.PriceTargets {
		if !r.registry.HasTicker(t.Ticker) {
			continue
		}
		dir := entity.TargetDirection(strings.ToUpper(t.Direction))
		if dir != entity.TargetUpside && dir != entity.TargetDownside {
			dir = entity.TargetDownside
		}
		result.PriceTargets = append(result.PriceTargets, dto.PriceTargetDraft{
			Instrument:  t.Instrument,
			Ticker:      t.Ticker,
			TargetPrice: numberToFloat(t.TargetPrice),
			Direction:   dir,
			Condition:   t.Condition,
			RawText:     truncate(t.RawText, 500),
		})
	}

	return result
}

func validateSignalType(s string) entity.SignalType {
	switch entity.SignalType(strings.ToUpper(s)) {
	case entity.SignalSell:
		return entity.SignalSell
	case entity.SignalDirectional:
		return entity.SignalDirectional
	case entity.SignalNeutral:
		return entity.SignalNeutral
	default:
		return entity.SignalBuy
	}
}

func validateSignalStatus(s string) entity.SignalStatus {
	if entity.SignalStatus(strings.ToUpper(s)) == entity.StatusCancelled {
		return entity.StatusCancelled
	}
	return entity.StatusActive
}

func validateDirection(s string) *entity.Direction {
	d := entity.Direction(strings.ToUpper(s))
	if d == entity.DirectionAbove || d == entity.DirectionBelow {
		return &d
	}
	return nil
}

func numberToFloat(n *json.Number) *float64 {
	if n == nil {
		return nil
	}
	v, err := n.Float64()
	if err != nil {
		return nil
	}
	return &v
}

func numberToBool(n json.Number) bool {
	v, err := n.Int64()
	return err == nil && v != 0
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
