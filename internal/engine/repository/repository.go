package repository

import (
	"context"

	"signal-engine/internal/engine/dto"
)

// SignalExtractor extracts the draft batch from a normalized bulletin
// body. The grammar extractor and the LLM fallback both satisfy it.
type SignalExtractor interface {
	ExtractSignals(ctx context.Context, body string) (*dto.ExtractionResult, error)
}
