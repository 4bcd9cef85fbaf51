package utils

import (
	"context"
	"log"
	"time"

	"signal-engine/pkg/logger"
)

// DateLayout is the canonical wire and storage format for bulletin dates.
const DateLayout = "2006-01-02"

// DateNowUTC returns today's date in canonical form.
func DateNowUTC() string {
	return time.Now().UTC().Format(DateLayout)
}

// ParseDate validates a canonical date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ToPointer returns a pointer to v.
func ToPointer[T any](v T) *T {
	return &v
}

// GoSafe runs fn in a goroutine and keeps a panic from taking the
// process down.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("recovered from panic: %v", r)
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still live, logging the
// cancellation when it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Warn("context cancelled, stopping work", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}
