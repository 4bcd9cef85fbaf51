package telegram

import (
	"fmt"
	"strings"

	"signal-engine/internal/engine/dto"
	"signal-engine/internal/entity"
)

// FormatStateChangesForTelegram formats effective-signal flips into one
// Markdown message for Telegram.
func FormatStateChangesForTelegram(changes []dto.StateChange) string {
	if len(changes) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("🚨 *Signal State Changes* 🚨\n\n")

	for _, c := range changes {
		b.WriteString(fmt.Sprintf("%s *- - - - - %s (%s) - - - - -*\n", signalIcon(c.NewSignal), c.Instrument, c.Ticker))
		b.WriteString(fmt.Sprintf("🔁 *Signal:* %s → %s\n", c.OldSignal, c.NewSignal))
		if c.OriginPrice != nil {
			b.WriteString(fmt.Sprintf("📍 *Origin:* %s\n", formatPrice(*c.OriginPrice)))
		}
		if c.CancelLevel != nil && c.CancelDirection != nil {
			b.WriteString(fmt.Sprintf("🛑 *Cancel:* close %s %s\n", strings.ToLower(string(*c.CancelDirection)), formatPrice(*c.CancelLevel)))
		}
		b.WriteString(fmt.Sprintf("📅 *Date:* %s\n\n", c.Date))
	}

	return b.String()
}

// FormatAutoCancellationsForTelegram formats the breaches one detector
// pass acted on into one Markdown message for Telegram.
func FormatAutoCancellationsForTelegram(cancellations []dto.AutoCancellation) string {
	if len(cancellations) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("⚠️ *Auto-Cancelled Signals* ⚠️\n\n")

	for _, c := range cancellations {
		b.WriteString(fmt.Sprintf("%s *- - - - - %s (%s) - - - - -*\n", signalIcon(c.NewSignal), c.Instrument, c.Ticker))
		b.WriteString(fmt.Sprintf("🔁 *Signal:* %s → %s\n", c.OldSignal, c.NewSignal))
		b.WriteString(fmt.Sprintf("📉 *Close:* %s breached cancel level %s\n", formatPrice(c.ClosePrice), formatPrice(c.CancelLevel)))
		b.WriteString(fmt.Sprintf("📅 *Date:* %s\n\n", c.Date))
	}

	return b.String()
}

func signalIcon(t entity.SignalType) string {
	switch t {
	case entity.SignalBuy:
		return "🟢"
	case entity.SignalSell:
		return "🔴"
	default:
		return "🟡"
	}
}

func formatPrice(v float64) string {
	s := fmt.Sprintf("%.4f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
