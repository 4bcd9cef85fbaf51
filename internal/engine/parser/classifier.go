package parser

import (
	"strings"

	"signal-engine/internal/entity"
)

// ClassifyBulletin derives the bulletin type from its subject line.
func ClassifyBulletin(subject string) entity.BulletinType {
	s := strings.ToLower(subject)
	switch {
	case strings.Contains(s, "morning update"):
		return entity.BulletinMorningUpdate
	case strings.Contains(s, "intraday"):
		return entity.BulletinIntradayUpdate
	case strings.Contains(s, "stocks update"), strings.Contains(s, "stocks cycle"):
		return entity.BulletinStocksUpdate
	case strings.Contains(s, "sunday cycle") && !strings.Contains(s, "stock"):
		return entity.BulletinSundayCycles
	case strings.Contains(s, "special report"), strings.Contains(s, "special update"):
		return entity.BulletinSpecialReport
	case strings.Contains(s, "weekly overview"):
		return entity.BulletinWeeklyOverview
	default:
		return entity.BulletinOther
	}
}
