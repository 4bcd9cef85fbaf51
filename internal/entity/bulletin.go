package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// BulletinType classifies a bulletin from its subject line.
type BulletinType string

const (
	BulletinMorningUpdate  BulletinType = "morning_update"
	BulletinIntradayUpdate BulletinType = "intraday_update"
	BulletinStocksUpdate   BulletinType = "stocks_update"
	BulletinSundayCycles   BulletinType = "sunday_cycles"
	BulletinSpecialReport  BulletinType = "special_report"
	BulletinWeeklyOverview BulletinType = "weekly_overview"
	BulletinAutoCancel     BulletinType = "auto_cancel"
	BulletinOther          BulletinType = "other"
)

// Bulletin is one ingested research bulletin. MessageID is the stable
// external identity used for idempotent ingestion: inserting the same
// MessageID twice is a silent no-op.
type Bulletin struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	MessageID   string         `gorm:"unique;not null" json:"message_id"`
	Subject     string         `json:"subject"`
	DateSent    string         `gorm:"index" json:"date_sent"`
	DateParsed  time.Time      `json:"date_parsed"`
	Type        BulletinType   `json:"type"`
	RawText     string         `json:"raw_text"`
	SignalCount int            `json:"signal_count"`
	Tickers     pq.StringArray `gorm:"type:text[]" json:"tickers"`
	Extraction  datatypes.JSON `gorm:"type:jsonb" json:"extraction,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Bulletin model.
func (Bulletin) TableName() string {
	return "bulletins"
}
