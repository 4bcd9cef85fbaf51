package entity

import "time"

// CycleDirection is a normalized cycle direction.
type CycleDirection string

const (
	CycleUp   CycleDirection = "UP"
	CycleDown CycleDirection = "DOWN"
)

// CycleRecord is an informational cycle statement. Cycles never
// participate in effective-state reconstruction.
type CycleRecord struct {
	ID               int64          `gorm:"primaryKey" json:"id"`
	BulletinID       int64          `gorm:"not null;index" json:"bulletin_id"`
	Date             string         `gorm:"not null;index" json:"date"`
	Instrument       string         `gorm:"index" json:"instrument"`
	Ticker           string         `gorm:"not null" json:"ticker"`
	Timeframe        string         `json:"timeframe"`
	Direction        CycleDirection `json:"direction"`
	UntilDescription string         `json:"until_description"`
	RawText          string         `json:"raw_text"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the CycleRecord model.
func (CycleRecord) TableName() string {
	return "cycle_records"
}
