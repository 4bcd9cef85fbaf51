package entity

import "time"

// TargetDirection is the side of a price target.
type TargetDirection string

const (
	TargetUpside   TargetDirection = "UPSIDE"
	TargetDownside TargetDirection = "DOWNSIDE"
)

// PriceTargetRecord is an informational price target. Targets never
// participate in effective-state reconstruction.
type PriceTargetRecord struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	BulletinID  int64           `gorm:"not null;index" json:"bulletin_id"`
	Date        string          `gorm:"not null;index" json:"date"`
	Instrument  string          `json:"instrument"`
	Ticker      string          `gorm:"not null" json:"ticker"`
	TargetPrice *float64        `json:"target_price"`
	Direction   TargetDirection `json:"direction"`
	Condition   string          `json:"condition"`
	RawText     string          `json:"raw_text"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the PriceTargetRecord model.
func (PriceTargetRecord) TableName() string {
	return "price_target_records"
}
