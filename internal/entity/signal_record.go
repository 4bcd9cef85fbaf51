package entity

import (
	"time"
)

// SignalType is the direction of a signal as stated in a bulletin.
type SignalType string

const (
	SignalBuy         SignalType = "BUY"
	SignalSell        SignalType = "SELL"
	SignalDirectional SignalType = "DIRECTIONAL"
	SignalNeutral     SignalType = "NEUTRAL"
)

// Opposite returns the implied reversal direction. Anything that is not
// a plain BUY or SELL reverses to NEUTRAL.
func (t SignalType) Opposite() SignalType {
	switch t {
	case SignalBuy:
		return SignalSell
	case SignalSell:
		return SignalBuy
	default:
		return SignalNeutral
	}
}

// SignalStatus is the lifecycle state a record describes.
type SignalStatus string

const (
	StatusActive    SignalStatus = "ACTIVE"
	StatusCancelled SignalStatus = "CANCELLED"
)

// Direction is the side of a cancel or trigger level.
type Direction string

const (
	DirectionAbove Direction = "ABOVE"
	DirectionBelow Direction = "BELOW"
)

// TickerUnknown is assigned when no instrument header could be attributed.
// Records under it are kept for audit but excluded from tradeable state.
const TickerUnknown = "UNK"

// SignalRecord is one extracted signal statement. Records are append-only:
// once stored they are never updated or deleted, corrections arrive as new
// records and the effective state is recomputed from the full history.
type SignalRecord struct {
	ID               int64        `gorm:"primaryKey" json:"id"`
	BulletinID       int64        `gorm:"not null;index" json:"bulletin_id"`
	Date             string       `gorm:"not null;index" json:"date"`
	Instrument       string       `gorm:"index" json:"instrument"`
	Ticker           string       `gorm:"not null;index" json:"ticker"`
	AssetClass       string       `json:"asset_class"`
	SignalType       SignalType   `gorm:"not null" json:"signal_type"`
	SignalStatus     SignalStatus `gorm:"not null;index" json:"signal_status"`
	OriginPrice      *float64     `json:"origin_price"`
	CancelDirection  *Direction   `json:"cancel_direction"`
	CancelLevel      *float64     `json:"cancel_level"`
	TriggerDirection *Direction   `json:"trigger_direction"`
	TriggerLevel     *float64     `json:"trigger_level"`
	NoteTheChange    bool         `json:"note_the_change"`
	UsesHourlyClose  bool         `json:"uses_hourly_close"`
	RawText          string       `json:"raw_text"`
	CreatedAt        time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the SignalRecord model.
func (SignalRecord) TableName() string {
	return "signal_records"
}
