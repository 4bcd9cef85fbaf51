package entity

import "time"

// EffectiveState is the single reconstructed current signal for a ticker.
// It is a pure function of the ticker's ordered SignalRecord history and
// has no identity of its own: every store change deletes and recomputes
// the whole table.
type EffectiveState struct {
	Ticker           string     `gorm:"primaryKey" json:"ticker"`
	Instrument       string     `json:"instrument"`
	AssetClass       string     `json:"asset_class"`
	EffectiveSignal  SignalType `json:"effective_signal"`
	OriginPrice      *float64   `json:"origin_price"`
	CancelDirection  *Direction `json:"cancel_direction"`
	CancelLevel      *float64   `json:"cancel_level"`
	TriggerDirection *Direction `json:"trigger_direction"`
	TriggerLevel     *float64   `json:"trigger_level"`
	ImpliedReversal  bool       `json:"implied_reversal"`
	SourceRecordID   int64      `json:"source_record_id"`
	LastSignalDate   string     `json:"last_signal_date"`
	LastUpdated      time.Time  `json:"last_updated"`
}

// TableName specifies the table name for the EffectiveState model.
func (EffectiveState) TableName() string {
	return "effective_states"
}
