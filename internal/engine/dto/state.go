package dto

import (
	"signal-engine/internal/entity"
)

// StateChange describes a flip of a ticker's effective signal type
// between two rebuilds. This is everything the alerting collaborator
// needs to act.
type StateChange struct {
	Ticker          string            `json:"ticker"`
	Instrument      string            `json:"instrument"`
	OldSignal       entity.SignalType `json:"old_signal"`
	NewSignal       entity.SignalType `json:"new_signal"`
	OriginPrice     *float64          `json:"origin_price"`
	CancelDirection *entity.Direction `json:"cancel_direction"`
	CancelLevel     *float64          `json:"cancel_level"`
	Date            string            `json:"date"`
}

// AutoCancellation describes one breach the detector acted on.
type AutoCancellation struct {
	Ticker      string            `json:"ticker"`
	Instrument  string            `json:"instrument"`
	OldSignal   entity.SignalType `json:"old_signal"`
	NewSignal   entity.SignalType `json:"new_signal"`
	CancelLevel float64           `json:"cancel_level"`
	ClosePrice  float64           `json:"close_price"`
	Date        string            `json:"date"`
}

// IngestReport summarizes one bulletin ingestion pass.
type IngestReport struct {
	BulletinID   int64         `json:"bulletin_id"`
	Duplicate    bool          `json:"duplicate"`
	Signals      int           `json:"signals"`
	Cycles       int           `json:"cycles"`
	PriceTargets int           `json:"price_targets"`
	StateChanges []StateChange `json:"state_changes"`
}
