package entity

import "time"

// PriceObservation is one daily close for a ticker, delivered by the
// price-feed collaborator. Read-only input to the auto-cancel detector.
type PriceObservation struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Ticker    string    `gorm:"not null;uniqueIndex:idx_price_ticker_date_source" json:"ticker"`
	Date      string    `gorm:"not null;uniqueIndex:idx_price_ticker_date_source" json:"date"`
	Close     *float64  `json:"close"`
	Source    string    `gorm:"not null;uniqueIndex:idx_price_ticker_date_source" json:"source"`
	FetchedAt time.Time `gorm:"autoCreateTime" json:"fetched_at"`
}

// TableName specifies the table name for the PriceObservation model.
func (PriceObservation) TableName() string {
	return "price_history"
}
