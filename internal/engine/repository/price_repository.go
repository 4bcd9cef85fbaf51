package repository

import (
	"context"

	"signal-engine/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PriceRepository interface {
	// CreateIgnoreConflict inserts an observation; an existing
	// (ticker, date, source) row wins and the insert is a no-op.
	CreateIgnoreConflict(ctx context.Context, obs *entity.PriceObservation) error
	// FindClose returns the daily close for a ticker on a date, from any
	// source, or nil when no observation with a close exists.
	FindClose(ctx context.Context, ticker, date string) (*float64, error)
}

type priceRepository struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) PriceRepository {
	return &priceRepository{db: db}
}

func (r *priceRepository) CreateIgnoreConflict(ctx context.Context, obs *entity.PriceObservation) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "date"}, {Name: "source"}},
		DoNothing: true,
	}).Create(obs).Error
}

func (r *priceRepository) FindClose(ctx context.Context, ticker, date string) (*float64, error) {
	var obs entity.PriceObservation
	err := r.db.WithContext(ctx).
		Where("ticker = ? AND date = ? AND close IS NOT NULL", ticker, date).
		Order("fetched_at DESC").
		First(&obs).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return obs.Close, nil
}
