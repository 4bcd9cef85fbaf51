package repository

import (
	"context"

	"signal-engine/internal/entity"

	"gorm.io/gorm"
)

type PriceTargetRepository interface {
	CreateBatch(ctx context.Context, records []entity.PriceTargetRecord) error
	FindRecent(ctx context.Context, ticker string, limit int) ([]entity.PriceTargetRecord, error)
}

type priceTargetRepository struct {
	db *gorm.DB
}

func NewPriceTargetRepository(db *gorm.DB) PriceTargetRepository {
	return &priceTargetRepository{db: db}
}

func (r *priceTargetRepository) CreateBatch(ctx context.Context, records []entity.PriceTargetRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *priceTargetRepository) FindRecent(ctx context.Context, ticker string, limit int) ([]entity.PriceTargetRecord, error) {
	var records []entity.PriceTargetRecord
	q := r.db.WithContext(ctx).Order("date DESC, id DESC").Limit(limit)
	if ticker != "" {
		q = q.Where("ticker = ?", ticker)
	}
	err := q.Find(&records).Error
	return records, err
}
