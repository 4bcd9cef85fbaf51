package repository

import (
	"context"

	"signal-engine/internal/entity"

	"gorm.io/gorm"
)

type CycleRecordRepository interface {
	CreateBatch(ctx context.Context, records []entity.CycleRecord) error
	FindRecent(ctx context.Context, ticker string, limit int) ([]entity.CycleRecord, error)
}

type cycleRecordRepository struct {
	db *gorm.DB
}

func NewCycleRecordRepository(db *gorm.DB) CycleRecordRepository {
	return &cycleRecordRepository{db: db}
}

func (r *cycleRecordRepository) CreateBatch(ctx context.Context, records []entity.CycleRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *cycleRecordRepository) FindRecent(ctx context.Context, ticker string, limit int) ([]entity.CycleRecord, error) {
	var records []entity.CycleRecord
	q := r.db.WithContext(ctx).Order("date DESC, id DESC").Limit(limit)
	if ticker != "" {
		q = q.Where("ticker = ?", ticker)
	}
	err := q.Find(&records).Error
	return records, err
}
