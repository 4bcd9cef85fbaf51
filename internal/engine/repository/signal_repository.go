package repository

import (
	"context"

	"signal-engine/internal/entity"

	"gorm.io/gorm"
)

// SignalRepository is the append-only store of signal records. There are
// deliberately no update or single-row delete operations; corrections
// arrive as new records.
type SignalRepository interface {
	CreateBatch(ctx context.Context, records []entity.SignalRecord) error
	// FindAllOrdered returns the full history in reconstruction order:
	// date ascending, then insertion id ascending.
	FindAllOrdered(ctx context.Context) ([]entity.SignalRecord, error)
	FindByID(ctx context.Context, id int64) (*entity.SignalRecord, error)
	FindRecent(ctx context.Context, ticker string, limit int) ([]entity.SignalRecord, error)
}

type signalRepository struct {
	db *gorm.DB
}

func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

func (r *signalRepository) CreateBatch(ctx context.Context, records []entity.SignalRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *signalRepository) FindAllOrdered(ctx context.Context) ([]entity.SignalRecord, error) {
	var records []entity.SignalRecord
	err := r.db.WithContext(ctx).Order("date ASC, id ASC").Find(&records).Error
	return records, err
}

func (r *signalRepository) FindByID(ctx context.Context, id int64) (*entity.SignalRecord, error) {
	var record entity.SignalRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *signalRepository) FindRecent(ctx context.Context, ticker string, limit int) ([]entity.SignalRecord, error) {
	var records []entity.SignalRecord
	q := r.db.WithContext(ctx).Order("date DESC, id DESC").Limit(limit)
	if ticker != "" {
		q = q.Where("ticker = ?", ticker)
	}
	err := q.Find(&records).Error
	return records, err
}
