package repository

import (
	"context"

	"signal-engine/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BulletinRepository interface {
	// Create inserts the bulletin. Returns created=false without error
	// when a bulletin with the same message id already exists.
	Create(ctx context.Context, bulletin *entity.Bulletin) (created bool, err error)
	FindByID(ctx context.Context, id int64) (*entity.Bulletin, error)
	FindByMessageID(ctx context.Context, messageID string) (*entity.Bulletin, error)
	FindRecent(ctx context.Context, limit int) ([]entity.Bulletin, error)
	UpdateExtraction(ctx context.Context, id int64, signalCount int, extraction []byte) error
}

type bulletinRepository struct {
	db *gorm.DB
}

func NewBulletinRepository(db *gorm.DB) BulletinRepository {
	return &bulletinRepository{db: db}
}

func (r *bulletinRepository) Create(ctx context.Context, bulletin *entity.Bulletin) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoNothing: true,
	}).Create(bulletin)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *bulletinRepository) FindByID(ctx context.Context, id int64) (*entity.Bulletin, error) {
	var bulletin entity.Bulletin
	if err := r.db.WithContext(ctx).First(&bulletin, id).Error; err != nil {
		return nil, err
	}
	return &bulletin, nil
}

func (r *bulletinRepository) FindByMessageID(ctx context.Context, messageID string) (*entity.Bulletin, error) {
	var bulletin entity.Bulletin
	if err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&bulletin).Error; err != nil {
		return nil, err
	}
	return &bulletin, nil
}

func (r *bulletinRepository) FindRecent(ctx context.Context, limit int) ([]entity.Bulletin, error) {
	var bulletins []entity.Bulletin
	err := r.db.WithContext(ctx).
		Order("date_sent DESC, id DESC").
		Limit(limit).
		Find(&bulletins).Error
	return bulletins, err
}

func (r *bulletinRepository) UpdateExtraction(ctx context.Context, id int64, signalCount int, extraction []byte) error {
	return r.db.WithContext(ctx).Model(&entity.Bulletin{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"signal_count": signalCount,
			"extraction":   extraction,
		}).Error
}
