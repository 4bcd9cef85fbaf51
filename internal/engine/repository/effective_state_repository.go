package repository

import (
	"context"

	"signal-engine/internal/entity"

	"gorm.io/gorm"
)

// EffectiveStateRepository swaps the derived table wholesale. There is
// deliberately no per-ticker write: rebuilds are total.
type EffectiveStateRepository interface {
	// ReplaceAll atomically swaps the whole table for the given states.
	ReplaceAll(ctx context.Context, states []entity.EffectiveState) error
	FindAll(ctx context.Context) ([]entity.EffectiveState, error)
	FindByTicker(ctx context.Context, ticker string) (*entity.EffectiveState, error)
}

type effectiveStateRepository struct {
	db *gorm.DB
}

func NewEffectiveStateRepository(db *gorm.DB) EffectiveStateRepository {
	return &effectiveStateRepository{db: db}
}

func (r *effectiveStateRepository) ReplaceAll(ctx context.Context, states []entity.EffectiveState) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entity.EffectiveState{}).Error; err != nil {
			return err
		}
		if len(states) == 0 {
			return nil
		}
		return tx.Create(&states).Error
	})
}

func (r *effectiveStateRepository) FindAll(ctx context.Context) ([]entity.EffectiveState, error) {
	var states []entity.EffectiveState
	err := r.db.WithContext(ctx).Order("ticker ASC").Find(&states).Error
	return states, err
}

func (r *effectiveStateRepository) FindByTicker(ctx context.Context, ticker string) (*entity.EffectiveState, error) {
	var state entity.EffectiveState
	if err := r.db.WithContext(ctx).Where("ticker = ?", ticker).First(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}
