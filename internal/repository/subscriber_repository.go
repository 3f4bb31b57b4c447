package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"savannatrails-concierge/internal/model"
)

type SubscriberRepository struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Create inserts the subscriber; resubscribing with a known email is a no-op.
func (r *SubscriberRepository) Create(sub *model.Subscriber) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("create subscriber failed: %w", err)
	}
	return nil
}

func (r *SubscriberRepository) ListRecent(limit int) ([]model.Subscriber, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var subs []model.Subscriber
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list subscribers failed: %w", err)
	}
	return subs, nil
}
