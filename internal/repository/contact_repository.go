package repository

import (
	"fmt"

	"gorm.io/gorm"

	"savannatrails-concierge/internal/model"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(msg *model.ContactMessage) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("create contact message failed: %w", err)
	}
	return nil
}

func (r *ContactRepository) ListRecent(limit int) ([]model.ContactMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var msgs []model.ContactMessage
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list contact messages failed: %w", err)
	}
	return msgs, nil
}
