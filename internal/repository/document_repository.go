package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"savannatrails-concierge/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Update(doc *model.Document) error {
	if err := r.db.Save(doc).Error; err != nil {
		return fmt.Errorf("update document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// List returns documents, optionally filtered by source category.
func (r *DocumentRepository) List(source string, limit int) ([]model.Document, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	q := r.db.Order("updated_at DESC").Limit(limit)
	if source != "" {
		q = q.Where("source = ?", source)
	}
	var docs []model.Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// ListCandidates returns the bounded candidate set the ranker scores per chat
// request, most recently updated first.
func (r *DocumentRepository) ListCandidates(limit int) ([]model.Document, error) {
	if limit <= 0 {
		limit = 40
	}
	var docs []model.Document
	if err := r.db.Order("updated_at DESC").Limit(limit).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list candidate documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) DeleteByID(id uint) error {
	if err := r.db.Delete(&model.Document{}, id).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
