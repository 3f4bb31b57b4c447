package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"savannatrails-concierge/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Upsert inserts the conversation on first contact and overwrites transcript
// and handoff marker afterwards, keyed by session id. Last writer wins;
// retrying an identical request leaves the row unchanged.
func (r *ConversationRepository) Upsert(conv *model.Conversation) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"messages", "needs_handoff", "handoff_at", "updated_at"}),
	}).Create(conv).Error
	if err != nil {
		return fmt.Errorf("upsert conversation failed: %w", err)
	}
	return nil
}

func (r *ConversationRepository) GetBySessionID(sessionID string) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.Where("session_id = ?", sessionID).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation failed: %w", err)
	}
	return &conv, nil
}
