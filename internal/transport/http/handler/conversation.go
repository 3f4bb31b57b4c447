package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"savannatrails-concierge/internal/model"
	"savannatrails-concierge/internal/repository"
	"savannatrails-concierge/internal/transport/http/response"
)

type ConversationHandler struct {
	convRepo *repository.ConversationRepository
}

func NewConversationHandler(convRepo *repository.ConversationRepository) *ConversationHandler {
	return &ConversationHandler{convRepo: convRepo}
}

type conversationView struct {
	SessionID    string       `json:"session_id"`
	Turns        []model.Turn `json:"turns"`
	NeedsHandoff bool         `json:"needs_handoff"`
	HandoffAt    *time.Time   `json:"handoff_at,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// GetConversation returns the stored transcript for a session so portal
// staff can review a chat before picking up a handoff.
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Param("sessionId"))
	if sessionID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "session id is required")
		return
	}

	conv, err := h.convRepo.GetBySessionID(sessionID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get conversation failed")
		return
	}
	if conv == nil {
		response.Error(c, http.StatusNotFound, response.CodeConversationNotFound, "conversation not found")
		return
	}

	response.OK(c, conversationView{
		SessionID:    conv.SessionID,
		Turns:        conv.Turns(),
		NeedsHandoff: conv.NeedsHandoff,
		HandoffAt:    conv.HandoffAt,
		UpdatedAt:    conv.UpdatedAt,
	})
}
