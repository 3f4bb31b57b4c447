package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"savannatrails-concierge/internal/app"
	"savannatrails-concierge/internal/model"
	"savannatrails-concierge/internal/prompt"
)

// ChatHandler serves the public concierge widget. Unlike the portal routes it
// speaks the widget's own wire format, not the envelope in response/.
type ChatHandler struct {
	concierge *app.ConciergeService
	support   prompt.Support
}

func NewChatHandler(concierge *app.ConciergeService, support prompt.Support) *ChatHandler {
	return &ChatHandler{concierge: concierge, support: support}
}

type chatRequest struct {
	Messages  []incomingMessage `json:"messages"`
	SessionID string            `json:"sessionId"`
}

type incomingMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatResponse struct {
	Reply     string            `json:"reply"`
	Context   []app.ContextItem `json:"context"`
	Support   supportInfo       `json:"support"`
	SessionID string            `json:"sessionId"`
}

type supportInfo struct {
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No messages provided"})
		return
	}

	turns := make([]model.Turn, len(req.Messages))
	for i, m := range req.Messages {
		turns[i] = model.Turn{Role: m.Role, Content: coerceContent(m.Content)}
	}

	sessionID := req.SessionID
	if _, err := uuid.Parse(sessionID); err != nil {
		sessionID = uuid.NewString()
	}

	result, err := h.concierge.Chat(c.Request.Context(), app.ChatInput{
		SessionID: sessionID,
		Turns:     turns,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoMessages):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No messages provided"})
		case errors.Is(err, app.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Empty message content"})
		default:
			log.Printf("chat request failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if result.Context == nil {
		result.Context = []app.ContextItem{}
	}
	c.JSON(http.StatusOK, chatResponse{
		Reply:     result.Reply,
		Context:   result.Context,
		Support:   supportInfo{Email: h.support.Email, WhatsApp: h.support.WhatsApp},
		SessionID: result.SessionID,
	})
}

// coerceContent renders whatever JSON value arrived in content as a string.
func coerceContent(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
