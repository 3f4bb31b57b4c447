package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savannatrails-concierge/internal/ai"
	"savannatrails-concierge/internal/app"
	"savannatrails-concierge/internal/model"
	"savannatrails-concierge/internal/prompt"
)

type fakeEmbedder struct{ vec []float32 }

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) { return f.vec, nil }

type fakeDocs struct{ docs []model.Document }

func (f *fakeDocs) Candidates(context.Context, int) ([]model.Document, error) { return f.docs, nil }

type fakeStore struct {
	sessions map[string]int
	err      error
}

func (f *fakeStore) Upsert(conv *model.Conversation) error {
	if f.err != nil {
		return f.err
	}
	if f.sessions == nil {
		f.sessions = map[string]int{}
	}
	f.sessions[conv.SessionID]++
	return nil
}

var testSupport = prompt.Support{Email: "hello@savannatrails.travel", WhatsApp: "+254 712 345 678"}

func knowledgeBase() []model.Document {
	titles := []string{
		"Maasai Mara Classic Safari",
		"Maasai Mara Fly-In Weekend",
		"Serengeti Crossing",
		"Amboseli Elephant Trail",
		"Zanzibar Beach Escape",
		"Mount Kenya Trek",
		"Nairobi City Layover",
		"Lake Nakuru Day Trip",
	}
	sims := []float32{0.92, 0.88, 0.6, 0.5, 0.4, 0.3, 0.2, 0.05}
	docs := make([]model.Document, len(titles))
	for i := range titles {
		docs[i] = model.Document{Title: titles[i], Content: "About " + titles[i], Source: "package"}
		docs[i].SetEmbedding([]float32{sims[i], 0})
	}
	return docs
}

func newTestRouter(store *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := app.NewConciergeService(
		&fakeDocs{docs: knowledgeBase()},
		store,
		&fakeEmbedder{vec: []float32{1, 0}},
		nil,
		ai.ChatConfig{}, // no completion backend configured
		testSupport,
		40, 6, 0.15, 6,
	)
	h := NewChatHandler(svc, testSupport)

	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}))
	router.POST("/api/v1/chat", h.Chat)
	return router
}

func postChat(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChat_EmptyMessagesReturns400(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	rec := postChat(t, router, `{"messages":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No messages provided"}`, rec.Body.String())

	rec = postChat(t, router, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No messages provided"}`, rec.Body.String())
}

func TestChat_BlankLastMessageReturns400(t *testing.T) {
	router := newTestRouter(&fakeStore{})
	rec := postChat(t, router, `{"messages":[{"role":"user","content":"   "}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Empty message content"}`, rec.Body.String())
}

func TestChat_MaasaiMaraScenarioWithoutBackend(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(store)

	rec := postChat(t, router, `{"messages":[{"role":"user","content":"Do you offer Maasai Mara safaris?"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reply   string `json:"reply"`
		Context []struct {
			Similarity float32 `json:"similarity"`
			Title      string  `json:"title"`
		} `json:"context"`
		Support struct {
			Email    string `json:"email"`
			WhatsApp string `json:"whatsapp"`
		} `json:"support"`
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, prompt.FallbackMessage(testSupport), resp.Reply)
	assert.Contains(t, resp.Reply, testSupport.Email)
	assert.Contains(t, resp.Reply, testSupport.WhatsApp)

	require.NotEmpty(t, resp.Context)
	assert.LessOrEqual(t, len(resp.Context), 6)
	for _, item := range resp.Context {
		assert.Greater(t, item.Similarity, float32(0.15))
	}

	assert.Equal(t, testSupport.Email, resp.Support.Email)
	assert.NotEmpty(t, resp.SessionID)
	_, err := uuid.Parse(resp.SessionID)
	assert.NoError(t, err)
}

func TestChat_SessionIDRoundTrip(t *testing.T) {
	store := &fakeStore{}
	router := newTestRouter(store)

	rec := postChat(t, router, `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var first struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	require.NotEmpty(t, first.SessionID)

	rec = postChat(t, router, `{"messages":[{"role":"user","content":"hi again"}],"sessionId":"`+first.SessionID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var second struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.Equal(t, first.SessionID, second.SessionID)
	// Both turns landed on the same conversation row.
	assert.Equal(t, 2, store.sessions[first.SessionID])
}

func TestChat_MalformedSessionIDReplaced(t *testing.T) {
	router := newTestRouter(&fakeStore{})

	rec := postChat(t, router, `{"messages":[{"role":"user","content":"hi"}],"sessionId":"not-a-uuid"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqual(t, "not-a-uuid", resp.SessionID)
	_, err := uuid.Parse(resp.SessionID)
	assert.NoError(t, err)
}

func TestChat_NonStringContentCoerced(t *testing.T) {
	router := newTestRouter(&fakeStore{})
	rec := postChat(t, router, `{"messages":[{"role":"user","content":42}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_StorageFailureReturns500(t *testing.T) {
	router := newTestRouter(&fakeStore{err: assert.AnError})
	rec := postChat(t, router, `{"messages":[{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}
