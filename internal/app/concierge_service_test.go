package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savannatrails-concierge/internal/ai"
	"savannatrails-concierge/internal/model"
	"savannatrails-concierge/internal/prompt"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, f.err
}

type fakeCompletion struct {
	reply    string
	err      error
	messages []ai.ChatMessage
	calls    int
}

func (f *fakeCompletion) Complete(_ context.Context, _ ai.ChatConfig, messages []ai.ChatMessage) (string, error) {
	f.calls++
	f.messages = messages
	return f.reply, f.err
}

type fakeDocs struct {
	docs []model.Document
	err  error
}

func (f *fakeDocs) Candidates(_ context.Context, _ int) ([]model.Document, error) {
	return f.docs, f.err
}

type fakeStore struct {
	upserts []model.Conversation
	err     error
}

func (f *fakeStore) Upsert(conv *model.Conversation) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, *conv)
	return nil
}

var testSupport = prompt.Support{Email: "hello@savannatrails.travel", WhatsApp: "+254 712 345 678"}

func safariDoc(title string, sim float32) model.Document {
	doc := model.Document{Title: title, Content: "Details about " + title, Source: "package"}
	doc.SetEmbedding([]float32{sim, 0})
	return doc
}

func newService(docs DocumentSource, store ConversationStore, emb EmbeddingProvider, llm CompletionBackend, apiKey string) *ConciergeService {
	return NewConciergeService(
		docs, store, emb, llm,
		ai.ChatConfig{BaseURL: "http://llm.test", APIKey: apiKey, Model: "test-model"},
		testSupport,
		40, 6, 0.15, 6,
	)
}

func userTurns(contents ...string) []model.Turn {
	turns := make([]model.Turn, len(contents))
	for i, c := range contents {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		turns[i] = model.Turn{Role: role, Content: c}
	}
	return turns
}

func TestChat_UnconfiguredBackendFallsBackAndMarksHandoff(t *testing.T) {
	store := &fakeStore{}
	llm := &fakeCompletion{reply: "should never be used"}
	svc := newService(
		&fakeDocs{docs: []model.Document{safariDoc("Maasai Mara Classic", 0.9)}},
		store,
		&fakeEmbedder{vec: []float32{1, 0}},
		llm,
		"", // no credential
	)

	result, err := svc.Chat(context.Background(), ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     userTurns("Do you offer Maasai Mara safaris?"),
	})
	require.NoError(t, err)

	fallback := prompt.FallbackMessage(testSupport)
	assert.Equal(t, fallback, result.Reply)
	assert.Zero(t, llm.calls)

	require.Len(t, store.upserts, 1)
	conv := store.upserts[0]
	assert.True(t, conv.NeedsHandoff)
	require.NotNil(t, conv.HandoffAt)

	turns := conv.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "assistant", turns[1].Role)
	assert.Equal(t, fallback, turns[1].Content)
}

func TestChat_ConfiguredBackendReturnsReplyVerbatim(t *testing.T) {
	store := &fakeStore{}
	svc := newService(
		&fakeDocs{docs: []model.Document{safariDoc("Maasai Mara Classic", 0.9)}},
		store,
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakeCompletion{reply: "Yes! Our 5-day Maasai Mara Classic starts at USD 2,450."},
		"sk-test",
	)

	result, err := svc.Chat(context.Background(), ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     userTurns("Do you offer Maasai Mara safaris?"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Yes! Our 5-day Maasai Mara Classic starts at USD 2,450.", result.Reply)

	require.Len(t, store.upserts, 1)
	conv := store.upserts[0]
	assert.False(t, conv.NeedsHandoff)
	assert.Nil(t, conv.HandoffAt)
}

func TestChat_CompletionErrorFallsBack(t *testing.T) {
	store := &fakeStore{}
	svc := newService(
		&fakeDocs{docs: []model.Document{safariDoc("Doc", 0.9)}},
		store,
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakeCompletion{err: errors.New("backend down")},
		"sk-test",
	)

	result, err := svc.Chat(context.Background(), ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     userTurns("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, prompt.FallbackMessage(testSupport), result.Reply)
	require.Len(t, store.upserts, 1)
	assert.True(t, store.upserts[0].NeedsHandoff)
}

func TestChat_BlankCompletionFallsBack(t *testing.T) {
	store := &fakeStore{}
	svc := newService(
		&fakeDocs{docs: []model.Document{safariDoc("Doc", 0.9)}},
		store,
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakeCompletion{reply: "   \n\t "},
		"sk-test",
	)

	result, err := svc.Chat(context.Background(), ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     userTurns("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, prompt.FallbackMessage(testSupport), result.Reply)
}

func TestChat_EmbeddingFailureYieldsEmptyContext(t *testing.T) {
	store := &fakeStore{}
	svc := newService(
		&fakeDocs{docs: []model.Document{safariDoc("Doc", 0.9)}},
		store,
		&fakeEmbedder{err: errors.New("model unavailable")},
		&fakeCompletion{reply: "Answering without context."},
		"sk-test",
	)

	result, err := svc.Chat(context.Background(), ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     userTurns("hello"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Context)
	assert.Equal(t, "Answering without context.", result.Reply)
}

func TestChat_CandidateFetchFailureYieldsEmptyContext(t *testing.T) {
	store := &fakeStore{}
	svc := newService(
		&fakeDocs{err: errors.New("mysql down")},
		store,
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakeCompletion{reply: "Still answering."},
		"sk-test",
	)

	result, err := svc.Chat(context.Background(), ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     userTurns("hello"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Context)
	assert.Equal(t, "Still answering.", result.Reply)
}

func TestChat_StorageFailurePropagates(t *testing.T) {
	svc := newService(
		&fakeDocs{docs: []model.Document{safariDoc("Doc", 0.9)}},
		&fakeStore{err: errors.New("insert failed")},
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakeCompletion{reply: "fine"},
		"sk-test",
	)

	_, err := svc.Chat(context.Background(), ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     userTurns("hello"),
	})
	require.Error(t, err)
}

func TestChat_ValidatesInputBeforeTouchingBackends(t *testing.T) {
	svc := newService(&fakeDocs{}, &fakeStore{}, &fakeEmbedder{}, &fakeCompletion{}, "")

	_, err := svc.Chat(context.Background(), ChatInput{SessionID: "s", Turns: nil})
	assert.ErrorIs(t, err, ErrNoMessages)

	_, err = svc.Chat(context.Background(), ChatInput{
		SessionID: "s",
		Turns:     []model.Turn{{Role: "user", Content: "   "}},
	})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestChat_CompletionWindowDropsLeadingAssistantTurn(t *testing.T) {
	llm := &fakeCompletion{reply: "ok"}
	svc := newService(
		&fakeDocs{},
		&fakeStore{},
		&fakeEmbedder{vec: []float32{1, 0}},
		llm,
		"sk-test",
	)

	// Seven turns starting with user; the 6-turn window therefore opens on an
	// assistant turn, which must be dropped.
	turns := userTurns("u1", "a1", "u2", "a2", "u3", "a3", "u4")
	_, err := svc.Chat(context.Background(), ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     turns,
	})
	require.NoError(t, err)

	require.NotEmpty(t, llm.messages)
	assert.Equal(t, "system", llm.messages[0].Role)
	require.Len(t, llm.messages, 6) // system + 5 turns after the trim
	assert.Equal(t, "user", llm.messages[1].Role)
	assert.Equal(t, "u2", llm.messages[1].Content)
	assert.Equal(t, "u4", llm.messages[len(llm.messages)-1].Content)
}

func TestChat_IdempotentUnderRetry(t *testing.T) {
	store := &fakeStore{}
	svc := newService(
		&fakeDocs{docs: []model.Document{safariDoc("Doc", 0.9)}},
		store,
		&fakeEmbedder{vec: []float32{1, 0}},
		&fakeCompletion{reply: "same answer"},
		"sk-test",
	)

	input := ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     userTurns("hello"),
	}
	first, err := svc.Chat(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Chat(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.Reply, second.Reply)
	require.Len(t, store.upserts, 2)
	assert.Equal(t, store.upserts[0].SessionID, store.upserts[1].SessionID)
	assert.Equal(t, store.upserts[0].Messages, store.upserts[1].Messages)
	assert.Equal(t, store.upserts[0].NeedsHandoff, store.upserts[1].NeedsHandoff)
}

func TestChat_ContextItemsCarryDocumentFields(t *testing.T) {
	doc := safariDoc("Maasai Mara Classic", 0.9)
	doc.Type = "safari"
	doc.SetMetadata(map[string]any{"price": "USD 2,450"})

	svc := newService(
		&fakeDocs{docs: []model.Document{doc}},
		&fakeStore{},
		&fakeEmbedder{vec: []float32{1, 0}},
		nil,
		"",
	)

	result, err := svc.Chat(context.Background(), ChatInput{
		SessionID: "11111111-1111-1111-1111-111111111111",
		Turns:     userTurns("safari?"),
	})
	require.NoError(t, err)
	require.Len(t, result.Context, 1)
	item := result.Context[0]
	assert.Equal(t, "Maasai Mara Classic", item.Title)
	assert.Equal(t, "package", item.Source)
	assert.Equal(t, "safari", item.Type)
	assert.Equal(t, "USD 2,450", item.Metadata["price"])
	assert.Greater(t, item.Similarity, float32(0.15))
}
