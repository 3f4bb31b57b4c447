package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"savannatrails-concierge/internal/ai"
	"savannatrails-concierge/internal/model"
	"savannatrails-concierge/internal/prompt"
	"savannatrails-concierge/internal/retrieval"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoMessages   = errors.New("no messages provided")
	ErrEmptyMessage = errors.New("empty message content")
)

// EmbeddingProvider converts free text into a fixed-length vector.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CompletionBackend is the optional hosted language model.
type CompletionBackend interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

// DocumentSource fetches the bounded candidate set scored per request.
type DocumentSource interface {
	Candidates(ctx context.Context, limit int) ([]model.Document, error)
}

// ConversationStore upserts the session transcript wholesale.
type ConversationStore interface {
	Upsert(conv *model.Conversation) error
}

// ConciergeService runs the chat pipeline: embed the question, rank the
// knowledge candidates, compose a grounded prompt, call the completion
// backend or fall back, and persist the conversation.
type ConciergeService struct {
	docs          DocumentSource
	conversations ConversationStore
	embedder      EmbeddingProvider
	llmClient     CompletionBackend
	llm           ai.ChatConfig
	ranker        *retrieval.Ranker
	support       prompt.Support
	maxCandidates int
	maxTurns      int
}

func NewConciergeService(
	docs DocumentSource,
	conversations ConversationStore,
	embedder EmbeddingProvider,
	llmClient CompletionBackend,
	llm ai.ChatConfig,
	support prompt.Support,
	maxCandidates, topK int,
	relevanceFloor float32,
	maxTurns int,
) *ConciergeService {
	if maxCandidates <= 0 {
		maxCandidates = retrieval.DefaultMaxCandidates
	}
	if maxTurns <= 0 {
		maxTurns = 6
	}
	return &ConciergeService{
		docs:          docs,
		conversations: conversations,
		embedder:      embedder,
		llmClient:     llmClient,
		llm:           llm,
		ranker:        retrieval.NewRanker(topK, relevanceFloor),
		support:       support,
		maxCandidates: maxCandidates,
		maxTurns:      maxTurns,
	}
}

type ChatInput struct {
	SessionID string
	Turns     []model.Turn
}

// ContextItem is one ranked document surfaced back to the widget.
type ContextItem struct {
	Similarity float32        `json:"similarity"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Source     string         `json:"source"`
	Type       string         `json:"type"`
	Metadata   map[string]any `json:"metadata"`
}

type ChatResult struct {
	Reply     string        `json:"reply"`
	Context   []ContextItem `json:"context"`
	SessionID string        `json:"sessionId"`
}

// Chat handles one turn. Embedding and candidate-fetch failures degrade to an
// empty context rather than failing the request; only the conversation upsert
// error propagates, since losing the turn record is worse than a canned reply.
func (s *ConciergeService) Chat(ctx context.Context, input ChatInput) (*ChatResult, error) {
	if len(input.Turns) == 0 {
		return nil, ErrNoMessages
	}
	last := input.Turns[len(input.Turns)-1]
	question := strings.TrimSpace(last.Content)
	if question == "" {
		return nil, ErrEmptyMessage
	}
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, ErrInvalidInput
	}

	relevant := s.retrieveContext(ctx, question)
	systemPrompt := prompt.Compose(relevant, s.support)
	fallback := prompt.FallbackMessage(s.support)

	reply := fallback
	if s.llmClient != nil && s.llm.Configured() {
		messages := buildCompletionMessages(systemPrompt, input.Turns, s.maxTurns)
		out, err := s.llmClient.Complete(ctx, s.llm, messages)
		switch {
		case err != nil:
			log.Printf("completion call failed, falling back: %v", err)
		case strings.TrimSpace(out) == "":
			log.Printf("completion returned empty output, falling back")
		default:
			reply = out
		}
	}

	conv := &model.Conversation{SessionID: input.SessionID}
	conv.SetTurns(append(append([]model.Turn{}, input.Turns...), model.Turn{Role: "assistant", Content: reply}))
	if reply == fallback {
		now := time.Now()
		conv.NeedsHandoff = true
		conv.HandoffAt = &now
	}
	if err := s.conversations.Upsert(conv); err != nil {
		return nil, fmt.Errorf("persist conversation: %w", err)
	}

	items := make([]ContextItem, len(relevant))
	for i, r := range relevant {
		items[i] = ContextItem{
			Similarity: r.Similarity,
			Title:      r.Document.Title,
			Content:    r.Document.Content,
			Source:     r.Document.Source,
			Type:       r.Document.Type,
			Metadata:   r.Document.MetadataMap(),
		}
	}

	return &ChatResult{
		Reply:     reply,
		Context:   items,
		SessionID: input.SessionID,
	}, nil
}

// retrieveContext embeds the question and ranks the stored candidates. Any
// failure along the way yields no context, never an error.
func (s *ConciergeService) retrieveContext(ctx context.Context, question string) []retrieval.ScoredDocument {
	candidates, err := s.docs.Candidates(ctx, s.maxCandidates)
	if err != nil {
		log.Printf("candidate fetch failed, answering without context: %v", err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	queryVec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		log.Printf("query embedding failed, answering without context: %v", err)
		return nil
	}

	return s.ranker.Rank(queryVec, candidates)
}

// buildCompletionMessages keeps the last maxTurns turns, dropping a leading
// assistant turn so the sequence never opens with the model's own voice. The
// current user message is the final turn and always survives.
func buildCompletionMessages(systemPrompt string, turns []model.Turn, maxTurns int) []ai.ChatMessage {
	recent := turns
	if len(recent) > maxTurns {
		recent = recent[len(recent)-maxTurns:]
	}
	if len(recent) > 0 && recent[0].Role == "assistant" {
		recent = recent[1:]
	}

	messages := make([]ai.ChatMessage, 0, len(recent)+1)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: systemPrompt})
	for _, t := range recent {
		role := t.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: t.Content})
	}
	return messages
}
