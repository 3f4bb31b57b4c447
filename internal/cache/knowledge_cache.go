package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"savannatrails-concierge/internal/model"
)

const (
	candidateKey = "concierge:knowledge:candidates"
	dirtyKey     = "concierge:knowledge:dirty"
)

// KnowledgeCache keeps the bounded candidate document set in redis so chat
// requests do not hit MySQL on every message. Portal writes mark it dirty for
// a short window and drop the cached set.
type KnowledgeCache struct {
	client         *redisv9.Client
	candidateTTL   time.Duration
	dirtyMarkerTTL time.Duration
}

func NewKnowledgeCache(client *redisv9.Client, candidateTTL, dirtyMarkerTTL time.Duration) *KnowledgeCache {
	if candidateTTL <= 0 {
		candidateTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &KnowledgeCache{
		client:         client,
		candidateTTL:   candidateTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

// cachedDocument is the redis wire form of a candidate row. The model's json
// tags hide Metadata and Embedding from API responses, and the ranker needs
// both back intact, so the cache marshals this struct instead of the model.
type cachedDocument struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	Type      string    `json:"type"`
	Metadata  string    `json:"metadata"`
	Embedding string    `json:"embedding"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func encodeCandidates(docs []model.Document) ([]byte, error) {
	wire := make([]cachedDocument, len(docs))
	for i, d := range docs {
		wire[i] = cachedDocument{
			ID:        d.ID,
			Title:     d.Title,
			Content:   d.Content,
			Source:    d.Source,
			Type:      d.Type,
			Metadata:  d.Metadata,
			Embedding: d.Embedding,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		}
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal candidate cache failed: %w", err)
	}
	return payload, nil
}

func decodeCandidates(raw []byte) ([]model.Document, error) {
	var wire []cachedDocument
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal cached candidates failed: %w", err)
	}
	docs := make([]model.Document, len(wire))
	for i, w := range wire {
		docs[i] = model.Document{
			ID:        w.ID,
			Title:     w.Title,
			Content:   w.Content,
			Source:    w.Source,
			Type:      w.Type,
			Metadata:  w.Metadata,
			Embedding: w.Embedding,
			CreatedAt: w.CreatedAt,
			UpdatedAt: w.UpdatedAt,
		}
	}
	return docs, nil
}

func (c *KnowledgeCache) GetCandidates(ctx context.Context) ([]model.Document, bool, error) {
	raw, err := c.client.Get(ctx, candidateKey).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get candidates failed: %w", err)
	}

	docs, err := decodeCandidates([]byte(raw))
	if err != nil {
		return nil, false, err
	}
	return docs, true, nil
}

func (c *KnowledgeCache) SetCandidates(ctx context.Context, docs []model.Document) error {
	payload, err := encodeCandidates(docs)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, candidateKey, payload, c.candidateTTL).Err(); err != nil {
		return fmt.Errorf("redis set candidates failed: %w", err)
	}
	return nil
}

func (c *KnowledgeCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, candidateKey).Err(); err != nil {
		return fmt.Errorf("redis delete candidates failed: %w", err)
	}
	return nil
}

func (c *KnowledgeCache) MarkDirty(ctx context.Context) error {
	if err := c.client.Set(ctx, dirtyKey, "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *KnowledgeCache) IsDirty(ctx context.Context) (bool, error) {
	exists, err := c.client.Exists(ctx, dirtyKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}
