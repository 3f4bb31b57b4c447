package cache

import (
	"context"

	"savannatrails-concierge/internal/model"
)

// CandidateLister is the storage side of the read-through source.
type CandidateLister interface {
	ListCandidates(limit int) ([]model.Document, error)
}

// CachedDocumentSource reads the candidate set through the redis cache,
// falling back to storage on miss or while the cache is marked dirty. A nil
// cache degrades to plain storage reads.
type CachedDocumentSource struct {
	repo  CandidateLister
	cache *KnowledgeCache
}

func NewCachedDocumentSource(repo CandidateLister, cache *KnowledgeCache) *CachedDocumentSource {
	return &CachedDocumentSource{repo: repo, cache: cache}
}

func (s *CachedDocumentSource) Candidates(ctx context.Context, limit int) ([]model.Document, error) {
	if s.cache != nil {
		dirty, err := s.cache.IsDirty(ctx)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.cache.GetCandidates(ctx); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	docs, err := s.repo.ListCandidates(limit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if dirty, dirtyErr := s.cache.IsDirty(ctx); dirtyErr == nil && !dirty {
			_ = s.cache.SetCandidates(ctx, docs)
		}
	}
	return docs, nil
}
