package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"savannatrails-concierge/internal/model"
	"savannatrails-concierge/internal/repository"
)

var ErrDocumentNotFound = errors.New("document not found")

// AuditSink receives audit entries for asynchronous persistence.
type AuditSink interface {
	Publish(ctx context.Context, entry model.AuditEntry) error
}

// KnowledgeInvalidator drops the cached candidate set after portal writes.
type KnowledgeInvalidator interface {
	MarkDirty(ctx context.Context) error
	Invalidate(ctx context.Context) error
}

// ContentService backs the portal's knowledge CRUD screens. Every mutation
// re-embeds the document, invalidates the candidate cache, and records an
// audit entry.
type ContentService struct {
	docRepo  *repository.DocumentRepository
	embedder EmbeddingProvider
	audit    AuditSink
	cache    KnowledgeInvalidator
}

func NewContentService(
	docRepo *repository.DocumentRepository,
	embedder EmbeddingProvider,
	audit AuditSink,
	cache KnowledgeInvalidator,
) *ContentService {
	return &ContentService{
		docRepo:  docRepo,
		embedder: embedder,
		audit:    audit,
		cache:    cache,
	}
}

type DocumentInput struct {
	Title    string
	Content  string
	Source   string
	Type     string
	Metadata map[string]any
}

func (s *ContentService) CreateDocument(ctx context.Context, actor string, input DocumentInput) (*model.Document, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	source := strings.TrimSpace(input.Source)
	if title == "" || content == "" || source == "" {
		return nil, ErrInvalidInput
	}

	doc := &model.Document{
		Title:   title,
		Content: content,
		Source:  source,
		Type:    strings.TrimSpace(input.Type),
	}
	doc.SetMetadata(input.Metadata)
	s.embedDocument(ctx, doc)

	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, actor, "create", doc)
	return doc, nil
}

func (s *ContentService) UpdateDocument(ctx context.Context, actor string, id uint, input DocumentInput) (*model.Document, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		doc.Title = title
	}
	if content := strings.TrimSpace(input.Content); content != "" {
		doc.Content = content
	}
	if source := strings.TrimSpace(input.Source); source != "" {
		doc.Source = source
	}
	if t := strings.TrimSpace(input.Type); t != "" {
		doc.Type = t
	}
	if input.Metadata != nil {
		doc.SetMetadata(input.Metadata)
	}
	s.embedDocument(ctx, doc)

	if err := s.docRepo.Update(doc); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, actor, "update", doc)
	return doc, nil
}

func (s *ContentService) DeleteDocument(ctx context.Context, actor string, id uint) error {
	if id == 0 {
		return ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.docRepo.DeleteByID(id); err != nil {
		return err
	}

	s.afterMutation(ctx, actor, "delete", doc)
	return nil
}

func (s *ContentService) ListDocuments(source string, limit int) ([]model.Document, error) {
	return s.docRepo.List(source, limit)
}

// embedDocument refreshes the stored embedding. A failed embedding is logged
// and leaves the document rankable at zero similarity rather than blocking
// the write.
func (s *ContentService) embedDocument(ctx context.Context, doc *model.Document) {
	if s.embedder == nil {
		return
	}
	vec, err := s.embedder.Embed(ctx, doc.Title+"\n"+doc.Content)
	if err != nil {
		log.Printf("embed document %q failed: %v", doc.Title, err)
		return
	}
	doc.SetEmbedding(vec)
}

func (s *ContentService) afterMutation(ctx context.Context, actor, action string, doc *model.Document) {
	if s.cache != nil {
		_ = s.cache.MarkDirty(ctx)
		_ = s.cache.Invalidate(ctx)
	}
	if s.audit == nil {
		return
	}
	entry := model.AuditEntry{
		Actor:    actor,
		Action:   action,
		Entity:   "document",
		EntityID: doc.ID,
		Detail:   fmt.Sprintf("%s %q (source %s)", action, doc.Title, doc.Source),
	}
	if err := s.audit.Publish(ctx, entry); err != nil {
		log.Printf("publish audit entry failed: %v", err)
	}
}
