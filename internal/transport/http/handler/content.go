package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"savannatrails-concierge/internal/app"
	"savannatrails-concierge/internal/model"
	"savannatrails-concierge/internal/repository"
	"savannatrails-concierge/internal/transport/http/response"
)

type ContentHandler struct {
	contentService *app.ContentService
	auditRepo      *repository.AuditRepository
}

func NewContentHandler(contentService *app.ContentService, auditRepo *repository.AuditRepository) *ContentHandler {
	return &ContentHandler{contentService: contentService, auditRepo: auditRepo}
}

type documentRequest struct {
	Title    string         `json:"title" binding:"max=256"`
	Content  string         `json:"content"`
	Source   string         `json:"source" binding:"max=32"`
	Type     string         `json:"type" binding:"max=32"`
	Metadata map[string]any `json:"metadata"`
}

// documentView is the portal-facing shape of a document. The model keeps its
// metadata JSON-encoded and untagged, so the view decodes it back into the
// bag the admin submitted.
type documentView struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Source    string         `json:"source"`
	Type      string         `json:"type"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func newDocumentView(doc *model.Document) documentView {
	return documentView{
		ID:        doc.ID,
		Title:     doc.Title,
		Content:   doc.Content,
		Source:    doc.Source,
		Type:      doc.Type,
		Metadata:  doc.MetadataMap(),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func newDocumentViews(docs []model.Document) []documentView {
	views := make([]documentView, len(docs))
	for i := range docs {
		views[i] = newDocumentView(&docs[i])
	}
	return views
}

func (h *ContentHandler) CreateDocument(c *gin.Context) {
	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.contentService.CreateDocument(c.Request.Context(), portalActor(c), app.DocumentInput{
		Title:    req.Title,
		Content:  req.Content,
		Source:   req.Source,
		Type:     req.Type,
		Metadata: req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create document failed")
		}
		return
	}
	response.OK(c, newDocumentView(doc))
}

func (h *ContentHandler) ListDocuments(c *gin.Context) {
	docs, err := h.contentService.ListDocuments(strings.TrimSpace(c.Query("source")), listLimit(c, 100))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, newDocumentViews(docs))
}

func (h *ContentHandler) UpdateDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	doc, err := h.contentService.UpdateDocument(c.Request.Context(), portalActor(c), id, app.DocumentInput{
		Title:    req.Title,
		Content:  req.Content,
		Source:   req.Source,
		Type:     req.Type,
		Metadata: req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update document failed")
		}
		return
	}
	response.OK(c, newDocumentView(doc))
}

func (h *ContentHandler) DeleteDocument(c *gin.Context) {
	id, ok := documentID(c)
	if !ok {
		return
	}

	if err := h.contentService.DeleteDocument(c.Request.Context(), portalActor(c), id); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_document_id": id})
}

func (h *ContentHandler) ListAudit(c *gin.Context) {
	entries, err := h.auditRepo.ListRecent(listLimit(c, 100))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list audit entries failed")
		return
	}
	response.OK(c, entries)
}

func documentID(c *gin.Context) (uint, bool) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid document id")
		return 0, false
	}
	return uint(id64), true
}

func portalActor(c *gin.Context) string {
	if actor := strings.TrimSpace(c.GetHeader("X-Portal-User")); actor != "" {
		return actor
	}
	return "portal"
}

func listLimit(c *gin.Context, fallback int) int {
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
