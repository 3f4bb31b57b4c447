package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appsvc "savannatrails-concierge/internal/app"
	"savannatrails-concierge/internal/bootstrap"
	"savannatrails-concierge/internal/cache"
	"savannatrails-concierge/internal/prompt"
	"savannatrails-concierge/internal/repository"
	"savannatrails-concierge/internal/transport/http/handler"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}))

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	docRepo := repository.NewDocumentRepository(app.MySQL)
	convRepo := repository.NewConversationRepository(app.MySQL)
	subscriberRepo := repository.NewSubscriberRepository(app.MySQL)
	contactRepo := repository.NewContactRepository(app.MySQL)
	auditRepo := repository.NewAuditRepository(app.MySQL)

	support := prompt.Support{
		Email:    app.Config.Support.Email,
		WhatsApp: app.Config.Support.WhatsApp,
	}
	docSource := cache.NewCachedDocumentSource(docRepo, app.KnowledgeCache)

	conciergeService := appsvc.NewConciergeService(
		docSource,
		convRepo,
		app.Embedder,
		app.LLMClient,
		app.LLM(),
		support,
		app.Config.Retrieval.MaxCandidates,
		app.Config.Retrieval.TopK,
		float32(app.Config.Retrieval.RelevanceFloor),
		app.Config.LLM.MaxContextTurns,
	)
	contentService := appsvc.NewContentService(docRepo, app.Embedder, app.AuditPublisher, app.KnowledgeCache)
	engageService := appsvc.NewEngageService(subscriberRepo, contactRepo)

	chatHandler := handler.NewChatHandler(conciergeService, support)
	contentHandler := handler.NewContentHandler(contentService, auditRepo)
	engageHandler := handler.NewEngageHandler(engageService)
	conversationHandler := handler.NewConversationHandler(convRepo)

	v1 := router.Group("/api/v1")
	v1.POST("/chat", chatHandler.Chat)
	v1.POST("/newsletter", engageHandler.Subscribe)
	v1.POST("/contact", engageHandler.SubmitContact)

	portal := v1.Group("/portal")
	portal.POST("/documents", contentHandler.CreateDocument)
	portal.GET("/documents", contentHandler.ListDocuments)
	portal.PUT("/documents/:id", contentHandler.UpdateDocument)
	portal.DELETE("/documents/:id", contentHandler.DeleteDocument)
	portal.GET("/audit", contentHandler.ListAudit)
	portal.GET("/conversations/:sessionId", conversationHandler.GetConversation)
	portal.GET("/contact-messages", engageHandler.ListContactMessages)
	portal.GET("/subscribers", engageHandler.ListSubscribers)

	return router
}
