package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"savannatrails-concierge/internal/app"
	"savannatrails-concierge/internal/transport/http/response"
)

type EngageHandler struct {
	engageService *app.EngageService
}

func NewEngageHandler(engageService *app.EngageService) *EngageHandler {
	return &EngageHandler{engageService: engageService}
}

type subscribeRequest struct {
	Email string `json:"email" binding:"required,max=128"`
}

func (h *EngageHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.engageService.Subscribe(req.Email); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "subscribe failed")
		}
		return
	}
	response.OK(c, gin.H{"subscribed": true})
}

type contactRequest struct {
	Name    string `json:"name" binding:"required,max=128"`
	Email   string `json:"email" binding:"required,max=128"`
	Subject string `json:"subject" binding:"max=256"`
	Body    string `json:"body" binding:"required"`
}

func (h *EngageHandler) SubmitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	msg, err := h.engageService.SubmitContact(app.ContactInput{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "submit contact failed")
		}
		return
	}
	response.OK(c, msg)
}

func (h *EngageHandler) ListContactMessages(c *gin.Context) {
	msgs, err := h.engageService.ListContactMessages(listLimit(c, 50))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list contact messages failed")
		return
	}
	response.OK(c, msgs)
}

func (h *EngageHandler) ListSubscribers(c *gin.Context) {
	subs, err := h.engageService.ListSubscribers(listLimit(c, 100))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list subscribers failed")
		return
	}
	response.OK(c, subs)
}
