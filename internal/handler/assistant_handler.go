package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wayfinder-labs/service-wayfinding/internal/application"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/auth"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/middleware"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/response"
	"github.com/wayfinder-labs/service-wayfinding/internal/speech"
)

// AssistantService is implemented by *application.AssistantService.
type AssistantService interface {
	Launch(ctx context.Context, sessionID string) (string, error)
	HandleUtterance(ctx context.Context, sessionID, text string) (*application.TurnResult, error)
	Speak(ctx context.Context, text string) (*speech.Audio, error)
	SpeechEnabled() bool
}

// LaunchRequest starts a conversation. SessionID defaults to the caller's subject.
type LaunchRequest struct {
	SessionID string `json:"session_id"`
}

// AssistantHandler handles HTTP requests for the voice assistant.
type AssistantHandler struct {
	service AssistantService
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(service AssistantService) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// RegisterRoutes registers assistant routes on the given router group.
func (h *AssistantHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	assistant := r.Group("/api/v1/assistant")
	assistant.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAssistant, auth.RoleAdmin))
	{
		assistant.POST("/launch", h.Launch)
		assistant.POST("/utterances", h.Utterance)
		assistant.POST("/speech", h.Speech)
	}
}

// Launch handles POST /api/v1/assistant/launch.
func (h *AssistantHandler) Launch(c *gin.Context) {
	var req LaunchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
	}
	if req.SessionID == "" {
		subject, ok := middleware.GetSubject(c)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			return
		}
		req.SessionID = subject
	}

	greeting, err := h.service.Launch(c.Request.Context(), req.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"session_id": req.SessionID, "reply": greeting})
}

// Utterance handles POST /api/v1/assistant/utterances.
func (h *AssistantHandler) Utterance(c *gin.Context) {
	var req application.UtteranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.HandleUtterance(c.Request.Context(), req.SessionID, req.Text)
	if err != nil {
		if errors.Is(err, application.ErrTurnSuperseded) {
			response.Error(c, domain.NewConflictError(err.Error()))
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// Speech handles POST /api/v1/assistant/speech and returns raw audio.
func (h *AssistantHandler) Speech(c *gin.Context) {
	var req application.SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	audio, err := h.service.Speak(c.Request.Context(), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Data(http.StatusOK, audio.ContentType, audio.Data)
}
