package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/wayfinder-labs/service-wayfinding/internal/application"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/auth"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/middleware"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/response"
)

// DestinationService is implemented by *application.DestinationService.
type DestinationService interface {
	Latest(ctx context.Context) (*application.DestinationDTO, error)
}

// DestinationHandler exposes the destination store.
type DestinationHandler struct {
	service DestinationService
}

// NewDestinationHandler creates a new DestinationHandler.
func NewDestinationHandler(service DestinationService) *DestinationHandler {
	return &DestinationHandler{service: service}
}

// RegisterRoutes registers destination routes on the given router group.
func (h *DestinationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	destinations := r.Group("/api/v1/destinations")
	destinations.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAssistant, auth.RoleAdmin))
	{
		destinations.GET("/latest", h.LatestDestination)
	}
}

// LatestDestination handles GET /api/v1/destinations/latest.
func (h *DestinationHandler) LatestDestination(c *gin.Context) {
	result, err := h.service.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
