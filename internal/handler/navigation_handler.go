package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/wayfinder-labs/service-wayfinding/internal/application"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/movement"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/navigation"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/auth"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/middleware"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/response"
)

// NavigationService is implemented by *application.NavigationService.
type NavigationService interface {
	Navigate(ctx context.Context, req application.NavigateRequest) (*application.RouteDTO, error)
	Normalize(req application.NormalizeRequest) []navigation.Step
	LatestMovement(ctx context.Context) (*movement.Record, error)
}

// NavigationHandler handles HTTP requests for routes and movements.
type NavigationHandler struct {
	service NavigationService
}

// NewNavigationHandler creates a new NavigationHandler.
func NewNavigationHandler(service NavigationService) *NavigationHandler {
	return &NavigationHandler{service: service}
}

// RegisterRoutes registers route and movement routes on the given router group.
func (h *NavigationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	routes := r.Group("/api/v1/routes")
	routes.Use(authMW)
	{
		routes.POST("", middleware.RequireRole(auth.RoleAssistant, auth.RoleAdmin), h.CreateRoute)
		routes.POST("/normalize", h.NormalizeRoute)
	}

	movements := r.Group("/api/v1/movements")
	movements.Use(authMW)
	{
		movements.GET("/latest", middleware.RequireRole(auth.RoleDevice, auth.RoleAdmin), h.LatestMovement)
	}
}

// CreateRoute handles POST /api/v1/routes.
func (h *NavigationHandler) CreateRoute(c *gin.Context) {
	var req application.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Navigate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// NormalizeRoute handles POST /api/v1/routes/normalize.
func (h *NavigationHandler) NormalizeRoute(c *gin.Context) {
	var req application.NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.OK(c, gin.H{"steps": h.service.Normalize(req)})
}

// LatestMovement handles GET /api/v1/movements/latest.
func (h *NavigationHandler) LatestMovement(c *gin.Context) {
	result, err := h.service.LatestMovement(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
