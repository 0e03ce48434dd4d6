package handler

import (
	"context"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/venue"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/auth"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/middleware"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/response"
)

// EntityLister lists the venue's named locations. venue.Engine satisfies it.
type EntityLister interface {
	Entities(ctx context.Context) ([]venue.Entity, error)
}

// CacheInvalidator drops cached venue data. *mapping.CachedEngine satisfies it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// AdminHandler handles operator requests for venue data.
type AdminHandler struct {
	entities EntityLister
	cache    CacheInvalidator
}

// NewAdminHandler creates a new AdminHandler. cache may be nil when caching is disabled.
func NewAdminHandler(entities EntityLister, cache CacheInvalidator) *AdminHandler {
	return &AdminHandler{entities: entities, cache: cache}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/entities", h.ListEntities)
		admin.POST("/cache/invalidate", h.InvalidateCache)
	}
}

// ListEntities handles GET /api/v1/admin/entities.
func (h *AdminHandler) ListEntities(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	entities, err := h.entities.Entities(c.Request.Context())
	if err != nil {
		response.Error(c, domain.NewUpstreamError("mapping", err))
		return
	}

	if kind := c.Query("kind"); kind != "" {
		filtered := entities[:0:0]
		for _, e := range entities {
			if string(e.Kind) == kind {
				filtered = append(filtered, e)
			}
		}
		entities = filtered
	}
	sort.SliceStable(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })

	total := len(entities)
	from := min((page-1)*limit, total)
	to := min(from+limit, total)

	response.Paginated(c, entities[from:to], int64(total), page, limit)
}

// InvalidateCache handles POST /api/v1/admin/cache/invalidate.
func (h *AdminHandler) InvalidateCache(c *gin.Context) {
	if h.cache == nil {
		response.OK(c, gin.H{"invalidated": false})
		return
	}
	if err := h.cache.Invalidate(c.Request.Context()); err != nil {
		response.Error(c, domain.NewInternalError("failed to invalidate entity cache", err))
		return
	}

	response.OK(c, gin.H{"invalidated": true})
}
