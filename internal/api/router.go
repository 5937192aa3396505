package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "signpost/internal/api/context"
	"signpost/internal/api/handlers"
	"signpost/internal/api/middleware"
	"signpost/internal/engine/permissions"
)

type Dependencies struct {
	AuthHandler      *handlers.AuthHandler
	WorkspaceHandler *handlers.WorkspaceHandler
	UserHandler      *handlers.UserHandler
	APIKeyHandler    *handlers.APIKeyHandler
	RoadmapHandler   *handlers.RoadmapHandler
	ItemHandler      *handlers.ItemHandler
	GroupHandler     *handlers.GroupHandler
	WebhookHandler   *handlers.WebhookHandler
	IngestHandler    *handlers.IngestHandler
	PublicHandler    *handlers.PublicHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	AuditHandler     *handlers.AuditHandler
	HealthHandler    *handlers.HealthHandler
	MetricsHandler   *handlers.MetricsHandler
	AuthMiddleware   *middleware.AuthMiddleware
	TenantMiddleware *middleware.TenantMiddleware
	APIKeyMiddleware *middleware.APIKeyMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	// Operational endpoints
	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// Authentication routes
	router.POST("/api/v1/auth/signup", wrap(deps.AuthHandler.Signup))
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))
	router.POST("/api/v1/auth/refresh", wrap(deps.AuthHandler.Refresh))
	router.POST("/api/v1/auth/logout", wrap(deps.AuthHandler.Logout))

	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware

	// Workspace management
	router.GET("/api/v1/workspaces/current",
		chain(deps.WorkspaceHandler.GetCurrent, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/workspaces/current",
		chain(deps.WorkspaceHandler.Update, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.AdminSettings)))

	// Member management
	router.GET("/api/v1/users",
		chain(deps.UserHandler.List, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.AdminUsers)))
	router.GET("/api/v1/users/:user_id",
		chain(deps.UserHandler.Get, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/users",
		chain(deps.UserHandler.Add, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.AdminUsers)))
	router.PATCH("/api/v1/users/:user_id/role",
		chain(deps.UserHandler.UpdateRole, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.AdminUsers)))
	router.DELETE("/api/v1/users/:user_id",
		chain(deps.UserHandler.Delete, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.AdminUsers)))

	// API keys for the ingest pipeline
	router.POST("/api/v1/api-keys",
		chain(deps.APIKeyHandler.Create, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))
	router.GET("/api/v1/api-keys",
		chain(deps.APIKeyHandler.List, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))
	router.DELETE("/api/v1/api-keys/:key_id",
		chain(deps.APIKeyHandler.Revoke, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))

	// Roadmap management
	router.POST("/api/v1/roadmaps",
		chain(deps.RoadmapHandler.Create, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.RoadmapCreate), middleware.RateLimit("api_write")))
	router.GET("/api/v1/roadmaps",
		chain(deps.RoadmapHandler.List, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.RoadmapRead)))
	router.GET("/api/v1/roadmaps/:roadmap_id",
		chain(deps.RoadmapHandler.Get, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.RoadmapRead)))
	router.PATCH("/api/v1/roadmaps/:roadmap_id",
		chain(deps.RoadmapHandler.Update, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.RoadmapUpdate), middleware.RateLimit("api_write")))
	router.DELETE("/api/v1/roadmaps/:roadmap_id",
		chain(deps.RoadmapHandler.Delete, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.RoadmapDelete), middleware.RateLimit("api_write")))
	router.GET("/api/v1/roadmaps/:roadmap_id/qr",
		chain(deps.RoadmapHandler.GetQRCode, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.RoadmapRead)))

	// Items, nested under their roadmap for create/list
	router.POST("/api/v1/roadmaps/:roadmap_id/items",
		chain(deps.ItemHandler.Create, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.ItemCreate), middleware.RateLimit("api_write")))
	router.GET("/api/v1/roadmaps/:roadmap_id/items",
		chain(deps.ItemHandler.List, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.ItemRead)))
	router.GET("/api/v1/items/:item_id",
		chain(deps.ItemHandler.Get, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.ItemRead)))
	router.PATCH("/api/v1/items/:item_id",
		chain(deps.ItemHandler.Update, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.ItemUpdate), middleware.RateLimit("api_write")))
	router.PATCH("/api/v1/items/:item_id/status",
		chain(deps.ItemHandler.ChangeStatus, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.ItemUpdate), middleware.RateLimit("api_write")))
	router.DELETE("/api/v1/items/:item_id",
		chain(deps.ItemHandler.Delete, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.ItemDelete), middleware.RateLimit("api_write")))
	router.GET("/api/v1/items/:item_id/subscribers",
		chain(deps.ItemHandler.ListSubscribers, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.ItemRead)))

	// Groups
	router.POST("/api/v1/roadmaps/:roadmap_id/groups",
		chain(deps.GroupHandler.Create, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.GroupCreate), middleware.RateLimit("api_write")))
	router.GET("/api/v1/roadmaps/:roadmap_id/groups",
		chain(deps.GroupHandler.List, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.GroupRead)))
	router.PATCH("/api/v1/groups/:group_id",
		chain(deps.GroupHandler.Update, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.GroupUpdate), middleware.RateLimit("api_write")))
	router.DELETE("/api/v1/groups/:group_id",
		chain(deps.GroupHandler.Delete, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.GroupDelete), middleware.RateLimit("api_write")))

	// Webhooks (admin area)
	router.POST("/api/v1/webhooks",
		chain(deps.WebhookHandler.Create, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))
	router.GET("/api/v1/webhooks",
		chain(deps.WebhookHandler.List, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))
	router.GET("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Get, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))
	router.PATCH("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Update, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))
	router.DELETE("/api/v1/webhooks/:webhook_id",
		chain(deps.WebhookHandler.Delete, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))
	router.POST("/api/v1/webhooks/:webhook_id/secret",
		chain(deps.WebhookHandler.RegenerateSecret, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))
	router.GET("/api/v1/webhooks/:webhook_id/deliveries",
		chain(deps.WebhookHandler.ListDeliveries, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))

	// Analytics
	router.GET("/api/v1/roadmaps/:roadmap_id/analytics",
		chain(deps.AnalyticsHandler.GetRoadmapStats, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.RoadmapRead)))
	router.GET("/api/v1/roadmaps/:roadmap_id/events",
		chain(deps.AnalyticsHandler.GetRoadmapEvents, authMid.Handle, tenantMid.Handle,
			middleware.RequirePermission(permissions.RoadmapRead)))

	// Audit log (admin area)
	router.GET("/api/v1/audit-logs",
		chain(deps.AuditHandler.List, authMid.Handle, tenantMid.Handle, middleware.RequireAdmin))

	// FluxPoster ingest, authenticated by API key rather than a user session
	apiKeyMid := deps.APIKeyMiddleware
	router.POST("/api/v1/ingest/posts",
		chain(deps.IngestHandler.Publish,
			apiKeyMid.RequireScope(handlers.ScopeIngestWrite), middleware.RateLimit("ingest")))
	router.PUT("/api/v1/ingest/posts/:external_id",
		chain(deps.IngestHandler.Update,
			apiKeyMid.RequireScope(handlers.ScopeIngestWrite), middleware.RateLimit("ingest")))
	router.DELETE("/api/v1/ingest/posts/:external_id",
		chain(deps.IngestHandler.Delete,
			apiKeyMid.RequireScope(handlers.ScopeIngestWrite), middleware.RateLimit("ingest")))

	// Public roadmap pages. /r/... is the short form the QR codes encode.
	router.GET("/r/:workspace/:slug",
		chain(deps.PublicHandler.GetRoadmap, tenantMid.ResolveBySlug, middleware.RateLimit("public")))
	router.GET("/api/v1/public/:workspace/roadmaps/:slug",
		chain(deps.PublicHandler.GetRoadmap, tenantMid.ResolveBySlug, middleware.RateLimit("public")))
	router.GET("/api/v1/public/:workspace/items/:id",
		chain(deps.PublicHandler.GetItem, tenantMid.ResolveBySlug, middleware.RateLimit("public")))
	router.POST("/api/v1/public/:workspace/items/:id/vote",
		chain(deps.PublicHandler.Vote, tenantMid.ResolveBySlug, middleware.RateLimit("public")))
	router.POST("/api/v1/public/:workspace/items/:id/subscribe",
		chain(deps.PublicHandler.Subscribe, tenantMid.ResolveBySlug, middleware.RateLimit("public")))

	return router
}

// chain wires middlewares right to left around the handler.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// wrap converts an http.HandlerFunc to an httprouter.Handle, injecting the
// route params into the request context.
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
