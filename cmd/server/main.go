package main

import (
	"fmt"
	"log"
	"net/http"

	"signpost/internal/api"
	"signpost/internal/api/handlers"
	"signpost/internal/api/middleware"
	"signpost/internal/pkg/logger"
	"signpost/internal/platform/audit"
	"signpost/internal/platform/auth"
	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
	"signpost/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	// Database connections
	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatalf("Failed to connect to global DB: %v", err)
	}
	defer globalDB.Close()

	if err := database.InitGlobalSchema(globalDB); err != nil {
		log.Fatalf("Failed to initialize global schema: %v", err)
	}

	globalDBWrapper := database.NewGlobalDBWrapper(globalDB)

	tenantDBPool := database.NewTenantDBPool(cfg.Database.Tenant)
	defer tenantDBPool.CloseAll()

	// Repositories
	workspaceRepo := repositories.NewWorkspaceRepository(globalDB)
	userRepo := repositories.NewUserRepository(globalDB)
	apiKeyRepo := repositories.NewAPIKeyRepository(globalDB)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	auditLog := audit.NewLogger(globalDB)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, workspaceRepo, tenantDBPool, cfg.Database.Tenant, tokenSvc)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceRepo, auditLog)
	userHandler := handlers.NewUserHandler(userRepo, auditLog)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyRepo, auditLog)
	roadmapHandler := handlers.NewRoadmapHandler(cfg.Webhooks, cfg.Domains, auditLog)
	itemHandler := handlers.NewItemHandler(cfg.Webhooks, auditLog)
	groupHandler := handlers.NewGroupHandler(auditLog)
	webhookHandler := handlers.NewWebhookHandler(cfg.Webhooks, auditLog)
	ingestHandler := handlers.NewIngestHandler(cfg.Webhooks, cfg.Domains, auditLog)
	publicHandler := handlers.NewPublicHandler(cfg.Webhooks)
	analyticsHandler := handlers.NewAnalyticsHandler()
	auditHandler := handlers.NewAuditHandler(auditLog)
	healthHandler := handlers.NewHealthHandler(globalDBWrapper)
	metricsHandler := handlers.NewMetricsHandler()

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	tenantMiddleware := middleware.NewTenantMiddleware(workspaceRepo, tenantDBPool)
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(apiKeyRepo, workspaceRepo, tenantDBPool)

	deps := &api.Dependencies{
		AuthHandler:      authHandler,
		WorkspaceHandler: workspaceHandler,
		UserHandler:      userHandler,
		APIKeyHandler:    apiKeyHandler,
		RoadmapHandler:   roadmapHandler,
		ItemHandler:      itemHandler,
		GroupHandler:     groupHandler,
		WebhookHandler:   webhookHandler,
		IngestHandler:    ingestHandler,
		PublicHandler:    publicHandler,
		AnalyticsHandler: analyticsHandler,
		AuditHandler:     auditHandler,
		HealthHandler:    healthHandler,
		MetricsHandler:   metricsHandler,
		AuthMiddleware:   authMiddleware,
		TenantMiddleware: tenantMiddleware,
		APIKeyMiddleware: apiKeyMiddleware,
	}
	router := api.NewRouter(deps)

	// Count every request for the /metrics snapshot.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metricsHandler.CountRequest()
		router.ServeHTTP(w, r)
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
