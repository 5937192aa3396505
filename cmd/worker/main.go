package main

import (
	"context"
	"log"
	"time"

	"signpost/internal/pkg/logger"
	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
	"signpost/internal/platform/repositories"
	"signpost/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatalf("Failed to connect to global DB: %v", err)
	}
	defer globalDB.Close()

	tenantDBPool := database.NewTenantDBPool(cfg.Database.Tenant)
	defer tenantDBPool.CloseAll()

	workspaceRepo := repositories.NewWorkspaceRepository(globalDB)
	runner := workers.NewRunner(workspaceRepo, tenantDBPool, cfg.Webhooks)

	log.Println("Starting Signpost background workers...")

	go runDailyStatsWorker(runner)
	go runWebhookRetryWorker(runner, cfg.Webhooks.RetryInterval)

	select {}
}

// runDailyStatsWorker rolls up yesterday's analytics at 01:00 UTC daily.
func runDailyStatsWorker(runner *workers.Runner) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 1, 0, 0, 0, time.UTC)
		duration := next.Sub(now)
		if duration < 0 {
			duration = time.Minute
		}

		log.Printf("Daily stats worker sleeping for %v", duration)
		time.Sleep(duration)

		runner.RollupDailyStats(workers.Yesterday())
	}
}

func runWebhookRetryWorker(runner *workers.Runner, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		runner.RetryPendingDeliveries(context.Background())
	}
}
