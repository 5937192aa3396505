package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"signpost/internal/engine/analytics"
	"signpost/internal/engine/roadmaps"
	"signpost/internal/engine/webhooks"
	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
	"signpost/internal/platform/repositories"
)

// Runner drives the background jobs across every workspace. Each job walks
// the workspace list from the global DB and opens the tenant DB through the
// shared pool.
type Runner struct {
	workspaceRepo *repositories.WorkspaceRepository
	dbPool        *database.TenantDBPool
	webhookCfg    config.WebhooksConfig
}

func NewRunner(workspaceRepo *repositories.WorkspaceRepository, dbPool *database.TenantDBPool, webhookCfg config.WebhooksConfig) *Runner {
	return &Runner{
		workspaceRepo: workspaceRepo,
		dbPool:        dbPool,
		webhookCfg:    webhookCfg,
	}
}

// RetryPendingDeliveries redelivers webhook payloads that failed but have
// attempts left, for every workspace.
func (r *Runner) RetryPendingDeliveries(ctx context.Context) {
	workspaces, err := r.workspaceRepo.List()
	if err != nil {
		log.Error().Err(err).Msg("Webhook retry worker: failed to list workspaces")
		return
	}

	total := 0
	for _, ws := range workspaces {
		db, err := r.dbPool.Get(ws.ID, ws.DBFilePath)
		if err != nil {
			log.Warn().Err(err).Str("workspace_id", ws.ID).Msg("Webhook retry worker: failed to open tenant DB")
			continue
		}

		svc := webhooks.NewService(webhooks.NewStore(db), nil, r.webhookCfg)
		total += svc.RedeliverPending(ctx, 100)
	}

	if total > 0 {
		log.Info().Int("redelivered", total).Msg("Webhook retry worker finished")
	}
}

// RollupDailyStats aggregates the analytics events of the given day into
// daily_stats rows for every roadmap in every workspace.
func (r *Runner) RollupDailyStats(date string) {
	workspaces, err := r.workspaceRepo.List()
	if err != nil {
		log.Error().Err(err).Msg("Stats worker: failed to list workspaces")
		return
	}

	for _, ws := range workspaces {
		db, err := r.dbPool.Get(ws.ID, ws.DBFilePath)
		if err != nil {
			log.Warn().Err(err).Str("workspace_id", ws.ID).Msg("Stats worker: failed to open tenant DB")
			continue
		}

		rms, err := roadmaps.NewRepository(db).ListRoadmaps()
		if err != nil {
			log.Warn().Err(err).Str("workspace_id", ws.ID).Msg("Stats worker: failed to list roadmaps")
			continue
		}

		svc := analytics.NewService(analytics.NewRepository(db))
		for _, rm := range rms {
			if err := svc.RollupDay(rm.ID, date); err != nil {
				log.Warn().Err(err).Str("roadmap_id", rm.ID).Str("date", date).Msg("Stats worker: rollup failed")
			}
		}
	}

	log.Info().Str("date", date).Int("workspaces", len(workspaces)).Msg("Daily stats rollup finished")
}

// Yesterday returns the previous UTC day in the format daily_stats keys on.
func Yesterday() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
}
