package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	apiContext "signpost/internal/api/context"
	"signpost/internal/engine/analytics"
	"signpost/internal/engine/roadmaps"
	apierrors "signpost/internal/pkg/errors"
	"signpost/internal/platform/database"
)

type AnalyticsHandler struct{}

func NewAnalyticsHandler() *AnalyticsHandler {
	return &AnalyticsHandler{}
}

// GetRoadmapStats returns daily aggregates for a roadmap, defaulting to the
// last 30 days.
func (h *AnalyticsHandler) GetRoadmapStats(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	roadmapID := apiContext.RouteParam(r.Context(), "roadmap_id")

	rm, err := roadmaps.NewRepository(tenantCtx.DB).GetRoadmap(roadmapID)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if rm == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Roadmap not found", nil)
		return
	}

	startDate := r.URL.Query().Get("start_date") // YYYY-MM-DD
	endDate := r.URL.Query().Get("end_date")

	if startDate == "" || endDate == "" {
		now := time.Now()
		endDate = now.Format("2006-01-02")
		startDate = now.AddDate(0, 0, -30).Format("2006-01-02")
	}

	service := analytics.NewService(analytics.NewRepository(tenantCtx.DB))
	stats, err := service.GetStatsOverview(roadmapID, startDate, endDate)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetRoadmapEvents returns the raw event feed for a roadmap within a
// timestamp window, paginated.
func (h *AnalyticsHandler) GetRoadmapEvents(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	roadmapID := apiContext.RouteParam(r.Context(), "roadmap_id")

	now := time.Now().UnixMilli()
	start := now - 24*60*60*1000
	end := now

	if v, err := strconv.ParseInt(r.URL.Query().Get("start_ts"), 10, 64); err == nil {
		start = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("end_ts"), 10, 64); err == nil {
		end = v
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	offset := (page - 1) * limit

	service := analytics.NewService(analytics.NewRepository(tenantCtx.DB))
	events, err := service.GetEventHistory(roadmapID, start, end, limit, offset)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(events)
}
