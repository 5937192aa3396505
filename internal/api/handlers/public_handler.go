package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"time"

	apiContext "signpost/internal/api/context"
	"signpost/internal/engine/analytics"
	"signpost/internal/engine/roadmaps"
	"signpost/internal/engine/webhooks"
	apierrors "signpost/internal/pkg/errors"
	"signpost/internal/platform/config"
	"signpost/internal/platform/database"
)

// PublicHandler serves the unauthenticated roadmap pages and the vote and
// subscribe endpoints behind them. Everything here is rate limited upstream
// and must never expose workspace internals.
type PublicHandler struct {
	webhookCfg config.WebhooksConfig
}

func NewPublicHandler(webhookCfg config.WebhooksConfig) *PublicHandler {
	return &PublicHandler{webhookCfg: webhookCfg}
}

func (h *PublicHandler) service(tenantCtx *database.TenantContext) *roadmaps.Service {
	return roadmaps.NewService(roadmaps.NewRepository(tenantCtx.DB))
}

func (h *PublicHandler) analytics(tenantCtx *database.TenantContext) *analytics.Service {
	return analytics.NewService(analytics.NewRepository(tenantCtx.DB))
}

func (h *PublicHandler) webhookService(tenantCtx *database.TenantContext) *webhooks.Service {
	return webhooks.NewService(webhooks.NewStore(tenantCtx.DB), nil, h.webhookCfg)
}

// visitorFingerprint derives a stable anonymous visitor token from the
// request. Good enough for vote dedup and unique-visitor counts without
// storing raw addresses.
func visitorFingerprint(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		host = fwd
	}
	sum := sha256.Sum256([]byte(host + "|" + r.UserAgent()))
	return hex.EncodeToString(sum[:])[:16]
}

func (h *PublicHandler) GetRoadmap(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	slug := apiContext.RouteParam(r.Context(), "slug")

	svc := h.service(tenantCtx)
	rm, err := svc.GetRoadmapBySlug(slug)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if rm == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Roadmap not found", nil)
		return
	}

	groups, err := svc.ListGroups(rm.ID)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	items, err := svc.ListItems(rm.ID)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}

	view := roadmaps.BuildPublicView(rm, groups, items,
		r.URL.Query().Get("zoom"), r.URL.Query().Get("view"))

	h.analytics(tenantCtx).Record(&analytics.Event{
		Timestamp: time.Now().UnixMilli(),
		EventType: analytics.EventRoadmapView,
		RoadmapID: rm.ID,
		Visitor:   visitorFingerprint(r),
		Referrer:  r.Referer(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *PublicHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	itemID := apiContext.RouteParam(r.Context(), "id")

	svc := h.service(tenantCtx)
	item, err := svc.GetItem(itemID)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if item == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Item not found", nil)
		return
	}

	h.analytics(tenantCtx).Record(&analytics.Event{
		Timestamp: time.Now().UnixMilli(),
		EventType: analytics.EventItemView,
		RoadmapID: item.RoadmapID,
		ItemID:    item.ID,
		Visitor:   visitorFingerprint(r),
		Referrer:  r.Referer(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}

func (h *PublicHandler) Vote(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	itemID := apiContext.RouteParam(r.Context(), "id")
	voter := visitorFingerprint(r)

	item, counted, err := h.service(tenantCtx).Vote(itemID, voter)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if item == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Item not found", nil)
		return
	}

	if counted {
		h.webhookService(tenantCtx).TriggerItemVoted(r.Context(), tenantCtx.WorkspaceID, item, item.Votes)
		h.analytics(tenantCtx).Record(&analytics.Event{
			Timestamp: time.Now().UnixMilli(),
			EventType: analytics.EventVote,
			RoadmapID: item.RoadmapID,
			ItemID:    item.ID,
			Visitor:   voter,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"votes":   item.Votes,
		"counted": counted,
	})
}

type subscribeRequest struct {
	Email string `json:"email"`
}

func (h *PublicHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*database.TenantContext)
	itemID := apiContext.RouteParam(r.Context(), "id")

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, "Invalid JSON", nil)
		return
	}

	svc := h.service(tenantCtx)
	item, err := svc.GetItem(itemID)
	if err != nil {
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.ErrCodeInternal, "Database error", nil)
		return
	}
	if item == nil {
		apierrors.WriteError(w, http.StatusNotFound, apierrors.ErrCodeNotFound, "Item not found", nil)
		return
	}

	added, err := svc.Subscribe(itemID, req.Email)
	if err != nil {
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	if added {
		h.webhookService(tenantCtx).TriggerSubscriberAdded(r.Context(), tenantCtx.WorkspaceID, item.ID, req.Email)
		h.analytics(tenantCtx).Record(&analytics.Event{
			Timestamp: time.Now().UnixMilli(),
			EventType: analytics.EventSubscribe,
			RoadmapID: item.RoadmapID,
			ItemID:    item.ID,
			Visitor:   visitorFingerprint(r),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"subscribed": true})
}
