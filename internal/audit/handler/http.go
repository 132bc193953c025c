// Package handler exposes the access log over HTTP. All routes are management
// routes, including the explicit bulk clear.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"startup-dataroom/backend/internal/audit"
	"startup-dataroom/backend/internal/audit/domain"
	"startup-dataroom/backend/internal/platform/httpx"
)

// Handler serves access log endpoints.
type Handler struct {
	svc *audit.Service
}

// New returns an audit handler.
func New(svc *audit.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterManagement mounts the audit routes.
func (h *Handler) RegisterManagement(r chi.Router) {
	r.Get("/audit", h.query)
	r.Get("/audit/stats", h.stats)
	r.Delete("/audit", h.clear)
}

type entryResponse struct {
	Timestamp       time.Time `json:"timestamp"`
	Action          string    `json:"action"`
	DocumentID      string    `json:"documentId,omitempty"`
	SessionID       string    `json:"sessionId,omitempty"`
	Actor           string    `json:"actor"`
	Success         bool      `json:"success"`
	DurationSeconds *int      `json:"durationSeconds,omitempty"`
	DeviceType      *string   `json:"deviceType,omitempty"`
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := audit.Criteria{
		Action:     domain.Action(q.Get("action")),
		DocumentID: q.Get("documentId"),
		SessionID:  q.Get("sessionId"),
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err == nil {
			criteria.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err == nil {
			criteria.To = t
		}
	}

	entries, err := h.svc.Filter(r.Context(), criteria)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			Timestamp:       e.Timestamp,
			Action:          string(e.Action),
			DocumentID:      e.DocumentID,
			SessionID:       e.SessionID,
			Actor:           e.Actor,
			Success:         e.Success,
			DurationSeconds: e.DurationSeconds,
			DeviceType:      e.DeviceType,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
