// Package handler exposes share sessions over HTTP: authenticated management
// routes and the anonymous public share surface.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"startup-dataroom/backend/internal/nda"
	"startup-dataroom/backend/internal/platform/httpx"
	"startup-dataroom/backend/internal/server/middleware"
	sessiondomain "startup-dataroom/backend/internal/sharesession/domain"
	"startup-dataroom/backend/internal/sharesession/service"
	"startup-dataroom/backend/internal/visibility"
)

// Handler serves share session endpoints.
type Handler struct {
	sessions *service.Service
	gate     *nda.Service
}

// New returns a session handler. gate may be nil when no NDA gating is wired.
func New(sessions *service.Service, gate *nda.Service) *Handler {
	return &Handler{sessions: sessions, gate: gate}
}

// RegisterManagement mounts the authenticated session routes.
func (h *Handler) RegisterManagement(r chi.Router) {
	r.Post("/sessions", h.create)
	r.Post("/sessions/{id}/revoke", h.revoke)
}

// RegisterPublic mounts the anonymous share link routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/share/{id}", h.resolve)
	r.Get("/share/{id}/documents", h.documents)
}

type createRequest struct {
	Name        string     `json:"name"`
	DocumentIDs []string   `json:"documentIds"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	RequireNDA  bool       `json:"requireNda,omitempty"`
	ScenarioID  string     `json:"scenarioId,omitempty"`
}

type sessionResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	DocumentIDs []string   `json:"documentIds"`
	Link        string     `json:"link"`
	Active      bool       `json:"active"`
	NDARequired bool       `json:"ndaRequired"`
	AccessCount int64      `json:"accessCount"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toSessionResponse(s *sessiondomain.Session) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		Name:        s.Name,
		DocumentIDs: s.DocumentIDs,
		Link:        s.Link,
		Active:      s.Active,
		NDARequired: s.NDARequired,
		AccessCount: s.AccessCount,
		ExpiresAt:   s.ExpiresAt,
		CreatedAt:   s.CreatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	session, err := h.sessions.Create(r.Context(), service.CreateParams{
		Name:        req.Name,
		DocumentIDs: req.DocumentIDs,
		ExpiresAt:   req.ExpiresAt,
		RequireNDA:  req.RequireNDA,
		ScenarioID:  req.ScenarioID,
	})
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSessionResponse(session))
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpx.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	visitor := service.Visitor{
		Actor:      r.URL.Query().Get("email"),
		DeviceType: middleware.DeviceType(r),
	}
	session, err := h.sessions.Resolve(r.Context(), chi.URLParam(r, "id"), visitor)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSessionResponse(session))
}

type documentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	Visibility string `json:"visibility"`
}

func (h *Handler) documents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if session.NDARequired && h.gate != nil {
		if err := h.gate.Gate(r.Context(), id, r.URL.Query().Get("email")); err != nil {
			httpx.Error(w, err)
			return
		}
	}

	tier := visitorTier(r)
	docs, err := h.sessions.Documents(r.Context(), id, tier)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{
			ID:         d.ID,
			Name:       d.Name,
			Category:   d.Category,
			Visibility: string(d.Visibility),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

// visitorTier derives the viewer tier for a share link visit. Anonymous
// visitors are public; a tier query parameter may claim a higher tier (the
// documents exposed are already scoped by the sharer's session selection).
func visitorTier(r *http.Request) visibility.Tier {
	if t := r.URL.Query().Get("tier"); t != "" {
		return visibility.Tier(t)
	}
	return visibility.TierPublic
}
