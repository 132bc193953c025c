// Package handler exposes document records over HTTP. Documents arrive from
// the aggregating layer; the only governed mutation is the visibility field.
package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"startup-dataroom/backend/internal/apperr"
	"startup-dataroom/backend/internal/document/domain"
	"startup-dataroom/backend/internal/document/repository"
	"startup-dataroom/backend/internal/platform/httpx"
)

// Handler serves document endpoints.
type Handler struct {
	repo repository.Repository
}

// New returns a document handler.
func New(repo repository.Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterManagement mounts the document routes.
func (h *Handler) RegisterManagement(r chi.Router) {
	r.Post("/documents", h.create)
	r.Get("/documents/{id}", h.get)
	r.Put("/documents/{id}/visibility", h.updateVisibility)
}

type createRequest struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Category       string `json:"category,omitempty"`
	Visibility     string `json:"visibility,omitempty"`
	Representative bool   `json:"representative,omitempty"`
}

type documentResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category,omitempty"`
	Visibility     string    `json:"visibility"`
	Representative bool      `json:"representative,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toDocumentResponse(d *domain.Document) documentResponse {
	return documentResponse{
		ID:             d.ID,
		Name:           d.Name,
		Category:       d.Category,
		Visibility:     string(d.Visibility),
		Representative: d.Representative,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	if req.Visibility != "" && !domain.ValidVisibility(domain.Visibility(req.Visibility)) {
		httpx.Error(w, fmt.Errorf("%w: unknown visibility %q", apperr.ErrInvalidInput, req.Visibility))
		return
	}
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:             req.ID,
		Name:           req.Name,
		Category:       req.Category,
		Visibility:     domain.Visibility(req.Visibility),
		Representative: req.Representative,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if err := doc.Validate(); err != nil {
		httpx.Error(w, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	if err := h.repo.Create(r.Context(), doc); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toDocumentResponse(doc))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if doc == nil {
		httpx.Error(w, fmt.Errorf("%w: document %s", apperr.ErrNotFound, id))
		return
	}
	httpx.JSON(w, http.StatusOK, toDocumentResponse(doc))
}

type visibilityRequest struct {
	Visibility string `json:"visibility"`
}

func (h *Handler) updateVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	if !domain.ValidVisibility(domain.Visibility(req.Visibility)) {
		httpx.Error(w, fmt.Errorf("%w: unknown visibility %q", apperr.ErrInvalidInput, req.Visibility))
		return
	}
	id := chi.URLParam(r, "id")
	doc, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	if doc == nil {
		httpx.Error(w, fmt.Errorf("%w: document %s", apperr.ErrNotFound, id))
		return
	}
	if err := h.repo.UpdateVisibility(r.Context(), id, domain.Visibility(req.Visibility)); err != nil {
		httpx.Error(w, err)
		return
	}
	doc.Visibility = domain.Visibility(req.Visibility)
	doc.UpdatedAt = time.Now().UTC()
	httpx.JSON(w, http.StatusOK, toDocumentResponse(doc))
}
