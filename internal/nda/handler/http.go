// Package handler exposes the NDA workflow over HTTP. Requesting, signing,
// and declining are public routes (the counterparty is an anonymous link
// visitor); listing a session's requests is a management route.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"startup-dataroom/backend/internal/nda"
	"startup-dataroom/backend/internal/nda/domain"
	"startup-dataroom/backend/internal/platform/httpx"
)

// Handler serves NDA endpoints.
type Handler struct {
	svc *nda.Service
}

// New returns an NDA handler.
func New(svc *nda.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterManagement mounts the authenticated NDA routes.
func (h *Handler) RegisterManagement(r chi.Router) {
	r.Get("/sessions/{id}/nda", h.listBySession)
}

// RegisterPublic mounts the anonymous NDA routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/share/{id}/nda", h.request)
	r.Post("/nda/{id}/sign", h.sign)
	r.Post("/nda/{id}/decline", h.decline)
}

type requestBody struct {
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Company        string     `json:"company,omitempty"`
	DeadlinePolicy string     `json:"deadlinePolicy,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
}

type requestResponse struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"sessionId"`
	SignerName  string     `json:"signerName"`
	SignerEmail string     `json:"signerEmail"`
	Company     string     `json:"company,omitempty"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	SignedAt    *time.Time `json:"signedAt,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

func toRequestResponse(r *domain.Request) requestResponse {
	return requestResponse{
		ID:          r.ID,
		SessionID:   r.SessionID,
		SignerName:  r.Signer.Name,
		SignerEmail: r.Signer.Email,
		Company:     r.Signer.Company,
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt,
		SignedAt:    r.SignedAt,
		Deadline:    r.Deadline,
	}
}

func (h *Handler) request(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if err := httpx.Decode(r, &body); err != nil {
		httpx.Error(w, err)
		return
	}
	signer := domain.Signer{Name: body.Name, Email: body.Email, Company: body.Company}
	req, err := h.svc.Request(r.Context(), chi.URLParam(r, "id"), signer,
		domain.DeadlinePolicy(body.DeadlinePolicy), body.Deadline)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRequestResponse(req))
}

func (h *Handler) sign(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.Sign(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRequestResponse(req))
}

func (h *Handler) decline(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.Decline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRequestResponse(req))
}

func (h *Handler) listBySession(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListBySession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	out := make([]requestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toRequestResponse(req))
	}
	httpx.JSON(w, http.StatusOK, out)
}
