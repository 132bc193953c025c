// Package handler exposes approval workflows over HTTP. All routes are
// management routes; the approver identity comes from the access token.
package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"startup-dataroom/backend/internal/apperr"
	"startup-dataroom/backend/internal/approval"
	"startup-dataroom/backend/internal/approval/domain"
	"startup-dataroom/backend/internal/platform/httpx"
	"startup-dataroom/backend/internal/server/middleware"
)

// Handler serves approval workflow endpoints.
type Handler struct {
	svc *approval.Service
}

// New returns an approval handler.
func New(svc *approval.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterManagement mounts the workflow routes.
func (h *Handler) RegisterManagement(r chi.Router) {
	r.Post("/workflows", h.create)
	r.Get("/workflows/{id}", h.get)
	r.Post("/workflows/{id}/submit", h.submit)
	r.Post("/workflows/{id}/decisions", h.decide)
}

type createRequest struct {
	ScenarioID string   `json:"scenarioId"`
	Template   string   `json:"template"`
	Approvers  []string `json:"approvers"`
}

type stageResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Approvers   []string   `json:"approvers"`
	RequiresAll bool       `json:"requiresAll"`
	Status      string     `json:"status"`
	Approvals   []string   `json:"approvals,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

type decisionResponse struct {
	StageID    string    `json:"stageId"`
	ApproverID string    `json:"approverId"`
	Action     string    `json:"action"`
	Comment    string    `json:"comment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type workflowResponse struct {
	ID                string             `json:"id"`
	ScenarioID        string             `json:"scenarioId"`
	SubmitterID       string             `json:"submitterId,omitempty"`
	Status            string             `json:"status"`
	CurrentStageIndex int                `json:"currentStageIndex"`
	Stages            []stageResponse    `json:"stages"`
	History           []decisionResponse `json:"history"`
	CreatedAt         time.Time          `json:"createdAt"`
	SubmittedAt       *time.Time         `json:"submittedAt,omitempty"`
}

func toWorkflowResponse(w *domain.Workflow) workflowResponse {
	stages := make([]stageResponse, len(w.Stages))
	for i, st := range w.Stages {
		stages[i] = stageResponse{
			ID:          st.ID,
			Name:        st.Name,
			Approvers:   st.Approvers,
			RequiresAll: st.RequiresAll,
			Status:      string(st.Status),
			Approvals:   st.Approvals,
			DueDate:     st.DueDate,
		}
	}
	history := make([]decisionResponse, len(w.History))
	for i, d := range w.History {
		history[i] = decisionResponse{
			StageID:    d.StageID,
			ApproverID: d.ApproverID,
			Action:     string(d.Action),
			Comment:    d.Comment,
			Timestamp:  d.Timestamp,
		}
	}
	return workflowResponse{
		ID:                w.ID,
		ScenarioID:        w.ScenarioID,
		SubmitterID:       w.SubmitterID,
		Status:            string(w.Status),
		CurrentStageIndex: w.CurrentStageIndex,
		Stages:            stages,
		History:           history,
		CreatedAt:         w.CreatedAt,
		SubmittedAt:       w.SubmittedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	submitter, _ := middleware.GetUserID(r.Context())
	wf, err := h.svc.Create(r.Context(), req.ScenarioID, submitter, domain.Template(req.Template), req.Approvers)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toWorkflowResponse(wf))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	wf, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toWorkflowResponse(wf))
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	wf, err := h.svc.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toWorkflowResponse(wf))
}

type decideRequest struct {
	StageID string `json:"stageId"`
	Action  string `json:"action"`
	Comment string `json:"comment,omitempty"`
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, err)
		return
	}
	approver, ok := middleware.GetUserID(r.Context())
	if !ok || approver == "" {
		httpx.Error(w, fmt.Errorf("%w: no authenticated approver", apperr.ErrUnauthorized))
		return
	}
	wf, err := h.svc.Decide(r.Context(), chi.URLParam(r, "id"), req.StageID, approver, domain.Action(req.Action), req.Comment)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toWorkflowResponse(wf))
}
