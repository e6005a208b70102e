package api

import (
	"net/http"
	"time"

	"github.com/minhvh/vieclam/internal/application"
	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/pkg/repository"
)

type ApplicationsHandler struct {
	controller *application.Controller
	appRepo    repository.ApplicationRepo
}

func NewApplicationsHandler(ctrl *application.Controller, ar repository.ApplicationRepo) *ApplicationsHandler {
	return &ApplicationsHandler{controller: ctrl, appRepo: ar}
}

// Apply handles POST /v1/jobs/{id}/applications for the authenticated worker.
func (h *ApplicationsHandler) Apply(w http.ResponseWriter, r *http.Request) {
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	app, err := h.controller.Apply(r.Context(), jobID, userID(r), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, app, http.StatusCreated)
}

func (h *ApplicationsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	app, err := h.controller.Approve(r.Context(), id, userID(r), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, app, http.StatusOK)
}

func (h *ApplicationsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.controller.Reject(r.Context(), id, userID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": string(models.ApplicationRejected)}, http.StatusOK)
}

func (h *ApplicationsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.controller.Cancel(r.Context(), id, userID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": string(models.ApplicationCancelled)}, http.StatusOK)
}

func (h *ApplicationsHandler) NoShow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.controller.MarkNoShow(r.Context(), id, userID(r), time.Now().UTC()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]string{"status": string(models.ApplicationNoShow)}, http.StatusOK)
}

// ListMine returns the authenticated worker's applications.
func (h *ApplicationsHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	apps, err := h.appRepo.ListByWorker(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if apps == nil {
		apps = []models.JobApplication{}
	}
	writeJSON(w, map[string]any{"items": apps}, http.StatusOK)
}
