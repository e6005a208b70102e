package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/minhvh/vieclam/internal/application"
	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/qualification"
	"github.com/minhvh/vieclam/pkg/repository"
)

type JobsHandler struct {
	jobRepo    repository.JobRepo
	controller *application.Controller
}

func NewJobsHandler(jr repository.JobRepo, ctrl *application.Controller) *JobsHandler {
	return &JobsHandler{jobRepo: jr, controller: ctrl}
}

type postJobRequest struct {
	Title               string  `json:"title"`
	RequiredLanguage    string  `json:"required_language"`
	RequiredLevel       string  `json:"required_language_level"`
	MinReliabilityScore int     `json:"min_reliability_score"`
	ShiftStart          int64   `json:"shift_start"`
	ShiftEnd            int64   `json:"shift_end"`
	SiteLat             float64 `json:"site_lat"`
	SiteLng             float64 `json:"site_lng"`
	MaxWorkers          int     `json:"max_workers"`
}

func (h *JobsHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req postJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	lang := models.Language(req.RequiredLanguage)
	switch {
	case req.Title == "":
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	case lang != models.LangJapanese && lang != models.LangKorean && lang != models.LangEnglish:
		http.Error(w, "required_language must be japanese, korean or english", http.StatusBadRequest)
		return
	case !qualification.KnownLevel(lang, req.RequiredLevel):
		http.Error(w, "unknown required_language_level", http.StatusBadRequest)
		return
	case req.MinReliabilityScore < 0 || req.MinReliabilityScore > 100:
		http.Error(w, "min_reliability_score must be 0-100", http.StatusBadRequest)
		return
	case req.MaxWorkers <= 0:
		http.Error(w, "max_workers must be positive", http.StatusBadRequest)
		return
	case req.ShiftEnd <= req.ShiftStart:
		http.Error(w, "shift_end must be after shift_start", http.StatusBadRequest)
		return
	case req.SiteLat < -90 || req.SiteLat > 90 || req.SiteLng < -180 || req.SiteLng > 180:
		http.Error(w, "invalid site coordinates", http.StatusBadRequest)
		return
	}

	job := &models.Job{
		OwnerID:             userID(r),
		Title:               req.Title,
		RequiredLanguage:    lang,
		RequiredLevel:       req.RequiredLevel,
		MinReliabilityScore: req.MinReliabilityScore,
		ShiftStart:          time.UnixMilli(req.ShiftStart).UTC(),
		ShiftEnd:            time.UnixMilli(req.ShiftEnd).UTC(),
		SiteLat:             req.SiteLat,
		SiteLng:             req.SiteLng,
		MaxWorkers:          req.MaxWorkers,
		Status:              models.JobOpen,
	}
	id, err := h.jobRepo.CreateJob(r.Context(), job)
	if err != nil {
		writeError(w, err)
		return
	}
	job.ID = id
	writeJSON(w, job, http.StatusCreated)
}

func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 50
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 500 {
			limit = v
		}
	}
	offset := 0
	if o := q.Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	jobsList, err := h.jobRepo.ListOpenJobs(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if jobsList == nil {
		jobsList = []models.Job{}
	}
	writeJSON(w, map[string]any{"items": jobsList, "limit": limit, "offset": offset}, http.StatusOK)
}

func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	job, err := h.jobRepo.GetJobByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, job, http.StatusOK)
}

// Candidates returns a job's applicants ranked by advisory match score.
func (h *JobsHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.controller.Candidates(r.Context(), id, userID(r), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []application.Candidate{}
	}
	writeJSON(w, map[string]any{"items": out}, http.StatusOK)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
