package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/qualification"
	"github.com/minhvh/vieclam/internal/reliability"
	"github.com/minhvh/vieclam/pkg/repository"
)

type WorkersHandler struct {
	workerRepo repository.WorkerRepo
	ledger     *reliability.Ledger
}

func NewWorkersHandler(wr repository.WorkerRepo, ledger *reliability.Ledger) *WorkersHandler {
	return &WorkersHandler{workerRepo: wr, ledger: ledger}
}

// Me returns the authenticated worker's profile, with the freeze state
// reported through the computed predicate rather than the raw flag.
func (h *WorkersHandler) Me(w http.ResponseWriter, r *http.Request) {
	worker, err := h.workerRepo.GetWorkerByID(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if worker == nil {
		http.Error(w, "worker not found", http.StatusNotFound)
		return
	}
	worker.PasswordHash = ""
	now := time.Now().UTC()
	writeJSON(w, map[string]any{
		"profile":   worker,
		"is_frozen": reliability.Frozen(worker, now),
	}, http.StatusOK)
}

type putSkillRequest struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

// UpsertSkill adds or replaces the worker's skill entry for one language.
// New entries start unverified; verification happens out of band.
func (h *WorkersHandler) UpsertSkill(w http.ResponseWriter, r *http.Request) {
	var req putSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	lang := models.Language(req.Language)
	if lang != models.LangJapanese && lang != models.LangKorean && lang != models.LangEnglish {
		http.Error(w, "language must be japanese, korean or english", http.StatusBadRequest)
		return
	}
	if !qualification.KnownLevel(lang, req.Level) {
		http.Error(w, "unknown level for language", http.StatusBadRequest)
		return
	}

	skill := &models.LanguageSkill{
		WorkerID:           userID(r),
		Language:           lang,
		Level:              req.Level,
		VerificationStatus: models.VerificationPending,
	}
	if _, err := h.workerRepo.UpsertLanguageSkill(r.Context(), skill); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, skill, http.StatusOK)
}

// ReliabilityHistory returns the worker's full score ledger.
func (h *WorkersHandler) ReliabilityHistory(w http.ResponseWriter, r *http.Request) {
	events, err := h.ledger.History(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []models.ReliabilityEvent{}
	}

	score, err := h.ledger.Score(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"current_score": score, "events": events}, http.StatusOK)
}
