package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/pkg/repository"
)

type AuthHandler struct {
	workerRepo    repository.WorkerRepo
	ownerRepo     repository.OwnerRepo
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(wr repository.WorkerRepo, or repository.OwnerRepo, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{workerRepo: wr, ownerRepo: or, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type authResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}
	if req.Role != models.RoleWorker && req.Role != models.RoleOwner {
		http.Error(w, "Role must be worker or owner", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()

	var id int64
	switch req.Role {
	case models.RoleWorker:
		worker := models.WorkerProfile{
			Name:             req.Name,
			Email:            req.Email,
			PasswordHash:     string(hash),
			ReliabilityScore: 100,
		}
		id, err = h.workerRepo.CreateWorker(ctx, &worker)
	case models.RoleOwner:
		owner := models.Owner{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: string(hash),
		}
		id, err = h.ownerRepo.CreateOwner(ctx, &owner)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.issueToken(id, req.Role)
	if err != nil {
		http.Error(w, "Error creating token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, authResponse{Token: token}, http.StatusCreated)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}
	if req.Role != models.RoleWorker && req.Role != models.RoleOwner {
		http.Error(w, "Role must be worker or owner", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	var (
		id   int64
		hash string
	)
	switch req.Role {
	case models.RoleWorker:
		worker, err := h.workerRepo.GetWorkerByEmail(ctx, req.Email)
		if err != nil || worker == nil {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		id, hash = worker.ID, worker.PasswordHash
	case models.RoleOwner:
		owner, err := h.ownerRepo.GetOwnerByEmail(ctx, req.Email)
		if err != nil || owner == nil {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		id, hash = owner.ID, owner.PasswordHash
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.issueToken(id, req.Role)
	if err != nil {
		http.Error(w, "Error creating token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, authResponse{Token: token}, http.StatusOK)
}

func (h *AuthHandler) issueToken(id int64, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  id,
		"role": role,
		"exp":  time.Now().Add(h.tokenDuration).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
