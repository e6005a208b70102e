package api

import (
	"github.com/gorilla/mux"

	"github.com/minhvh/vieclam/internal/application"
	"github.com/minhvh/vieclam/internal/checkin"
	"github.com/minhvh/vieclam/internal/config"
	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/reliability"
	"github.com/minhvh/vieclam/internal/repository/sqlite"
)

// Deps bundles the engine services the handlers sit on top of.
type Deps struct {
	Repo       *sqlite.SQLiteRepo
	Controller *application.Controller
	Processor  *checkin.Processor
	Ledger     *reliability.Ledger
}

func SetupRoutes(cfg *config.Config, version, buildTime string, d Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(d.Repo, d.Repo, cfg.JWTSecret, cfg.TokenDuration)
	jobsHandler := NewJobsHandler(d.Repo, d.Controller)
	applicationsHandler := NewApplicationsHandler(d.Controller, d.Repo)
	checkinHandler := NewCheckinHandler(d.Processor)
	workersHandler := NewWorkersHandler(d.Repo, d.Ledger)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Anyone signed in can browse jobs
	apiV1.HandleFunc("/jobs", jobsHandler.ListJobs).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods("GET")

	// Worker endpoints
	workerV1 := apiV1.NewRoute().Subrouter()
	workerV1.Use(RequireRole(models.RoleWorker))
	workerV1.HandleFunc("/jobs/{id}/applications", applicationsHandler.Apply).Methods("POST")
	workerV1.HandleFunc("/applications/{id}/cancel", applicationsHandler.Cancel).Methods("POST")
	workerV1.HandleFunc("/workers/me", workersHandler.Me).Methods("GET")
	workerV1.HandleFunc("/workers/me/applications", applicationsHandler.ListMine).Methods("GET")
	workerV1.HandleFunc("/workers/me/skills", workersHandler.UpsertSkill).Methods("PUT")
	workerV1.HandleFunc("/workers/me/reliability", workersHandler.ReliabilityHistory).Methods("GET")
	workerV1.HandleFunc("/checkins", checkinHandler.CheckIn).Methods("POST")
	workerV1.HandleFunc("/checkouts", checkinHandler.CheckOut).Methods("POST")

	// Owner endpoints
	ownerV1 := apiV1.NewRoute().Subrouter()
	ownerV1.Use(RequireRole(models.RoleOwner))
	ownerV1.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	ownerV1.HandleFunc("/jobs/{id}/candidates", jobsHandler.Candidates).Methods("GET")
	ownerV1.HandleFunc("/applications/{id}/approve", applicationsHandler.Approve).Methods("POST")
	ownerV1.HandleFunc("/applications/{id}/reject", applicationsHandler.Reject).Methods("POST")
	ownerV1.HandleFunc("/applications/{id}/no-show", applicationsHandler.NoShow).Methods("POST")

	return r
}
