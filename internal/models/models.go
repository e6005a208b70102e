package models

import (
	"time"
)

// Account roles carried in session tokens.
const (
	RoleWorker = "worker"
	RoleOwner  = "owner"
)

type WorkerProfile struct {
	ID               int64           `json:"id" db:"id"`
	Name             string          `json:"name" db:"name"`
	Email            string          `json:"email" db:"email"`
	PasswordHash     string          `json:"-" db:"password_hash"`
	ReliabilityScore int             `json:"reliability_score" db:"reliability_score"`
	IsAccountFrozen  bool            `json:"is_account_frozen" db:"is_account_frozen"`
	FrozenUntil      *time.Time      `json:"frozen_until,omitempty" db:"frozen_until"`
	IsVerified       bool            `json:"is_verified" db:"is_verified"`
	LanguageSkills   []LanguageSkill `json:"language_skills,omitempty"`
	Created          time.Time       `json:"created" db:"created"`
}

type Language string

const (
	LangJapanese Language = "japanese"
	LangKorean   Language = "korean"
	LangEnglish  Language = "english"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// LanguageSkill is keyed by (worker, language); at most one row per language
// is considered for matching.
type LanguageSkill struct {
	ID                 int64              `json:"id" db:"id"`
	WorkerID           int64              `json:"worker_id" db:"worker_id"`
	Language           Language           `json:"language" db:"language"`
	Level              string             `json:"level" db:"level"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
}

type Owner struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Created      time.Time `json:"created" db:"created"`
}

type JobStatus string

const (
	JobOpen      JobStatus = "open"
	JobFilled    JobStatus = "filled"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

type Job struct {
	ID                  int64     `json:"id" db:"id"`
	OwnerID             int64     `json:"owner_id" db:"owner_id"`
	Title               string    `json:"title" db:"title"`
	RequiredLanguage    Language  `json:"required_language" db:"required_language"`
	RequiredLevel       string    `json:"required_language_level" db:"required_language_level"`
	MinReliabilityScore int       `json:"min_reliability_score" db:"min_reliability_score"`
	ShiftStart          time.Time `json:"shift_start" db:"shift_start"`
	ShiftEnd            time.Time `json:"shift_end" db:"shift_end"`
	SiteLat             float64   `json:"site_lat" db:"site_lat"`
	SiteLng             float64   `json:"site_lng" db:"site_lng"`
	MaxWorkers          int       `json:"max_workers" db:"max_workers"`
	CurrentWorkers      int       `json:"current_workers" db:"current_workers"`
	Status              JobStatus `json:"status" db:"status"`
	Created             time.Time `json:"created" db:"created"`
}

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationWorking   ApplicationStatus = "working"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCompleted ApplicationStatus = "completed"
	ApplicationCancelled ApplicationStatus = "cancelled"
	ApplicationNoShow    ApplicationStatus = "no_show"
)

type JobApplication struct {
	ID            int64             `json:"id" db:"id"`
	JobID         int64             `json:"job_id" db:"job_id"`
	WorkerID      int64             `json:"worker_id" db:"worker_id"`
	Status        ApplicationStatus `json:"status" db:"status"`
	IsInstantBook bool              `json:"is_instant_book" db:"is_instant_book"`
	AppliedAt     time.Time         `json:"applied_at" db:"applied_at"`
	ApprovedAt    *time.Time        `json:"approved_at,omitempty" db:"approved_at"`
	// CheckinQRCode is an opaque bearer credential for on-site scans; empty
	// until the application is approved.
	CheckinQRCode      string     `json:"checkin_qr_code,omitempty" db:"checkin_qr_code"`
	CheckinQRExpiresAt *time.Time `json:"checkin_qr_expires_at,omitempty" db:"checkin_qr_expires_at"`
	Notified24h        bool       `json:"notified_24h" db:"notified_24h"`
	Notified1h         bool       `json:"notified_1h" db:"notified_1h"`
}

type ReliabilityEvent struct {
	ID             int64     `json:"id" db:"id"`
	WorkerID       int64     `json:"worker_id" db:"worker_id"`
	ScoreChange    int       `json:"score_change" db:"score_change"`
	Reason         string    `json:"reason" db:"reason"`
	ResultingScore int       `json:"resulting_score" db:"resulting_score"`
	Created        time.Time `json:"created" db:"created"`
}

type CheckinType string

const (
	CheckinTypeIn  CheckinType = "check_in"
	CheckinTypeOut CheckinType = "check_out"
)

// UpcomingShift joins an approved application with its job's shift window,
// the shape the reminder scheduler filters over.
type UpcomingShift struct {
	Application JobApplication `json:"application"`
	JobTitle    string         `json:"job_title"`
	ShiftStart  time.Time      `json:"shift_start"`
}

type CheckinRecord struct {
	ID            int64       `json:"id" db:"id"`
	ApplicationID int64       `json:"application_id" db:"application_id"`
	Type          CheckinType `json:"checkin_type" db:"checkin_type"`
	Time          time.Time   `json:"checkin_time" db:"checkin_time"`
	Lat           float64     `json:"lat" db:"lat"`
	Lng           float64     `json:"lng" db:"lng"`
}
