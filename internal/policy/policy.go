// Package policy holds the tunable decision tables for the reliability and
// qualification engine. The tables are data, loaded from a JSON document and
// validated against an embedded schema, so deployments can retune deltas and
// thresholds without a code change.
package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/qri-io/jsonschema"
)

// Reliability event reason tokens. The scoring table maps these to deltas.
const (
	ReasonOnTimeCheckin     = "on_time_checkin"
	ReasonLateCheckin       = "late_checkin"
	ReasonLateCheckinSevere = "late_checkin_severe"
	ReasonJobCompleted      = "job_completed"
	ReasonNoShow            = "no_show"
)

//go:embed policy_schema.json
var schemaJSON []byte

//go:embed default_policy.json
var defaultJSON []byte

type Policy struct {
	// Deltas maps a reason token to a signed score change.
	Deltas map[string]int `json:"deltas"`
	// GraceMinutes is the inclusive upper bound of the no-penalty window
	// after shift start. A check-in at exactly GraceMinutes late is on time.
	GraceMinutes int `json:"grace_minutes"`
	// SevereMinutes is the inclusive upper bound of the mild-lateness band;
	// beyond it the severe penalty applies.
	SevereMinutes int `json:"severe_minutes"`
	// FreezeHours is how long a no-show freezes the account (exact hours,
	// not calendar days).
	FreezeHours int `json:"freeze_hours"`
	// CredentialTTLHours is the check-in credential lifetime from issuance.
	CredentialTTLHours int `json:"credential_ttl_hours"`

	InstantBook InstantBookPolicy `json:"instant_book"`
}

type InstantBookPolicy struct {
	MinReliability   int `json:"min_reliability"`
	MinCompletedJobs int `json:"min_completed_jobs"`
}

func (p *Policy) Delta(reason string) (int, bool) {
	d, ok := p.Deltas[reason]
	return d, ok
}

func (p *Policy) FreezeDuration() time.Duration {
	return time.Duration(p.FreezeHours) * time.Hour
}

func (p *Policy) CredentialTTL() time.Duration {
	return time.Duration(p.CredentialTTLHours) * time.Hour
}

// Default returns the built-in policy document.
func Default() (*Policy, error) {
	return parse(context.Background(), defaultJSON)
}

// Load reads a policy document from path, falling back to the embedded
// default when path is empty.
func Load(ctx context.Context, path string) (*Policy, error) {
	if path == "" {
		return parse(ctx, defaultJSON)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return parse(ctx, b)
}

func parse(ctx context.Context, doc []byte) (*Policy, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(schemaJSON, rs); err != nil {
		return nil, fmt.Errorf("compile policy schema: %w", err)
	}
	verrs, err := rs.ValidateBytes(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("validate policy: %w", err)
	}
	if len(verrs) > 0 {
		return nil, fmt.Errorf("policy document invalid: %s", verrs[0].Error())
	}

	var p Policy
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	return &p, nil
}
