package policy_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minhvh/vieclam/internal/policy"
)

func TestDefaultPolicy(t *testing.T) {
	p, err := policy.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	wantDeltas := map[string]int{
		policy.ReasonOnTimeCheckin:     1,
		policy.ReasonLateCheckin:       -1,
		policy.ReasonLateCheckinSevere: -2,
		policy.ReasonJobCompleted:      1,
		policy.ReasonNoShow:            -20,
	}
	for reason, want := range wantDeltas {
		got, ok := p.Delta(reason)
		if !ok {
			t.Fatalf("no delta for %s", reason)
		}
		if got != want {
			t.Errorf("delta(%s) = %d, want %d", reason, got, want)
		}
	}

	if p.GraceMinutes != 15 || p.SevereMinutes != 30 {
		t.Errorf("lateness bands = (%d, %d), want (15, 30)", p.GraceMinutes, p.SevereMinutes)
	}
	if p.FreezeDuration() != 7*24*time.Hour {
		t.Errorf("freeze duration = %v, want 168h", p.FreezeDuration())
	}
	if p.CredentialTTL() != 24*time.Hour {
		t.Errorf("credential ttl = %v, want 24h", p.CredentialTTL())
	}
	if p.InstantBook.MinReliability != 90 || p.InstantBook.MinCompletedJobs != 3 {
		t.Errorf("instant book thresholds = %+v", p.InstantBook)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.json")
	doc := `{
		"deltas": {"on_time_checkin": 2, "late_checkin": -1, "late_checkin_severe": -3, "job_completed": 1, "no_show": -30},
		"grace_minutes": 10,
		"severe_minutes": 20,
		"freeze_hours": 72,
		"credential_ttl_hours": 12,
		"instant_book": {"min_reliability": 95, "min_completed_jobs": 5}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := policy.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d, _ := p.Delta(policy.ReasonNoShow); d != -30 {
		t.Errorf("no_show delta = %d, want -30", d)
	}
	if p.FreezeDuration() != 72*time.Hour {
		t.Errorf("freeze = %v, want 72h", p.FreezeDuration())
	}
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	// missing the required no_show delta
	doc := `{
		"deltas": {"on_time_checkin": 1, "late_checkin": -1, "late_checkin_severe": -2, "job_completed": 1},
		"grace_minutes": 15,
		"severe_minutes": 30,
		"freeze_hours": 168,
		"credential_ttl_hours": 24,
		"instant_book": {"min_reliability": 90, "min_completed_jobs": 3}
	}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := policy.Load(context.Background(), path); err == nil {
		t.Fatal("expected schema validation error, got nil")
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	p, err := policy.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if d, _ := p.Delta(policy.ReasonOnTimeCheckin); d != 1 {
		t.Errorf("default on_time delta = %d, want 1", d)
	}
}
