package qualification_test

import (
	"testing"
	"time"

	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/policy"
	"github.com/minhvh/vieclam/internal/qualification"
)

func newEvaluator(t *testing.T) *qualification.Evaluator {
	t.Helper()
	pol, err := policy.Default()
	if err != nil {
		t.Fatalf("policy.Default: %v", err)
	}
	return qualification.NewEvaluator(pol)
}

func japaneseJob(level string, minReliability int) *models.Job {
	return &models.Job{
		RequiredLanguage:    models.LangJapanese,
		RequiredLevel:       level,
		MinReliabilityScore: minReliability,
	}
}

func workerWith(score int, skills ...models.LanguageSkill) *models.WorkerProfile {
	return &models.WorkerProfile{ReliabilityScore: score, LanguageSkills: skills}
}

func TestRankOrdering(t *testing.T) {
	tests := []struct {
		lang   models.Language
		levels []string
	}{
		{models.LangJapanese, []string{"n5", "n4", "n3", "n2", "n1"}},
		{models.LangKorean, []string{"topik_1", "topik_2", "topik_3", "topik_4", "topik_5", "topik_6"}},
		{models.LangEnglish, []string{"a1", "a2", "b1", "b2", "c1", "c2"}},
	}
	for _, tt := range tests {
		prev := qualification.Rank(tt.lang, qualification.LevelBeginner)
		for _, level := range tt.levels {
			r := qualification.Rank(tt.lang, level)
			if r <= prev {
				t.Errorf("%s %s rank %d not above previous %d", tt.lang, level, r, prev)
			}
			prev = r
		}
	}
}

func TestBeginnerRanksBelowEverything(t *testing.T) {
	for _, lang := range []models.Language{models.LangJapanese, models.LangKorean, models.LangEnglish} {
		if qualification.Rank(lang, qualification.LevelBeginner) != 0 {
			t.Errorf("beginner must rank 0 for %s", lang)
		}
	}
}

func TestEligibility(t *testing.T) {
	now := time.Now().UTC()
	e := newEvaluator(t)

	verified := models.LanguageSkill{Language: models.LangJapanese, Level: "n3", VerificationStatus: models.VerificationVerified}

	tests := []struct {
		name         string
		worker       *models.WorkerProfile
		completed    int
		job          *models.Job
		wantEligible bool
	}{
		{"meets everything", workerWith(85, verified), 0, japaneseJob("n4", 70), true},
		{"no matching language", workerWith(85), 0, japaneseJob("n4", 70), false},
		{"level too low", workerWith(85, models.LanguageSkill{Language: models.LangJapanese, Level: "n5"}), 0, japaneseJob("n3", 70), false},
		{"reliability below minimum", workerWith(60, verified), 0, japaneseJob("n4", 70), false},
		{"exactly at minimum reliability", workerWith(70, verified), 0, japaneseJob("n4", 70), true},
		{"exact level match", workerWith(85, models.LanguageSkill{Language: models.LangJapanese, Level: "n4"}), 0, japaneseJob("n4", 70), true},
		{"wrong language skill", workerWith(85, models.LanguageSkill{Language: models.LangKorean, Level: "topik_6"}), 0, japaneseJob("n5", 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := e.Evaluate(tt.worker, tt.completed, tt.job, now)
			if q.IsEligible != tt.wantEligible {
				t.Errorf("IsEligible = %v, want %v (%+v)", q.IsEligible, tt.wantEligible, q)
			}
		})
	}
}

func TestFrozenWorkerIsNeverEligible(t *testing.T) {
	now := time.Now().UTC()
	until := now.Add(24 * time.Hour)
	w := workerWith(95, models.LanguageSkill{Language: models.LangJapanese, Level: "n1", VerificationStatus: models.VerificationVerified})
	w.IsAccountFrozen = true
	w.FrozenUntil = &until

	q := newEvaluator(t).Evaluate(w, 10, japaneseJob("n5", 0), now)
	if q.IsEligible {
		t.Errorf("frozen worker must not be eligible")
	}
	if q.InstantBook {
		t.Errorf("frozen worker must not instant book")
	}

	// once the freeze lapses, the same attributes qualify
	q = newEvaluator(t).Evaluate(w, 10, japaneseJob("n5", 0), until.Add(time.Second))
	if !q.IsEligible || !q.InstantBook {
		t.Errorf("lapsed freeze should restore qualification, got %+v", q)
	}
}

func TestInstantBook(t *testing.T) {
	now := time.Now().UTC()
	e := newEvaluator(t)
	verified := models.LanguageSkill{Language: models.LangJapanese, Level: "n3", VerificationStatus: models.VerificationVerified}
	pending := verified
	pending.VerificationStatus = models.VerificationPending

	tests := []struct {
		name      string
		worker    *models.WorkerProfile
		completed int
		want      bool
	}{
		{"qualifies", workerWith(90, verified), 3, true},
		{"reliability 89 never qualifies", workerWith(89, verified), 10, false},
		{"skill not verified", workerWith(95, pending), 10, false},
		{"too few completed jobs", workerWith(95, verified), 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := e.Evaluate(tt.worker, tt.completed, japaneseJob("n4", 70), now)
			if q.InstantBook != tt.want {
				t.Errorf("InstantBook = %v, want %v (%+v)", q.InstantBook, tt.want, q)
			}
		})
	}
}

func TestMatchScore(t *testing.T) {
	now := time.Now().UTC()
	e := newEvaluator(t)

	t.Run("full marks", func(t *testing.T) {
		w := workerWith(100, models.LanguageSkill{Language: models.LangJapanese, Level: "n1", VerificationStatus: models.VerificationVerified})
		q := e.Evaluate(w, 25, japaneseJob("n5", 0), now)
		// 30 language + 25 level (bonus capped) + 25 reliability + 20 experience
		if q.Score != 100 {
			t.Errorf("Score = %d, want 100", q.Score)
		}
	})

	t.Run("no matching language scores reliability and experience only", func(t *testing.T) {
		w := workerWith(80)
		q := e.Evaluate(w, 4, japaneseJob("n4", 0), now)
		// 0 + 0 + round(80/100*25)=20 + 4
		if q.Score != 24 {
			t.Errorf("Score = %d, want 24", q.Score)
		}
	})

	t.Run("level shortfall decays", func(t *testing.T) {
		// n5 (rank 1) against n2 (rank 4): 15 - 3*3 = 6
		w := workerWith(0, models.LanguageSkill{Language: models.LangJapanese, Level: "n5"})
		q := e.Evaluate(w, 0, japaneseJob("n2", 0), now)
		if q.Score != 36 {
			t.Errorf("Score = %d, want 36 (30 language + 6 level)", q.Score)
		}
	})

	t.Run("verified bonus capped at 25", func(t *testing.T) {
		w := workerWith(0, models.LanguageSkill{Language: models.LangJapanese, Level: "n1", VerificationStatus: models.VerificationVerified})
		q := e.Evaluate(w, 0, japaneseJob("n1", 0), now)
		// level component must cap at 25, not reach 30
		if q.Score != 55 {
			t.Errorf("Score = %d, want 55", q.Score)
		}
	})

	t.Run("score never gates eligibility", func(t *testing.T) {
		// high score but reliability below job minimum: ineligible regardless
		w := workerWith(60, models.LanguageSkill{Language: models.LangJapanese, Level: "n1", VerificationStatus: models.VerificationVerified})
		q := e.Evaluate(w, 20, japaneseJob("n5", 80), now)
		if q.IsEligible {
			t.Errorf("high match score must not override the reliability gate")
		}
		if q.Score == 0 {
			t.Errorf("score should still be computed for ranking")
		}
	})
}
