// Package qualification decides whether a worker may take a job and whether
// the application books instantly. Eligibility is binary and policy-gated;
// the match score is advisory ranking only and must never gate approval.
package qualification

import (
	"math"
	"time"

	"github.com/minhvh/vieclam/internal/models"
	"github.com/minhvh/vieclam/internal/policy"
	"github.com/minhvh/vieclam/internal/reliability"
)

// LevelBeginner sits below every ranked level for any language; it is the
// placeholder before a worker adds a skill.
const LevelBeginner = "beginner"

// Ordinal proficiency scales, low to high. Each language has its own scale;
// ranks are only comparable within a language.
var levelRanks = map[models.Language][]string{
	models.LangJapanese: {"n5", "n4", "n3", "n2", "n1"},
	models.LangKorean:   {"topik_1", "topik_2", "topik_3", "topik_4", "topik_5", "topik_6"},
	models.LangEnglish:  {"a1", "a2", "b1", "b2", "c1", "c2"},
}

// Rank returns the ordinal rank of a level on its language's scale.
// "beginner" and unknown levels rank 0, below every listed level.
func Rank(lang models.Language, level string) int {
	for i, l := range levelRanks[lang] {
		if l == level {
			return i + 1
		}
	}
	return 0
}

// KnownLevel reports whether level is a ranked level (or the beginner
// sentinel) for the language.
func KnownLevel(lang models.Language, level string) bool {
	if level == LevelBeginner {
		return true
	}
	return Rank(lang, level) > 0
}

type Qualification struct {
	MeetsLanguage    bool `json:"meets_language"`
	MeetsLevel       bool `json:"meets_level"`
	MeetsReliability bool `json:"meets_reliability"`
	IsEligible       bool `json:"is_eligible"`
	InstantBook      bool `json:"qualifies_for_instant_book"`
	// Score ranks candidates for recommendation, 0-100. Advisory only.
	Score int `json:"score"`
}

type Evaluator struct {
	pol *policy.Policy
}

func NewEvaluator(pol *policy.Policy) *Evaluator {
	return &Evaluator{pol: pol}
}

// Evaluate scores a worker against a job's requirements. completedJobs is
// the worker's historical count of completed applications, computed by the
// caller. Inputs are assumed fetched and valid.
func (e *Evaluator) Evaluate(w *models.WorkerProfile, completedJobs int, job *models.Job, now time.Time) Qualification {
	var q Qualification

	skill, hasSkill := matchingSkill(w, job.RequiredLanguage)
	q.MeetsLanguage = hasSkill

	workerRank := 0
	if hasSkill {
		workerRank = Rank(job.RequiredLanguage, skill.Level)
	}
	requiredRank := Rank(job.RequiredLanguage, job.RequiredLevel)
	q.MeetsLevel = hasSkill && workerRank >= requiredRank

	q.MeetsReliability = w.ReliabilityScore >= job.MinReliabilityScore

	frozen := reliability.Frozen(w, now)
	q.IsEligible = q.MeetsLanguage && q.MeetsLevel && q.MeetsReliability && !frozen

	q.InstantBook = q.IsEligible &&
		w.ReliabilityScore >= e.pol.InstantBook.MinReliability &&
		hasSkill && skill.VerificationStatus == models.VerificationVerified &&
		completedJobs >= e.pol.InstantBook.MinCompletedJobs &&
		!frozen

	q.Score = matchScore(w, skill, hasSkill, completedJobs, workerRank, requiredRank)

	return q
}

func matchingSkill(w *models.WorkerProfile, lang models.Language) (models.LanguageSkill, bool) {
	for _, s := range w.LanguageSkills {
		if s.Language == lang {
			return s, true
		}
	}
	return models.LanguageSkill{}, false
}

func matchScore(w *models.WorkerProfile, skill models.LanguageSkill, hasSkill bool, completedJobs, workerRank, requiredRank int) int {
	score := 0

	if hasSkill {
		score += 30

		level := 0
		if workerRank >= requiredRank {
			level = 25
		} else {
			level = 15 - 3*(requiredRank-workerRank)
			if level < 0 {
				level = 0
			}
		}
		if skill.VerificationStatus == models.VerificationVerified {
			level += 5
		}
		if level > 25 {
			level = 25
		}
		score += level
	}

	score += int(math.Round(float64(w.ReliabilityScore) / 100 * 25))

	if completedJobs > 20 {
		completedJobs = 20
	}
	score += completedJobs

	return score
}
