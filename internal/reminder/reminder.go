// Package reminder selects upcoming shifts that have crossed a notice
// threshold and have not been notified yet. Selection is a pure filter;
// delivery happens through the background job queue.
package reminder

import (
	"time"

	"github.com/minhvh/vieclam/internal/models"
)

// Notice thresholds. Each application carries one sent-marker per threshold
// so a notice goes out at most once.
const (
	Threshold24h = "24h"
	Threshold1h  = "1h"
)

// Needing24h returns shifts starting within the next 24 hours whose 24h
// notice has not been sent.
func Needing24h(now time.Time, shifts []models.UpcomingShift) []models.UpcomingShift {
	return filter(now, shifts, 24*time.Hour, func(a models.JobApplication) bool { return a.Notified24h })
}

// Needing1h returns shifts starting within the next hour whose 1h notice has
// not been sent.
func Needing1h(now time.Time, shifts []models.UpcomingShift) []models.UpcomingShift {
	return filter(now, shifts, time.Hour, func(a models.JobApplication) bool { return a.Notified1h })
}

func filter(now time.Time, shifts []models.UpcomingShift, window time.Duration, sent func(models.JobApplication) bool) []models.UpcomingShift {
	var out []models.UpcomingShift
	for _, s := range shifts {
		status := s.Application.Status
		if status != models.ApplicationApproved && status != models.ApplicationWorking {
			continue
		}
		until := s.ShiftStart.Sub(now)
		if until <= 0 || until > window {
			continue
		}
		if sent(s.Application) {
			continue
		}
		out = append(out, s)
	}
	return out
}
