package pipeline

import (
	"time"

	"github.com/ratthapon/suntrack/internal/models"
)

// Filter selects samples for a site and date window. The window is
// half-open: startOfDay(start) <= ts < startOfDay(end) + 24h, both
// UTC. Inclusive-end semantics are deliberately not supported; the
// boundary policy is fixed so repeated runs agree on the edge day.
//
// A non-empty siteID keeps exact matches only: a row with an empty
// site cell does not match. Callers pass an empty siteID when the
// source has no site column at all, which passes every row through
// the site check. A zero start or end leaves that side of the window
// unbounded.
func Filter(samples []models.TelemetrySample, siteID string, start, end time.Time) []models.TelemetrySample {
	var lo, hi time.Time
	if !start.IsZero() {
		lo = startOfDayUTC(start)
	}
	if !end.IsZero() {
		hi = startOfDayUTC(end).Add(24 * time.Hour)
	}

	out := make([]models.TelemetrySample, 0, len(samples))
	for _, s := range samples {
		if siteID != "" && s.SiteID != siteID {
			continue
		}
		if !lo.IsZero() && s.Timestamp.Before(lo) {
			continue
		}
		if !hi.IsZero() && !s.Timestamp.Before(hi) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
