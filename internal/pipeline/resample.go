package pipeline

import (
	"database/sql"
	"sort"
	"time"

	"github.com/ratthapon/suntrack/internal/models"
)

// Cadences is the recognized set of resample widths in minutes.
var Cadences = []int{1, 5, 10, 15, 30, 60}

// ValidCadence reports whether minutes is a recognized resample width.
func ValidCadence(minutes int) bool {
	for _, c := range Cadences {
		if c == minutes {
			return true
		}
	}
	return false
}

// Resample buckets samples onto a fixed grid of cadenceMinutes,
// aligned to midnight UTC rather than to the first sample, so
// overlapping windows produce identical bucket boundaries. Numeric
// channels aggregate by mean of present values; the site identifier
// by first-seen. Intervals with no samples are simply not emitted.
func Resample(samples []models.TelemetrySample, cadenceMinutes int) []models.ResampledBucket {
	if len(samples) == 0 {
		return nil
	}
	cadence := time.Duration(cadenceMinutes) * time.Minute

	sorted := make([]models.TelemetrySample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var buckets []models.ResampledBucket
	sums := make([]float64, len(models.Fields))
	counts := make([]int, len(models.Fields))

	flush := func(start time.Time, siteID string, n int) {
		b := models.ResampledBucket{BucketStart: start, SiteID: siteID, SampleCount: n}
		for i, f := range models.Fields {
			if counts[i] > 0 {
				f.Set(&b.TelemetryValues, sql.NullFloat64{Float64: sums[i] / float64(counts[i]), Valid: true})
			}
		}
		buckets = append(buckets, b)
		for i := range sums {
			sums[i], counts[i] = 0, 0
		}
	}

	cur := sorted[0].Timestamp.Truncate(cadence)
	site := sorted[0].SiteID
	n := 0
	for _, s := range sorted {
		start := s.Timestamp.Truncate(cadence)
		if !start.Equal(cur) {
			flush(cur, site, n)
			cur, site, n = start, s.SiteID, 0
		}
		if n == 0 {
			site = s.SiteID
		}
		n++
		for i, f := range models.Fields {
			if v := f.Get(&s.TelemetryValues); v.Valid {
				sums[i] += v.Float64
				counts[i]++
			}
		}
	}
	flush(cur, site, n)
	return buckets
}
