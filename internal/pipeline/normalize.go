package pipeline

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ratthapon/suntrack/internal/models"
)

// timestampAliases are the accepted header names for the timestamp
// column, in priority order. The first one present wins.
var timestampAliases = []string{"ts_utc", "ts", "timestamp", "time"}

var siteAliases = []string{"site_id", "site"}

// timeLayouts tried in order for non-numeric timestamp values. Naive
// layouts are interpreted as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

// NormalizeStats reports what the normalizer did to a record set.
// SiteColumn records whether a site column was resolved; the filter
// stage only applies a site match when one was.
type NormalizeStats struct {
	InputRows    int
	DroppedRows  int
	PowerDerived bool
	SiteColumn   bool
}

// Normalize converts raw source rows into TelemetrySamples. Rows whose
// timestamp fails to parse are dropped, never fatal. A missing
// timestamp column is fatal and wraps ErrSchemaMissing with the source
// name so the operator can correct input.
func Normalize(rows []map[string]string, sourceName string) ([]models.TelemetrySample, NormalizeStats, error) {
	stats := NormalizeStats{InputRows: len(rows)}
	if len(rows) == 0 {
		return nil, stats, nil
	}

	tsCol := resolveColumn(rows[0], timestampAliases)
	if tsCol == "" {
		return nil, stats, fmt.Errorf("%w in source %s (accepted: %s)",
			ErrSchemaMissing, sourceName, strings.Join(timestampAliases, ", "))
	}
	siteCol := resolveColumn(rows[0], siteAliases)
	stats.SiteColumn = siteCol != ""

	// Map present headers to canonical fields once, from the first row.
	fieldCols := map[string]models.Field{}
	for col := range rows[0] {
		canonical, ok := models.FieldAliases[strings.ToLower(strings.TrimSpace(col))]
		if !ok {
			continue
		}
		if f, ok := models.FieldByName(canonical); ok {
			fieldCols[col] = f
		}
	}

	samples := make([]models.TelemetrySample, 0, len(rows))
	for _, row := range rows {
		ts, ok := parseTimestamp(row[tsCol])
		if !ok {
			stats.DroppedRows++
			continue
		}
		s := models.TelemetrySample{Timestamp: ts}
		if siteCol != "" {
			s.SiteID = strings.TrimSpace(row[siteCol])
		}
		for col, f := range fieldCols {
			if v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64); err == nil {
				f.Set(&s.TelemetryValues, sql.NullFloat64{Float64: v, Valid: true})
			}
		}
		samples = append(samples, s)
	}

	stats.PowerDerived = derivePower(samples)
	return samples, stats, nil
}

// derivePower fills dc_power from voltage*current when the power
// channel is absent or never positive across the whole set. Returns
// whether derivation ran.
func derivePower(samples []models.TelemetrySample) bool {
	anyPositive := false
	anyVI := false
	for i := range samples {
		if p := samples[i].DCPower; p.Valid && p.Float64 > 0 {
			anyPositive = true
		}
		if samples[i].DCVoltage.Valid && samples[i].DCCurrent.Valid {
			anyVI = true
		}
	}
	if anyPositive || !anyVI {
		return false
	}
	for i := range samples {
		v, c := samples[i].DCVoltage, samples[i].DCCurrent
		if v.Valid && c.Valid {
			samples[i].DCPower = sql.NullFloat64{Float64: v.Float64 * c.Float64, Valid: true}
		}
	}
	return true
}

// resolveColumn returns the first alias present as a key in the row,
// matching case-insensitively against trimmed headers.
func resolveColumn(row map[string]string, aliases []string) string {
	lower := map[string]string{}
	for col := range row {
		lower[strings.ToLower(strings.TrimSpace(col))] = col
	}
	for _, a := range aliases {
		if col, ok := lower[a]; ok {
			return col
		}
	}
	return ""
}

// parseTimestamp accepts the layouts above plus integer Unix seconds
// or milliseconds. Everything is coerced to UTC.
func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		// Heuristic: values past year 9999 in seconds are milliseconds.
		if n > 253402300799 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
