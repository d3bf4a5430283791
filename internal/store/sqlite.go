// Package store persists normalized telemetry in SQLite, for the
// CSV-to-database loader and as a queryable source for the dashboard.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ratthapon/suntrack/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const insertSampleSQL = `
	INSERT INTO telemetry (ts_utc, site_id, dc_power, dc_voltage, dc_current, irradiance_wm2, panel_temp_c, ambient_temp_c, tracker_az_deg, tracker_el_deg, sun_az_deg, sun_el_deg, wind_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertSamples writes a batch in one transaction and returns how many
// rows were inserted.
func (s *Store) InsertSamples(samples []models.TelemetrySample) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(insertSampleSQL)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, smp := range samples {
		args := make([]any, 0, 2+len(models.Fields))
		args = append(args, smp.Timestamp.UTC().Format(time.RFC3339), smp.SiteID)
		for _, f := range models.Fields {
			args = append(args, f.Get(&smp.TelemetryValues))
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert sample at %s: %w", smp.Timestamp, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// GetSamples reads back normalized samples, optionally constrained by
// site and a half-open window.
func (s *Store) GetSamples(siteID string, start, end time.Time) ([]models.TelemetrySample, error) {
	query := `SELECT ts_utc, site_id, dc_power, dc_voltage, dc_current, irradiance_wm2, panel_temp_c, ambient_temp_c, tracker_az_deg, tracker_el_deg, sun_az_deg, sun_el_deg, wind_ms FROM telemetry`
	var conds []string
	var args []any
	if siteID != "" {
		conds = append(conds, "site_id = ?")
		args = append(args, siteID)
	}
	if !start.IsZero() {
		conds = append(conds, "ts_utc >= ?")
		args = append(args, start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		conds = append(conds, "ts_utc < ?")
		args = append(args, end.UTC().Format(time.RFC3339))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY ts_utc ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []models.TelemetrySample
	for rows.Next() {
		var ts string
		var site sql.NullString
		var smp models.TelemetrySample
		dests := make([]any, 0, 2+len(models.Fields))
		dests = append(dests, &ts, &site)
		vals := make([]sql.NullFloat64, len(models.Fields))
		for i := range vals {
			dests = append(dests, &vals[i])
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		smp.Timestamp = t.UTC()
		smp.SiteID = site.String
		for i, f := range models.Fields {
			f.Set(&smp.TelemetryValues, vals[i])
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

// Sites returns the distinct site identifiers present.
func (s *Store) Sites() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT site_id FROM telemetry WHERE site_id IS NOT NULL AND site_id != '' ORDER BY site_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// SampleCount returns the total number of stored rows.
func (s *Store) SampleCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM telemetry`).Scan(&n)
	return n, err
}
