package store

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ratthapon/suntrack/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := New(db)
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func storedSample(site string, ts time.Time, power float64) models.TelemetrySample {
	s := models.TelemetrySample{SiteID: site, Timestamp: ts}
	s.DCPower = sql.NullFloat64{Float64: power, Valid: true}
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	v, err := s.MigrationVersion()
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if v != 1 {
		t.Errorf("version = %d, want 1", v)
	}
}

func TestInsertAndGetSamples_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	in := storedSample("A", base, 150)
	in.PanelTemp = sql.NullFloat64{Float64: 42.5, Valid: true}
	in.TrackerAzimuth = sql.NullFloat64{Float64: 183, Valid: true}
	// Irradiance left Null on purpose.

	n, err := s.InsertSamples([]models.TelemetrySample{in})
	if err != nil {
		t.Fatalf("InsertSamples: %v", err)
	}
	if n != 1 {
		t.Fatalf("inserted = %d, want 1", n)
	}

	out, err := s.GetSamples("", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("GetSamples: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len = %d, want 1", len(out))
	}
	got := out[0]
	if !got.Timestamp.Equal(base) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, base)
	}
	if got.SiteID != "A" {
		t.Errorf("SiteID = %q, want A", got.SiteID)
	}
	if !got.DCPower.Valid || got.DCPower.Float64 != 150 {
		t.Errorf("DCPower = %+v, want 150", got.DCPower)
	}
	if !got.PanelTemp.Valid || got.PanelTemp.Float64 != 42.5 {
		t.Errorf("PanelTemp = %+v, want 42.5", got.PanelTemp)
	}
	if got.Irradiance.Valid {
		t.Error("Irradiance should stay Null through the round trip")
	}
}

func TestGetSamples_SiteAndWindow(t *testing.T) {
	s := setupTestStore(t)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	samples := []models.TelemetrySample{
		storedSample("A", day.Add(8*time.Hour), 100),
		storedSample("A", day.Add(20*time.Hour), 120),
		storedSample("B", day.Add(9*time.Hour), 300),
		storedSample("A", day.AddDate(0, 0, 1).Add(8*time.Hour), 140),
	}
	if _, err := s.InsertSamples(samples); err != nil {
		t.Fatal(err)
	}

	// Site only.
	got, err := s.GetSamples("A", time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("site A: len = %d, want 3", len(got))
	}

	// Half-open window: June 1 only, end boundary excluded.
	got, err = s.GetSamples("A", day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("windowed: len = %d, want 2", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Error("results not ordered by timestamp")
		}
	}
}

func TestInsertSamples_DuplicatesAccepted(t *testing.T) {
	s := setupTestStore(t)
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	dup := []models.TelemetrySample{
		storedSample("A", ts, 100),
		storedSample("A", ts, 200),
	}
	n, err := s.InsertSamples(dup)
	if err != nil {
		t.Fatalf("InsertSamples: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2 (same site and timestamp is legal)", n)
	}
	count, err := s.SampleCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("SampleCount = %d, want 2", count)
	}
}

func TestSites(t *testing.T) {
	s := setupTestStore(t)
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	samples := []models.TelemetrySample{
		storedSample("B", ts, 1),
		storedSample("A", ts, 2),
		storedSample("A", ts.Add(time.Minute), 3),
		storedSample("", ts, 4),
	}
	if _, err := s.InsertSamples(samples); err != nil {
		t.Fatal(err)
	}

	sites, err := s.Sites()
	if err != nil {
		t.Fatalf("Sites: %v", err)
	}
	if len(sites) != 2 || sites[0] != "A" || sites[1] != "B" {
		t.Errorf("Sites = %v, want [A B]", sites)
	}
}
