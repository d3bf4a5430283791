package export_test

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"testing"
	"time"

	"github.com/ratthapon/suntrack/internal/export"
	"github.com/ratthapon/suntrack/internal/models"
	"github.com/ratthapon/suntrack/internal/pipeline"
)

// An exported bucket table parses back through the normalizer into the
// same buckets, since the header uses canonical column names.
func TestExport_RoundTrip(t *testing.T) {
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	var samples []models.TelemetrySample
	for i := 0; i < 4; i++ {
		s := models.TelemetrySample{SiteID: "A", Timestamp: base.Add(time.Duration(i*5) * time.Minute)}
		s.DCPower = sql.NullFloat64{Float64: float64(100 + i*10), Valid: true}
		if i != 2 {
			s.PanelTemp = sql.NullFloat64{Float64: 40 + float64(i), Valid: true}
		}
		samples = append(samples, s)
	}
	want := pipeline.Resample(samples, 5)

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, want, 5); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	header := records[0]
	var rows []map[string]string
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		rows = append(rows, row)
	}

	reparsed, _, err := pipeline.Normalize(rows, "export.csv")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	got := pipeline.Resample(reparsed, 5)

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].BucketStart.Equal(want[i].BucketStart) {
			t.Errorf("bucket %d start = %v, want %v", i, got[i].BucketStart, want[i].BucketStart)
		}
		if got[i].SiteID != want[i].SiteID {
			t.Errorf("bucket %d site = %q, want %q", i, got[i].SiteID, want[i].SiteID)
		}
		for _, f := range models.Fields {
			gv := f.Get(&got[i].TelemetryValues)
			wv := f.Get(&want[i].TelemetryValues)
			if gv.Valid != wv.Valid {
				t.Errorf("bucket %d %s: valid = %v, want %v", i, f.Name, gv.Valid, wv.Valid)
				continue
			}
			if gv.Valid && gv.Float64 != wv.Float64 {
				t.Errorf("bucket %d %s = %v, want %v", i, f.Name, gv.Float64, wv.Float64)
			}
		}
	}
}
