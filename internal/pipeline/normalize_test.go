package pipeline

import (
	"errors"
	"testing"
	"time"
)

func TestNormalize_TimestampAliases(t *testing.T) {
	tests := []struct {
		name   string
		column string
	}{
		{"ts_utc", "ts_utc"},
		{"ts", "ts"},
		{"timestamp", "timestamp"},
		{"time", "time"},
		{"uppercase header", "TS_UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []map[string]string{
				{tt.column: "2024-06-01T08:00:00Z", "dc_power": "120.5"},
			}
			samples, stats, err := Normalize(rows, "test.csv")
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if len(samples) != 1 {
				t.Fatalf("len(samples) = %d, want 1", len(samples))
			}
			if stats.DroppedRows != 0 {
				t.Errorf("DroppedRows = %d, want 0", stats.DroppedRows)
			}
			want := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
			if !samples[0].Timestamp.Equal(want) {
				t.Errorf("Timestamp = %v, want %v", samples[0].Timestamp, want)
			}
		})
	}
}

func TestNormalize_MissingTimestampColumn(t *testing.T) {
	rows := []map[string]string{
		{"dc_power": "100", "site_id": "A"},
	}
	_, _, err := Normalize(rows, "broken.csv")
	if !errors.Is(err, ErrSchemaMissing) {
		t.Fatalf("err = %v, want ErrSchemaMissing", err)
	}
}

func TestNormalize_DropsUnparseableRows(t *testing.T) {
	rows := make([]map[string]string, 0, 10)
	for i := 0; i < 9; i++ {
		rows = append(rows, map[string]string{
			"ts_utc":   time.Date(2024, 6, 1, 8, i, 0, 0, time.UTC).Format(time.RFC3339),
			"dc_power": "100",
		})
	}
	rows = append(rows, map[string]string{"ts_utc": "not-a-date", "dc_power": "100"})

	samples, stats, err := Normalize(rows, "test.csv")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(samples) != 9 {
		t.Errorf("len(samples) = %d, want 9", len(samples))
	}
	if stats.DroppedRows != 1 {
		t.Errorf("DroppedRows = %d, want 1", stats.DroppedRows)
	}
}

func TestNormalize_TimestampFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", "2024-06-01T08:30:00Z", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-06-01T15:30:00+07:00", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"naive space", "2024-06-01 08:30:00", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"naive T", "2024-06-01T08:30:00", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"minute precision", "2024-06-01 08:30", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"slashes", "2024/06/01 08:30:00", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"unix seconds", "1717230600", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)},
		{"unix millis", "1717230600000", time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseTimestamp(tt.raw)
			if !ok {
				t.Fatalf("parseTimestamp(%q) not ok", tt.raw)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_SiteCoercion(t *testing.T) {
	rows := []map[string]string{
		{"ts_utc": "2024-06-01T08:00:00Z", "site_id": "42"},
	}
	samples, stats, err := Normalize(rows, "test.csv")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if samples[0].SiteID != "42" {
		t.Errorf("SiteID = %q, want \"42\"", samples[0].SiteID)
	}
	if !stats.SiteColumn {
		t.Error("SiteColumn = false, want true")
	}
}

func TestNormalize_NoSiteColumn(t *testing.T) {
	rows := []map[string]string{
		{"ts_utc": "2024-06-01T08:00:00Z", "dc_power": "100"},
	}
	_, stats, err := Normalize(rows, "test.csv")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if stats.SiteColumn {
		t.Error("SiteColumn = true, want false when no site column resolves")
	}
}

func TestNormalize_PowerDerivation(t *testing.T) {
	t.Run("derived when absent", func(t *testing.T) {
		rows := []map[string]string{
			{"ts_utc": "2024-06-01T08:00:00Z", "dc_voltage": "10", "dc_current": "2"},
			{"ts_utc": "2024-06-01T08:01:00Z", "dc_voltage": "10", "dc_current": "2"},
		}
		samples, stats, err := Normalize(rows, "test.csv")
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if !stats.PowerDerived {
			t.Error("PowerDerived = false, want true")
		}
		for i, s := range samples {
			if !s.DCPower.Valid || s.DCPower.Float64 != 20 {
				t.Errorf("sample %d DCPower = %+v, want 20", i, s.DCPower)
			}
		}
	})

	t.Run("derived when never positive", func(t *testing.T) {
		rows := []map[string]string{
			{"ts_utc": "2024-06-01T08:00:00Z", "dc_power": "0", "dc_voltage": "12", "dc_current": "3"},
		}
		samples, stats, err := Normalize(rows, "test.csv")
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if !stats.PowerDerived {
			t.Error("PowerDerived = false, want true")
		}
		if samples[0].DCPower.Float64 != 36 {
			t.Errorf("DCPower = %v, want 36", samples[0].DCPower.Float64)
		}
	})

	t.Run("untouched when present", func(t *testing.T) {
		rows := []map[string]string{
			{"ts_utc": "2024-06-01T08:00:00Z", "dc_power": "150", "dc_voltage": "10", "dc_current": "2"},
		}
		samples, stats, err := Normalize(rows, "test.csv")
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if stats.PowerDerived {
			t.Error("PowerDerived = true, want false")
		}
		if samples[0].DCPower.Float64 != 150 {
			t.Errorf("DCPower = %v, want 150", samples[0].DCPower.Float64)
		}
	})
}

func TestNormalize_FieldAliases(t *testing.T) {
	rows := []map[string]string{
		{
			"ts_utc":            "2024-06-01T08:00:00Z",
			"irradiance":        "850",
			"panel_temperature": "41.5",
			"wind_speed":        "3.2",
		},
	}
	samples, _, err := Normalize(rows, "test.csv")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	s := samples[0]
	if !s.Irradiance.Valid || s.Irradiance.Float64 != 850 {
		t.Errorf("Irradiance = %+v, want 850", s.Irradiance)
	}
	if !s.PanelTemp.Valid || s.PanelTemp.Float64 != 41.5 {
		t.Errorf("PanelTemp = %+v, want 41.5", s.PanelTemp)
	}
	if !s.WindSpeed.Valid || s.WindSpeed.Float64 != 3.2 {
		t.Errorf("WindSpeed = %+v, want 3.2", s.WindSpeed)
	}
}

func TestNormalize_EmptyCellsStayNull(t *testing.T) {
	rows := []map[string]string{
		{"ts_utc": "2024-06-01T08:00:00Z", "dc_power": "", "panel_temp_c": ""},
	}
	samples, _, err := Normalize(rows, "test.csv")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if samples[0].DCPower.Valid {
		t.Error("DCPower should be Null for an empty cell")
	}
	if samples[0].PanelTemp.Valid {
		t.Error("PanelTemp should be Null for an empty cell")
	}
}
