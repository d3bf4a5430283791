package models

import (
	"database/sql"
	"time"
)

// TelemetryValues holds the optional numeric channels a tracker
// reports. Any subset may be absent depending on the source schema;
// absence is a Null, never a zero.
type TelemetryValues struct {
	DCPower          sql.NullFloat64
	DCVoltage        sql.NullFloat64
	DCCurrent        sql.NullFloat64
	Irradiance       sql.NullFloat64
	PanelTemp        sql.NullFloat64
	AmbientTemp      sql.NullFloat64
	TrackerAzimuth   sql.NullFloat64
	TrackerElevation sql.NullFloat64
	SunAzimuth       sql.NullFloat64
	SunElevation     sql.NullFloat64
	WindSpeed        sql.NullFloat64
}

// TelemetrySample is one sensor reading at one instant. Timestamp is
// always present and UTC after normalization; duplicates per
// (site, timestamp) are legal and get averaged away by resampling.
type TelemetrySample struct {
	SiteID    string
	Timestamp time.Time
	TelemetryValues
}

// ResampledBucket is one fixed-width interval after aggregation.
// BucketStart is the left-closed boundary, aligned to the cadence
// grid (midnight UTC epoch). Numeric fields are means over present
// values in the interval; SiteID is first-seen.
type ResampledBucket struct {
	BucketStart time.Time
	SiteID      string
	SampleCount int
	TelemetryValues
}

// SummaryMetrics are derived scalars, recomputed on every pipeline
// run and never persisted. Null means "not available" and must be
// rendered as such, not as zero.
type SummaryMetrics struct {
	EnergyWh          float64
	ReferenceEnergyWh float64
	PeakPowerW        sql.NullFloat64
	AvgPanelTempC     sql.NullFloat64
	PerformanceRatio  sql.NullFloat64
	TrackerGainPct    sql.NullFloat64
	AvgTrackingErrDeg sql.NullFloat64
	BucketCount       int
}

// SiteProfile carries per-site reference parameters used by the
// performance-ratio calculation.
type SiteProfile struct {
	SiteID          string  `yaml:"site_id"`
	Name            string  `yaml:"name"`
	PanelAreaM2     float64 `yaml:"panel_area_m2"`
	ModuleEff       float64 `yaml:"module_eff"`
	FixedPRBaseline float64 `yaml:"fixed_pr_baseline"`
}
