package api

import (
	"database/sql"
	"time"

	"github.com/ratthapon/suntrack/internal/models"
	"github.com/ratthapon/suntrack/internal/pipeline"
)

// SummaryView is the JSON shape of the derived metrics. Missing
// metrics serialize as null, never as zero.
type SummaryView struct {
	EnergyWh          float64  `json:"energy_wh"`
	ReferenceEnergyWh float64  `json:"reference_energy_wh"`
	PeakPowerW        *float64 `json:"peak_power_w"`
	AvgPanelTempC     *float64 `json:"avg_panel_temp_c"`
	PerformanceRatio  *float64 `json:"performance_ratio"`
	TrackerGainPct    *float64 `json:"tracker_gain_pct"`
	AvgTrackingErrDeg *float64 `json:"avg_tracking_error_deg"`
	BucketCount       int      `json:"bucket_count"`
	InputRows         int      `json:"input_rows"`
	DroppedRows       int      `json:"dropped_rows"`
	PowerDerived      bool     `json:"power_derived"`
}

// BucketView is one resampled interval for JSON and the HTML table.
type BucketView struct {
	TsUTC       time.Time           `json:"ts_utc"`
	SiteID      string              `json:"site_id,omitempty"`
	SampleCount int                 `json:"sample_count"`
	Values      map[string]*float64 `json:"values"`
}

func summaryView(res *pipeline.Result) SummaryView {
	m := res.Summary
	return SummaryView{
		EnergyWh:          m.EnergyWh,
		ReferenceEnergyWh: m.ReferenceEnergyWh,
		PeakPowerW:        nullPtr(m.PeakPowerW),
		AvgPanelTempC:     nullPtr(m.AvgPanelTempC),
		PerformanceRatio:  nullPtr(m.PerformanceRatio),
		TrackerGainPct:    nullPtr(m.TrackerGainPct),
		AvgTrackingErrDeg: nullPtr(m.AvgTrackingErrDeg),
		BucketCount:       m.BucketCount,
		InputRows:         res.Stats.InputRows,
		DroppedRows:       res.Stats.DroppedRows,
		PowerDerived:      res.Stats.PowerDerived,
	}
}

func bucketViews(buckets []models.ResampledBucket) []BucketView {
	out := make([]BucketView, 0, len(buckets))
	for i := range buckets {
		b := &buckets[i]
		values := make(map[string]*float64, len(models.Fields))
		for _, f := range models.Fields {
			values[f.Name] = nullPtr(f.Get(&b.TelemetryValues))
		}
		out = append(out, BucketView{
			TsUTC:       b.BucketStart,
			SiteID:      b.SiteID,
			SampleCount: b.SampleCount,
			Values:      values,
		})
	}
	return out
}

func fieldNames() []string {
	names := make([]string, len(models.Fields))
	for i, f := range models.Fields {
		names[i] = f.Name
	}
	return names
}

func nullPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
