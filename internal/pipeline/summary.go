package pipeline

import (
	"database/sql"
	"math"

	"github.com/ratthapon/suntrack/internal/models"
)

// ReferenceParams configure the performance-ratio calculation.
type ReferenceParams struct {
	PanelAreaM2     float64
	ModuleEff       float64
	FixedPRBaseline float64
}

// Summarize derives scalar metrics from resampled buckets. Energy uses
// the rectangular rule with missing power treated as zero; averages
// exclude missing values instead of counting them as zero. Ratios are
// Null when their denominator is not strictly positive; a Null must
// be rendered as "n/a", never as 0 or infinity.
func Summarize(buckets []models.ResampledBucket, cadenceMinutes int, ref ReferenceParams) models.SummaryMetrics {
	m := models.SummaryMetrics{BucketCount: len(buckets)}
	hours := float64(cadenceMinutes) / 60.0

	var tempSum float64
	var tempN int
	var errSum float64
	var errN int

	for _, b := range buckets {
		if b.DCPower.Valid {
			m.EnergyWh += b.DCPower.Float64 * hours
			if !m.PeakPowerW.Valid || b.DCPower.Float64 > m.PeakPowerW.Float64 {
				m.PeakPowerW = sql.NullFloat64{Float64: b.DCPower.Float64, Valid: true}
			}
		}
		if b.Irradiance.Valid {
			m.ReferenceEnergyWh += b.Irradiance.Float64 * ref.PanelAreaM2 * ref.ModuleEff * hours
		}
		if b.PanelTemp.Valid {
			tempSum += b.PanelTemp.Float64
			tempN++
		}
		if b.TrackerAzimuth.Valid && b.TrackerElevation.Valid && b.SunAzimuth.Valid && b.SunElevation.Valid {
			errSum += angularOffsetDeg(b.TrackerAzimuth.Float64, b.TrackerElevation.Float64, b.SunAzimuth.Float64, b.SunElevation.Float64)
			errN++
		}
	}

	if tempN > 0 {
		m.AvgPanelTempC = sql.NullFloat64{Float64: tempSum / float64(tempN), Valid: true}
	}
	if errN > 0 {
		m.AvgTrackingErrDeg = sql.NullFloat64{Float64: errSum / float64(errN), Valid: true}
	}
	if m.ReferenceEnergyWh > 0 {
		m.PerformanceRatio = sql.NullFloat64{Float64: m.EnergyWh / m.ReferenceEnergyWh, Valid: true}
	}
	if m.PerformanceRatio.Valid && ref.FixedPRBaseline > 0 {
		gain := (m.PerformanceRatio.Float64 - ref.FixedPRBaseline) / ref.FixedPRBaseline * 100
		m.TrackerGainPct = sql.NullFloat64{Float64: gain, Valid: true}
	}
	return m
}

// angularOffsetDeg is the pointing error between the tracker attitude
// and the sun position, with azimuth wrapped to [-180, 180].
func angularOffsetDeg(trackAz, trackEl, sunAz, sunEl float64) float64 {
	dAz := math.Mod(trackAz-sunAz+540, 360) - 180
	dEl := trackEl - sunEl
	return math.Sqrt(dAz*dAz + dEl*dEl)
}
