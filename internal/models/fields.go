package models

import "database/sql"

// Field describes one numeric telemetry channel: its canonical column
// name plus accessors into TelemetryValues. The registry lets the
// normalizer, resampler and exporter treat channels uniformly instead
// of repeating per-column branches.
type Field struct {
	Name string
	Get  func(*TelemetryValues) sql.NullFloat64
	Set  func(*TelemetryValues, sql.NullFloat64)
}

// Fields is the canonical channel registry, in export column order.
var Fields = []Field{
	{"dc_power",
		func(v *TelemetryValues) sql.NullFloat64 { return v.DCPower },
		func(v *TelemetryValues, x sql.NullFloat64) { v.DCPower = x }},
	{"dc_voltage",
		func(v *TelemetryValues) sql.NullFloat64 { return v.DCVoltage },
		func(v *TelemetryValues, x sql.NullFloat64) { v.DCVoltage = x }},
	{"dc_current",
		func(v *TelemetryValues) sql.NullFloat64 { return v.DCCurrent },
		func(v *TelemetryValues, x sql.NullFloat64) { v.DCCurrent = x }},
	{"irradiance_wm2",
		func(v *TelemetryValues) sql.NullFloat64 { return v.Irradiance },
		func(v *TelemetryValues, x sql.NullFloat64) { v.Irradiance = x }},
	{"panel_temp_c",
		func(v *TelemetryValues) sql.NullFloat64 { return v.PanelTemp },
		func(v *TelemetryValues, x sql.NullFloat64) { v.PanelTemp = x }},
	{"ambient_temp_c",
		func(v *TelemetryValues) sql.NullFloat64 { return v.AmbientTemp },
		func(v *TelemetryValues, x sql.NullFloat64) { v.AmbientTemp = x }},
	{"tracker_az_deg",
		func(v *TelemetryValues) sql.NullFloat64 { return v.TrackerAzimuth },
		func(v *TelemetryValues, x sql.NullFloat64) { v.TrackerAzimuth = x }},
	{"tracker_el_deg",
		func(v *TelemetryValues) sql.NullFloat64 { return v.TrackerElevation },
		func(v *TelemetryValues, x sql.NullFloat64) { v.TrackerElevation = x }},
	{"sun_az_deg",
		func(v *TelemetryValues) sql.NullFloat64 { return v.SunAzimuth },
		func(v *TelemetryValues, x sql.NullFloat64) { v.SunAzimuth = x }},
	{"sun_el_deg",
		func(v *TelemetryValues) sql.NullFloat64 { return v.SunElevation },
		func(v *TelemetryValues, x sql.NullFloat64) { v.SunElevation = x }},
	{"wind_ms",
		func(v *TelemetryValues) sql.NullFloat64 { return v.WindSpeed },
		func(v *TelemetryValues, x sql.NullFloat64) { v.WindSpeed = x }},
}

// FieldAliases maps accepted source column headers to canonical field
// names. Headers are matched lowercased and trimmed.
var FieldAliases = map[string]string{
	"dc_power":            "dc_power",
	"power_w":             "dc_power",
	"dc_power_w":          "dc_power",
	"dc_voltage":          "dc_voltage",
	"voltage_v":           "dc_voltage",
	"dc_current":          "dc_current",
	"current_a":           "dc_current",
	"irradiance_wm2":      "irradiance_wm2",
	"irradiance":          "irradiance_wm2",
	"ghi_wm2":             "irradiance_wm2",
	"panel_temp_c":        "panel_temp_c",
	"panel_temperature":   "panel_temp_c",
	"module_temp_c":       "panel_temp_c",
	"ambient_temp_c":      "ambient_temp_c",
	"ambient_temperature": "ambient_temp_c",
	"tracker_az_deg":      "tracker_az_deg",
	"tracker_azimuth":     "tracker_az_deg",
	"tracker_el_deg":      "tracker_el_deg",
	"tracker_elevation":   "tracker_el_deg",
	"sun_az_deg":          "sun_az_deg",
	"sun_azimuth":         "sun_az_deg",
	"sun_el_deg":          "sun_el_deg",
	"sun_elevation":       "sun_el_deg",
	"wind_ms":             "wind_ms",
	"wind_speed":          "wind_ms",
	"wind_speed_ms":       "wind_ms",
}

// FieldByName returns the registry entry for a canonical name.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
