package risk

import "github.com/couchcryptid/disaster-warning-service/internal/domain"

// Bonus points added per threshold crossing. Thresholds are evaluated
// independently per parameter and the bonuses accumulate.
const (
	warningBonus = 10
	dangerBonus  = 20
)

// Threshold is one safety-threshold parameter. For most parameters higher
// readings are worse; for pressure lower readings are worse.
type Threshold struct {
	Parameter    string
	Warning      float64
	Danger       float64
	LowerIsWorse bool

	read func(domain.TelemetryRecord) *float64
}

// crossed reports whether the reading crosses the given limit in the
// dangerous direction.
func (t Threshold) crossed(value, limit float64) bool {
	if t.LowerIsWorse {
		return value < limit
	}
	return value > limit
}

// DefaultThresholds is the fixed safety-threshold table, informed by
// operational warning levels for each sensor channel.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Parameter: "rainfall_mm", Warning: 80, Danger: 150,
			read: func(r domain.TelemetryRecord) *float64 { return r.RainfallMM }},
		{Parameter: "wind_speed_kmh", Warning: 60, Danger: 100,
			read: func(r domain.TelemetryRecord) *float64 { return r.WindSpeedKMH }},
		{Parameter: "river_level_m", Warning: 5.0, Danger: 7.0,
			read: func(r domain.TelemetryRecord) *float64 { return r.RiverLevelM }},
		{Parameter: "temperature_c", Warning: 40, Danger: 45,
			read: func(r domain.TelemetryRecord) *float64 { return r.TemperatureC }},
		{Parameter: "seismic_signal", Warning: 1.5, Danger: 3.0,
			read: func(r domain.TelemetryRecord) *float64 { return r.SeismicSignal }},
		{Parameter: "pressure_hpa", Warning: 995, Danger: 980, LowerIsWorse: true,
			read: func(r domain.TelemetryRecord) *float64 { return r.PressureHPa }},
	}
}
