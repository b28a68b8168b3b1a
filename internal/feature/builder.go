// Package feature derives model-ready feature vectors from ordered per-region
// telemetry. The transform is pure: re-running it on the same batch yields
// bit-identical output.
//
// Rolling statistics are computed with a bounded trailing buffer per region
// (capacity 7, the largest window). Anomaly z-scores are computed against the
// whole supplied batch's mean and standard deviation, not a per-region
// historical baseline; callers that want a sliding baseline control it by
// choosing what they pass as one batch.
package feature

import (
	"math"
	"time"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
)

const (
	// epsilon guards divisions against zero spread and zero maxima.
	epsilon = 1e-8

	// maxWindow is the largest trailing window any rolling feature uses.
	maxWindow = 7

	// normalRiverLevelM is the assumed normal river level; deviation is
	// measured against it and levels above floodRiverLevelM flag flood risk.
	normalRiverLevelM = 3.0
	floodRiverLevelM  = 5.0

	// referencePressureHPa anchors the pressure-drop feature; readings below
	// lowPressureHPa set the low-pressure flag (cyclone indicator).
	referencePressureHPa = 1013.0
	lowPressureHPa       = 990.0
)

// channel names a rolling numeric telemetry channel and how to read it.
type channel struct {
	name string
	get  func(domain.TelemetryRecord) *float64
}

// rollingChannels are the channels that get roll3/roll7/roll_std3/trend
// features.
var rollingChannels = []channel{
	{"temperature_c", func(r domain.TelemetryRecord) *float64 { return r.TemperatureC }},
	{"rainfall_mm", func(r domain.TelemetryRecord) *float64 { return r.RainfallMM }},
	{"humidity_pct", func(r domain.TelemetryRecord) *float64 { return r.HumidityPct }},
	{"wind_speed_kmh", func(r domain.TelemetryRecord) *float64 { return r.WindSpeedKMH }},
	{"pressure_hpa", func(r domain.TelemetryRecord) *float64 { return r.PressureHPa }},
}

// anomalyChannels get whole-batch z-scores and anomaly flags.
var anomalyChannels = []channel{
	{"temperature_c", func(r domain.TelemetryRecord) *float64 { return r.TemperatureC }},
	{"rainfall_mm", func(r domain.TelemetryRecord) *float64 { return r.RainfallMM }},
	{"wind_speed_kmh", func(r domain.TelemetryRecord) *float64 { return r.WindSpeedKMH }},
	{"pressure_hpa", func(r domain.TelemetryRecord) *float64 { return r.PressureHPa }},
}

// BuildBatch produces one feature vector per telemetry record. Records must
// be ordered by timestamp within each region; regions supplies static
// attributes and may omit entries (spatial features degrade to the fallback
// region). An empty batch produces no output.
func BuildBatch(records []domain.TelemetryRecord, regions map[string]domain.Region) []domain.FeatureVector {
	if len(records) == 0 {
		return nil
	}

	stats := computeBatchStats(records)
	buffers := make(map[string]*trailingBuffer, len(regions))

	out := make([]domain.FeatureVector, 0, len(records))
	for _, rec := range records {
		buf, ok := buffers[rec.RegionID]
		if !ok {
			buf = newTrailingBuffer(maxWindow)
			buffers[rec.RegionID] = buf
		}
		buf.push(rec)

		region, ok := regions[rec.RegionID]
		if !ok {
			region = domain.FallbackRegion(rec.RegionID)
		}
		out = append(out, buildVector(rec, region, buf, stats))
	}
	return out
}

func buildVector(rec domain.TelemetryRecord, region domain.Region, buf *trailingBuffer, stats batchStats) domain.FeatureVector {
	v := make(map[string]float64, 64)

	rawReadings(v, rec)
	temporalFeatures(v, rec)
	rollingFeatures(v, rec, buf)
	elevCategory := spatialFeatures(v, region)
	statisticalFeatures(v, rec, stats)
	domainFeatures(v, rec, stats)

	return domain.FeatureVector{
		RegionID:          rec.RegionID,
		Timestamp:         rec.Timestamp.UTC().Format(time.RFC3339),
		Values:            v,
		ElevationCategory: elevCategory,
	}
}

// rawReadings copies the reported sensor values into the vector verbatim.
func rawReadings(v map[string]float64, rec domain.TelemetryRecord) {
	put := func(name string, p *float64) {
		if p != nil {
			v[name] = *p
		}
	}
	put("temperature_c", rec.TemperatureC)
	put("rainfall_mm", rec.RainfallMM)
	put("humidity_pct", rec.HumidityPct)
	put("wind_speed_kmh", rec.WindSpeedKMH)
	put("pressure_hpa", rec.PressureHPa)
	put("river_level_m", rec.RiverLevelM)
	put("seismic_signal", rec.SeismicSignal)
	put("rainfall_gauge_mm", rec.GaugeRainMM)
}

// temporalFeatures adds time components, the monsoon flag, and the sinusoidal
// season encoding. Day-of-week uses Monday=0 ordering.
func temporalFeatures(v map[string]float64, rec domain.TelemetryRecord) {
	ts := rec.Timestamp.UTC()
	doy := float64(ts.YearDay())

	v["hour"] = float64(ts.Hour())
	v["day_of_week"] = float64((int(ts.Weekday()) + 6) % 7)
	v["month"] = float64(int(ts.Month()))
	v["day_of_year"] = doy
	v["is_monsoon"] = boolFeature(ts.Month() >= 6 && ts.Month() <= 9)
	v["season_sin"] = math.Sin(2 * math.Pi * doy / 365)
	v["season_cos"] = math.Cos(2 * math.Pi * doy / 365)
}

// rollingFeatures adds trailing mean/std/trend features per channel. Windows
// use however many samples are available (minimum period 1); the 3-sample
// std is 0 with fewer than 2 samples; the trend needs the current reading.
func rollingFeatures(v map[string]float64, rec domain.TelemetryRecord, buf *trailingBuffer) {
	for _, ch := range rollingChannels {
		if mean3, ok := buf.mean(ch.get, 3); ok {
			v[ch.name+"_roll3"] = mean3
		}
		mean7, ok7 := buf.mean(ch.get, 7)
		if ok7 {
			v[ch.name+"_roll7"] = mean7
		}
		if std3, ok := buf.std(ch.get, 3); ok {
			v[ch.name+"_roll_std3"] = std3
		}
		if cur := ch.get(rec); cur != nil && ok7 {
			v[ch.name+"_trend"] = *cur - mean7
		}
	}
}

// spatialFeatures adds the composite region-risk index, the raw hazard
// attributes, and returns the elevation bucket label.
func spatialFeatures(v map[string]float64, region domain.Region) string {
	v["elevation"] = region.Elevation
	v["flood_prone"] = boolFeature(region.FloodProne)
	v["cyclone_prone"] = boolFeature(region.CycloneProne)
	v["earthquake_zone"] = float64(region.EarthquakeZone)

	v["region_risk_index"] = 0.3*boolFeature(region.FloodProne) +
		0.25*boolFeature(region.CycloneProne) +
		0.15*(float64(region.EarthquakeZone)/5.0)

	return elevationCategory(region.Elevation)
}

// elevationCategory buckets elevation by fixed boundaries.
func elevationCategory(elevation float64) string {
	switch {
	case elevation <= 20:
		return "coastal"
	case elevation <= 100:
		return "low"
	case elevation <= 500:
		return "medium"
	case elevation <= 2000:
		return "hill"
	default:
		return "mountain"
	}
}

// statisticalFeatures adds whole-batch z-scores, per-channel anomaly flags,
// and the total anomaly score (count of flagged channels).
func statisticalFeatures(v map[string]float64, rec domain.TelemetryRecord, stats batchStats) {
	total := 0.0
	for _, ch := range anomalyChannels {
		cur := ch.get(rec)
		if cur == nil {
			continue
		}
		s := stats.channels[ch.name]
		z := (*cur - s.mean) / (s.std + epsilon)
		v[ch.name+"_zscore"] = z

		flag := 0.0
		if math.Abs(z) > 2 {
			flag = 1
		}
		v[ch.name+"_anomaly"] = flag
		total += flag
	}
	v["total_anomaly_score"] = total
}

// domainFeatures adds the hazard-specific indices.
func domainFeatures(v map[string]float64, rec domain.TelemetryRecord, stats batchStats) {
	if rain, ok := domain.Reading(rec.RainfallMM); ok {
		v["rainfall_intensity_index"] = rain / (stats.maxRainfall + epsilon)
	}

	if t, okT := domain.Reading(rec.TemperatureC); okT {
		if h, okH := domain.Reading(rec.HumidityPct); okH {
			v["heat_index"] = math.Max(0, heatIndex(t, h))
		}
	}

	if wind, ok := domain.Reading(rec.WindSpeedKMH); ok {
		v["wind_severity_index"] = clamp(wind/200.0, 0, 1)
	}

	if river, ok := domain.Reading(rec.RiverLevelM); ok {
		v["river_level_deviation"] = river - normalRiverLevelM
		v["river_flood_risk"] = boolFeature(river > floodRiverLevelM)
	}

	if p, ok := domain.Reading(rec.PressureHPa); ok {
		v["pressure_drop"] = referencePressureHPa - p
		v["low_pressure_flag"] = boolFeature(p < lowPressureHPa)
	}
}

// heatIndex evaluates the Rothfusz-style polynomial in temperature T (°C) and
// relative humidity H (%).
func heatIndex(t, h float64) float64 {
	return -8.785 + 1.611*t + 2.339*h - 0.1461*t*h -
		0.01231*t*t - 0.01642*h*h +
		0.002212*t*t*h + 0.0007255*t*h*h -
		0.000003582*t*t*h*h
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
