package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawTelemetry represents the flat JSON structure produced by the collector
// service. All readings are optional; absent keys mean the sensor did not
// report for this interval.
type RawTelemetry struct {
	RegionID      string   `json:"region_id"`
	Timestamp     string   `json:"timestamp"` // RFC 3339
	TemperatureC  *float64 `json:"temperature_c,omitempty"`
	RainfallMM    *float64 `json:"rainfall_mm,omitempty"`
	HumidityPct   *float64 `json:"humidity_pct,omitempty"`
	WindSpeedKMH  *float64 `json:"wind_speed_kmh,omitempty"`
	PressureHPa   *float64 `json:"pressure_hpa,omitempty"`
	RiverLevelM   *float64 `json:"river_level_m,omitempty"`
	SeismicSignal *float64 `json:"seismic_signal,omitempty"`
	GaugeRainMM   *float64 `json:"rainfall_gauge_mm,omitempty"`
	Source        string   `json:"source,omitempty"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// TelemetryRecord is one timestamped observation for a region. Readings are
// nil when the corresponding sensor did not report. Immutable once created;
// records are ordered by Timestamp within a region.
type TelemetryRecord struct {
	RegionID      string    `json:"region_id"`
	Timestamp     time.Time `json:"timestamp"`
	TemperatureC  *float64  `json:"temperature_c,omitempty"`
	RainfallMM    *float64  `json:"rainfall_mm,omitempty"`
	HumidityPct   *float64  `json:"humidity_pct,omitempty"`
	WindSpeedKMH  *float64  `json:"wind_speed_kmh,omitempty"`
	PressureHPa   *float64  `json:"pressure_hpa,omitempty"`
	RiverLevelM   *float64  `json:"river_level_m,omitempty"`
	SeismicSignal *float64  `json:"seismic_signal,omitempty"`
	GaugeRainMM   *float64  `json:"rainfall_gauge_mm,omitempty"`
	Source        string    `json:"source,omitempty"`

	RawPayload []byte    `json:"-"`
	IngestedAt time.Time `json:"ingested_at,omitempty"`
}

// ValidationError reports a telemetry record rejected before it reaches the
// scoring pipeline.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid telemetry: field %q %s", e.Field, e.Reason)
}

// ParseRawEvent deserializes a RawEvent's value into a TelemetryRecord.
// Missing region_id or an unparseable timestamp is a validation rejection,
// not a pipeline fault.
func ParseRawEvent(raw RawEvent) (TelemetryRecord, error) {
	var rec RawTelemetry
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return TelemetryRecord{}, fmt.Errorf("parse raw event: %w", err)
	}
	return NewTelemetryRecord(rec, raw.Value)
}

// NewTelemetryRecord validates and cleans a raw telemetry record.
func NewTelemetryRecord(rec RawTelemetry, payload []byte) (TelemetryRecord, error) {
	if strings.TrimSpace(rec.RegionID) == "" {
		return TelemetryRecord{}, &ValidationError{Field: "region_id", Reason: "is required"}
	}
	if strings.TrimSpace(rec.Timestamp) == "" {
		return TelemetryRecord{}, &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	ts, err := time.Parse(time.RFC3339, rec.Timestamp)
	if err != nil {
		return TelemetryRecord{}, &ValidationError{Field: "timestamp", Reason: "must be RFC 3339"}
	}

	out := TelemetryRecord{
		RegionID:      strings.TrimSpace(rec.RegionID),
		Timestamp:     ts.UTC(),
		TemperatureC:  clampReading(rec.TemperatureC, -90, 60),
		RainfallMM:    clampReading(rec.RainfallMM, 0, 2000),
		HumidityPct:   clampReading(rec.HumidityPct, 0, 100),
		WindSpeedKMH:  clampReading(rec.WindSpeedKMH, 0, 500),
		PressureHPa:   clampReading(rec.PressureHPa, 800, 1100),
		RiverLevelM:   clampReading(rec.RiverLevelM, 0, 50),
		SeismicSignal: clampReading(rec.SeismicSignal, 0, 12),
		GaugeRainMM:   clampReading(rec.GaugeRainMM, 0, 2000),
		Source:        rec.Source,
		RawPayload:    payload,
		IngestedAt:    clock.Now().UTC(),
	}
	return out, nil
}

// clampReading bounds a sensor reading to its physically plausible range.
// Out-of-range values come from sensor glitches; clamping matches the
// upstream cleaning step rather than dropping the whole record.
func clampReading(v *float64, lo, hi float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	if c < lo {
		c = lo
	}
	if c > hi {
		c = hi
	}
	return &c
}

// Reading returns the value of an optional sensor reading along with whether
// it was reported.
func Reading(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Float returns a pointer to v, for building records with optional readings.
func Float(v float64) *float64 { return &v }
