// Package domain models per-region environmental telemetry and the risk
// assessment data derived from it.
//
// # Data Source
//
// Telemetry originates from regional sensor networks and weather feeds. The
// upstream collector publishes each observation as flat JSON to the Kafka
// source topic, one message per region per reading interval. Every record
// carries a region identifier and a timestamp; the individual readings
// (temperature, rainfall, humidity, wind speed, pressure, river level,
// seismic signal, gauge rainfall) are each optional and omitted when the
// corresponding sensor did not report.
//
// # Regions
//
// A Region is a static monitored area: identifier, display name, WGS-84
// coordinates, elevation in meters, and three hazard-proneness attributes
// (flood-prone flag, cyclone-prone flag, earthquake zone 1-5). Regions are
// immutable once registered. Telemetry referencing an unregistered region
// degrades to a minimal stand-in region rather than failing.
//
// # Risk Bands
//
// A final risk score is an integer in [0, 100]. The three risk bands
// partition that range with inclusive upper bounds:
//
//	0-40    Low     monitor
//	41-70   Medium  prepare
//	71-100  High    evacuate
//
// The recommended action string is determined solely by the band; see
// [RiskLevel.RecommendedAction]. Alert severity maps Low→info,
// Medium→warning, High→critical.
//
// # Disaster Types
//
// The classification label set is closed: Flood, Cyclone, Earthquake,
// Heatwave, and None. Predictions come from the external model service or,
// when it is unavailable, from the deterministic rule fallback in the risk
// package. Both produce the same Prediction shape.
//
// # Alert Lifecycle
//
// An Alert starts "active" and can only transition to "resolved", which
// stamps the resolution time. No other transitions exist.
package domain
