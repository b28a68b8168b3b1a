package domain

import (
	"context"
	"errors"
)

// DisasterType is the classification label for a hazard.
type DisasterType string

const (
	DisasterFlood      DisasterType = "Flood"
	DisasterCyclone    DisasterType = "Cyclone"
	DisasterEarthquake DisasterType = "Earthquake"
	DisasterHeatwave   DisasterType = "Heatwave"
	DisasterNone       DisasterType = "None"
)

// FeatureVector is the derived numeric representation of a telemetry record
// used for scoring. Values is keyed by feature name. ElevationCategory is
// categorical; consumers one-hot encode it if they need a numeric form.
type FeatureVector struct {
	RegionID          string             `json:"region_id"`
	Timestamp         string             `json:"timestamp"`
	Values            map[string]float64 `json:"values"`
	ElevationCategory string             `json:"elevation_category"`
}

// Prediction is a disaster classification with per-class probabilities and a
// base 0-100 risk score. Produced by the model service or the rule fallback;
// immutable once produced.
type Prediction struct {
	DisasterType       DisasterType             `json:"disaster_type"`
	RiskProbability    float64                  `json:"risk_probability"` // [0, 1]
	RiskScore          int                      `json:"risk_score"`       // [0, 100]
	ClassProbabilities map[DisasterType]float64 `json:"class_probabilities"`
	ModelVersion       string                   `json:"model_version"`
}

// ErrPredictorUnavailable signals that the model service cannot serve a
// prediction right now. Callers recover with the rule-based fallback; the
// condition is never surfaced to users.
var ErrPredictorUnavailable = errors.New("predictor unavailable")

// Predictor produces a Prediction from a feature vector. Implementations
// report unavailability by wrapping ErrPredictorUnavailable.
type Predictor interface {
	Predict(ctx context.Context, features FeatureVector) (Prediction, error)
}
