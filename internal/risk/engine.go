// Package risk fuses a machine-learned disaster prediction with deterministic
// safety-threshold rules into a single bounded risk assessment.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Engine scores telemetry against a prediction and the safety-threshold
// table. It holds no mutable state; independent calls may run concurrently.
type Engine struct {
	thresholds []Threshold
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewEngine creates an Engine with the default threshold table.
func NewEngine(clock clockwork.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		thresholds: DefaultThresholds(),
		clock:      clock,
		logger:     logger,
	}
}

// WithThresholds replaces the safety-threshold table. Intended for embedding
// applications that tune per-parameter limits; the shipped table is the
// operational default.
func (e *Engine) WithThresholds(thresholds []Threshold) *Engine {
	e.thresholds = thresholds
	return e
}

// Assess obtains a prediction for the feature vector and fuses it with the
// raw telemetry. Predictor unavailability is recovered locally via the rule
// fallback and never returned as an error.
func (e *Engine) Assess(ctx context.Context, predictor domain.Predictor, features domain.FeatureVector, rec domain.TelemetryRecord) domain.RiskAssessment {
	var pred domain.Prediction
	if predictor == nil {
		pred = FallbackPrediction(rec)
	} else {
		var err error
		pred, err = predictor.Predict(ctx, features)
		if err != nil {
			e.logger.Warn("model prediction unavailable, using rule fallback",
				"region_id", rec.RegionID, "error", err)
			pred = FallbackPrediction(rec)
		}
	}
	return e.Score(pred, rec)
}

// Score combines a prediction's base score with the rule bonus from the
// safety-threshold table. The final score is an integer clamped to [0, 100]
// and the risk band, action, and confidence follow from it.
func (e *Engine) Score(pred domain.Prediction, rec domain.TelemetryRecord) domain.RiskAssessment {
	bonus, ruleAlerts := e.ruleBonus(rec)

	final := pred.RiskScore + bonus
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	level := domain.LevelForScore(final)

	return domain.RiskAssessment{
		RegionID:           rec.RegionID,
		DisasterType:       pred.DisasterType,
		MLRiskScore:        pred.RiskScore,
		RuleBonus:          bonus,
		FinalScore:         final,
		RiskLevel:          level,
		RiskProbability:    pred.RiskProbability,
		RecommendedAction:  level.RecommendedAction(),
		RuleAlerts:         ruleAlerts,
		ClassProbabilities: pred.ClassProbabilities,
		ModelVersion:       pred.ModelVersion,
		Confidence:         math.Round(pred.RiskProbability*10000) / 10000,
		Timestamp:          e.clock.Now().UTC(),
	}
}

// ruleBonus evaluates every threshold parameter independently against the
// reported readings. Danger crossings add 20 points, warning-only crossings
// add 10; unreported readings contribute nothing.
func (e *Engine) ruleBonus(rec domain.TelemetryRecord) (int, []string) {
	bonus := 0
	var alerts []string

	for _, t := range e.thresholds {
		value, ok := domain.Reading(t.read(rec))
		if !ok {
			continue
		}
		switch {
		case t.crossed(value, t.Danger):
			bonus += dangerBonus
			alerts = append(alerts, fmt.Sprintf("CRITICAL: %s at %g (danger threshold: %g)",
				t.Parameter, value, t.Danger))
		case t.crossed(value, t.Warning):
			bonus += warningBonus
			alerts = append(alerts, fmt.Sprintf("WARNING: %s at %g (warning threshold: %g)",
				t.Parameter, value, t.Warning))
		}
	}
	return bonus, alerts
}

// ShouldTriggerAlert reports whether an assessment qualifies for an alert:
// the final score must exceed the Low band and the classification must name
// an actual hazard.
func ShouldTriggerAlert(a domain.RiskAssessment) bool {
	return a.FinalScore > 40 && a.DisasterType != domain.DisasterNone
}

// SeverityOf maps an assessment's risk band to its alert severity.
func SeverityOf(a domain.RiskAssessment) domain.Severity {
	return a.RiskLevel.AlertSeverity()
}
