package risk

import "github.com/couchcryptid/disaster-warning-service/internal/domain"

// FallbackModelVersion tags predictions produced by the rule ladder instead
// of the model service.
const FallbackModelVersion = "rule_based_v1"

// FallbackPrediction substitutes for the model service using a fixed
// priority-ordered rule ladder over the raw readings. The first matching
// condition wins; later conditions are not evaluated. Unreported readings
// take neutral defaults (0, or 1013 hPa for pressure).
func FallbackPrediction(rec domain.TelemetryRecord) domain.Prediction {
	rainfall := readingOr(rec.RainfallMM, 0)
	river := readingOr(rec.RiverLevelM, 0)
	wind := readingOr(rec.WindSpeedKMH, 0)
	pressure := readingOr(rec.PressureHPa, 1013)
	seismic := readingOr(rec.SeismicSignal, 0)
	temperature := readingOr(rec.TemperatureC, 0)

	score := 0
	disaster := domain.DisasterNone

	switch {
	case rainfall > 100 && river > 5:
		score, disaster = 75, domain.DisasterFlood
	case wind > 80 && pressure < 990:
		score, disaster = 80, domain.DisasterCyclone
	case seismic > 2.0:
		score, disaster = 70, domain.DisasterEarthquake
	case temperature > 42:
		score, disaster = 65, domain.DisasterHeatwave
	case rainfall > 60:
		score, disaster = 45, domain.DisasterFlood
	case wind > 50:
		score, disaster = 50, domain.DisasterCyclone
	}

	return domain.Prediction{
		DisasterType:       disaster,
		RiskProbability:    float64(score) / 100.0,
		RiskScore:          score,
		ClassProbabilities: map[domain.DisasterType]float64{disaster: float64(score) / 100.0},
		ModelVersion:       FallbackModelVersion,
	}
}

func readingOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
