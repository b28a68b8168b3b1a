package domain

import "time"

// RiskLevel is one of the three bands partitioning the score range [0, 100].
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// LevelForScore maps a final score to its risk band. Bounds are inclusive:
// 0-40 Low, 41-70 Medium, 71-100 High.
func LevelForScore(score int) RiskLevel {
	switch {
	case score <= 40:
		return RiskLow
	case score <= 70:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// RecommendedAction returns the fixed action string for a band. These three
// strings are the only actions the system ever recommends.
func (l RiskLevel) RecommendedAction() string {
	switch l {
	case RiskLow:
		return "Monitor - Continue normal activities. Stay informed via alerts."
	case RiskMedium:
		return "Prepare - Review emergency plans. Secure property. Stay alert."
	default:
		return "Evacuate - Move to safety immediately. Follow authority instructions."
	}
}

// Severity is the alert severity channel label for a risk band.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertSeverity maps a risk band to its alert severity.
func (l RiskLevel) AlertSeverity() Severity {
	switch l {
	case RiskLow:
		return SeverityInfo
	case RiskMedium:
		return SeverityWarning
	default:
		return SeverityCritical
	}
}

// RiskAssessment is the fused result of a prediction and the rule-based
// safety checks. Immutable once computed. FinalScore is always in [0, 100]
// and RiskLevel is determined by it alone.
type RiskAssessment struct {
	RegionID           string                   `json:"region_id"`
	DisasterType       DisasterType             `json:"disaster_type"`
	MLRiskScore        int                      `json:"ml_risk_score"`
	RuleBonus          int                      `json:"rule_bonus"`
	FinalScore         int                      `json:"final_risk_score"`
	RiskLevel          RiskLevel                `json:"risk_level"`
	RiskProbability    float64                  `json:"risk_probability"`
	RecommendedAction  string                   `json:"recommended_action"`
	RuleAlerts         []string                 `json:"rule_alerts"`
	ClassProbabilities map[DisasterType]float64 `json:"class_probabilities"`
	ModelVersion       string                   `json:"model_version"`
	Confidence         float64                  `json:"confidence"`
	Timestamp          time.Time                `json:"timestamp"`
}
