package domain

import "time"

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

// Alert is a persisted, delivered notification for a qualifying risk
// assessment. Status only ever moves active→resolved.
type Alert struct {
	ID                int64        `json:"id,omitempty"`
	PredictionID      int64        `json:"prediction_id,omitempty"`
	RegionID          string       `json:"region_id"`
	AlertType         DisasterType `json:"alert_type"`
	Severity          Severity     `json:"severity"`
	Title             string       `json:"title"`
	Message           string       `json:"message"`
	RecommendedAction string       `json:"recommended_action"`
	Status            AlertStatus  `json:"status"`
	DeliveredChannels []string     `json:"delivered_channels"`
	RiskScore         int          `json:"risk_score"`
	CreatedAt         time.Time    `json:"created_at"`
	ResolvedAt        *time.Time   `json:"resolved_at,omitempty"`
}
