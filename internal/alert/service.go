// Package alert turns qualifying risk assessments into persisted, delivered
// notifications, subject to a per-region cooldown.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/couchcryptid/disaster-warning-service/internal/observability"
	"github.com/couchcryptid/disaster-warning-service/internal/risk"
	"github.com/couchcryptid/disaster-warning-service/internal/store"
	"github.com/jonboulle/clockwork"
)

// DispatchStatus is the outcome of a GenerateAlert call. Rate limiting is a
// normal outcome, not an error.
type DispatchStatus string

const (
	StatusSent        DispatchStatus = "sent"
	StatusRateLimited DispatchStatus = "rate_limited"
)

// Dispatch is the result of GenerateAlert. Alert is populated only when the
// status is sent.
type Dispatch struct {
	Status   DispatchStatus `json:"status"`
	RegionID string         `json:"region_id"`
	Alert    *domain.Alert  `json:"alert,omitempty"`
}

// defaultChannel is the delivery channel every alert at least goes to.
const defaultChannel = "web"

// Service generates and manages disaster alerts. Construct one per process
// and share it across request handlers; the rate limiter inside carries the
// process-wide cooldown state.
type Service struct {
	limiter     *RateLimiter
	predictions store.PredictionStore
	alerts      store.AlertStore
	delivery    *DeliveryLog
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
}

// NewService wires the alert dispatcher. Persistence stores may be nil, in
// which case alerts are delivered without being recorded.
func NewService(limiter *RateLimiter, predictions store.PredictionStore, alerts store.AlertStore,
	delivery *DeliveryLog, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Service {
	return &Service{
		limiter:     limiter,
		predictions: predictions,
		alerts:      alerts,
		delivery:    delivery,
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
	}
}

// GenerateAlert dispatches a notification for a risk assessment. The region
// cooldown is checked and claimed atomically up front; persistence of the
// assessment and the alert is best-effort and never blocks delivery.
func (s *Service) GenerateAlert(ctx context.Context, assessment domain.RiskAssessment, region domain.Region) Dispatch {
	if !s.limiter.TryAcquire(region.ID) {
		s.metrics.AlertsDispatched.WithLabelValues(string(StatusRateLimited)).Inc()
		s.logger.Debug("alert suppressed by cooldown", "region_id", region.ID)
		return Dispatch{Status: StatusRateLimited, RegionID: region.ID}
	}

	now := s.clock.Now().UTC()
	alert := s.buildAlert(assessment, region, now)

	// Persist the assessment first so the alert can link back to it. Both
	// writes are best-effort: a storage outage must not cost a delivery.
	if s.predictions != nil {
		predictionID, err := s.predictions.Insert(ctx, assessment)
		if err != nil {
			s.metrics.PersistenceErrors.Inc()
			s.logger.Error("could not save prediction", "region_id", region.ID, "error", err)
		} else {
			alert.PredictionID = predictionID
		}
	}

	if s.alerts != nil {
		alertID, err := s.alerts.Insert(ctx, alert)
		if err != nil {
			s.metrics.PersistenceErrors.Inc()
			s.logger.Error("could not save alert", "region_id", region.ID, "error", err)
		} else {
			alert.ID = alertID
		}
	}

	s.deliver(alert, now)
	s.metrics.AlertsDispatched.WithLabelValues(string(StatusSent)).Inc()

	return Dispatch{Status: StatusSent, RegionID: region.ID, Alert: &alert}
}

func (s *Service) buildAlert(assessment domain.RiskAssessment, region domain.Region, now time.Time) domain.Alert {
	title := fmt.Sprintf("%s Risk: %s Alert - %s",
		assessment.RiskLevel, assessment.DisasterType, region.Name)
	message := fmt.Sprintf(
		"Disaster Type: %s\nRisk Score: %d/100 (%s)\nRegion: %s\nAction: %s\nConfidence: %.1f%%\nTime: %s",
		assessment.DisasterType, assessment.FinalScore, assessment.RiskLevel, region.Name,
		assessment.RecommendedAction, assessment.Confidence*100,
		now.Format("2006-01-02 15:04 UTC"))

	return domain.Alert{
		RegionID:          region.ID,
		AlertType:         assessment.DisasterType,
		Severity:          risk.SeverityOf(assessment),
		Title:             title,
		Message:           message,
		RecommendedAction: assessment.RecommendedAction,
		Status:            domain.AlertActive,
		DeliveredChannels: []string{defaultChannel},
		RiskScore:         assessment.FinalScore,
		CreatedAt:         now,
	}
}

// deliver pushes the alert to the operator-visible channel and the
// append-only delivery log. Log failures are reported, never propagated.
func (s *Service) deliver(alert domain.Alert, now time.Time) {
	s.logger.Info("alert delivered",
		"title", alert.Title,
		"severity", alert.Severity,
		"region_id", alert.RegionID,
		"channels", alert.DeliveredChannels,
	)
	if s.delivery == nil {
		return
	}
	if err := s.delivery.Append(alert, now); err != nil {
		s.logger.Error("could not append delivery log", "error", err)
	}
}

// ResolveAlert transitions an alert active→resolved and stamps the
// resolution time. Resolving an already-resolved alert is a no-op.
func (s *Service) ResolveAlert(ctx context.Context, alertID int64) error {
	if s.alerts == nil {
		return store.ErrAlertNotFound
	}
	if err := s.alerts.Resolve(ctx, alertID); err != nil {
		return err
	}
	s.logger.Info("alert resolved", "alert_id", alertID)
	return nil
}

// EscalateAlert signals escalation intent for an alert. It intentionally
// does not mutate persisted severity; additional notification channels would
// hook in here.
func (s *Service) EscalateAlert(_ context.Context, alertID int64, newSeverity domain.Severity) {
	s.logger.Info("alert escalation requested", "alert_id", alertID, "new_severity", newSeverity)
}

// ActiveAlerts returns active alerts, newest first.
func (s *Service) ActiveAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	if s.alerts == nil {
		return nil, nil
	}
	return s.alerts.Active(ctx, limit)
}

// AlertHistory returns past alerts, newest first, optionally filtered to one
// region.
func (s *Service) AlertHistory(ctx context.Context, regionID string, limit int) ([]domain.Alert, error) {
	if s.alerts == nil {
		return nil, nil
	}
	return s.alerts.History(ctx, regionID, limit)
}
