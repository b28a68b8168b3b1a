package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/disaster-warning-service/internal/alert"
	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/couchcryptid/disaster-warning-service/internal/feature"
	"github.com/couchcryptid/disaster-warning-service/internal/observability"
	"github.com/couchcryptid/disaster-warning-service/internal/risk"
	"github.com/couchcryptid/disaster-warning-service/internal/store"
)

// TelemetryAssessor parses, validates, and scores batches of raw telemetry.
// It is the transform stage of the pipeline: feature derivation runs over the
// whole batch so that cross-record statistics see every reading.
type TelemetryAssessor struct {
	regions   store.RegionStore
	telemetry store.TelemetryStore
	engine    *risk.Engine
	predictor domain.Predictor
	alerts    *alert.Service
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTelemetryAssessor creates the assess stage. predictor may be nil, in
// which case every record is scored by the rule-based fallback.
func NewTelemetryAssessor(
	regions store.RegionStore,
	telemetry store.TelemetryStore,
	engine *risk.Engine,
	predictor domain.Predictor,
	alerts *alert.Service,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *TelemetryAssessor {
	return &TelemetryAssessor{
		regions:   regions,
		telemetry: telemetry,
		engine:    engine,
		predictor: predictor,
		alerts:    alerts,
		logger:    logger,
		metrics:   metrics,
	}
}

// AssessBatch implements Assessor. Malformed events land in Rejected and do
// not abort the batch; every successfully parsed event produces exactly one
// assessment.
func (a *TelemetryAssessor) AssessBatch(ctx context.Context, raws []domain.RawEvent) Result {
	result := Result{
		Assessments: make([]domain.RiskAssessment, 0, len(raws)),
		Handled:     make([]domain.RawEvent, 0, len(raws)),
	}

	records := make([]domain.TelemetryRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := domain.ParseRawEvent(raw)
		if err != nil {
			a.logger.Warn("telemetry rejected", "error", err,
				"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
			result.Rejected = append(result.Rejected, raw)
			continue
		}
		records = append(records, rec)
		result.Handled = append(result.Handled, raw)
	}

	if len(records) == 0 {
		return result
	}

	a.persistTelemetry(ctx, records)

	regions := a.lookupRegions(ctx, records)
	vectors := feature.BuildBatch(records, regions)

	for i, rec := range records {
		assessment := a.engine.Assess(ctx, a.predictor, vectors[i], rec)
		result.Assessments = append(result.Assessments, assessment)

		if risk.ShouldTriggerAlert(assessment) {
			a.alerts.GenerateAlert(ctx, assessment, regions[rec.RegionID])
		}
	}

	return result
}

// persistTelemetry stores raw observations for audit and replay. Storage
// failures are logged and counted but never block assessment.
func (a *TelemetryAssessor) persistTelemetry(ctx context.Context, records []domain.TelemetryRecord) {
	if a.telemetry == nil {
		return
	}
	for _, rec := range records {
		if err := a.telemetry.Insert(ctx, rec); err != nil {
			a.metrics.PersistenceErrors.Inc()
			a.logger.Error("persist telemetry failed", "error", err, "region_id", rec.RegionID)
		}
	}
}

// lookupRegions resolves each distinct region in the batch, degrading to a
// stand-in region when metadata is missing.
func (a *TelemetryAssessor) lookupRegions(ctx context.Context, records []domain.TelemetryRecord) map[string]domain.Region {
	regions := make(map[string]domain.Region)
	for _, rec := range records {
		if _, ok := regions[rec.RegionID]; ok {
			continue
		}
		regions[rec.RegionID] = store.RegionOrFallback(ctx, a.regions, rec.RegionID)
	}
	return regions
}
