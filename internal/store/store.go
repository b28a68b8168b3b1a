// Package store persists regions, telemetry, predictions, and alerts.
//
// Every write the alert dispatcher performs is best-effort from its point of
// view: a failed insert is logged upstream and never blocks delivery. The
// interfaces are narrow enough that the Postgres and in-memory
// implementations stay interchangeable.
package store

import (
	"context"
	"errors"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
)

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrAlertNotFound  = errors.New("alert not found")
)

// RegionStore is the registry of monitored regions.
type RegionStore interface {
	Upsert(ctx context.Context, region domain.Region) error
	Get(ctx context.Context, id string) (domain.Region, error)
	List(ctx context.Context) ([]domain.Region, error)
}

// TelemetryStore records raw observations as they are ingested.
type TelemetryStore interface {
	Insert(ctx context.Context, rec domain.TelemetryRecord) error
	LatestByRegion(ctx context.Context, regionID string, limit int) ([]domain.TelemetryRecord, error)
}

// PredictionStore records risk assessments. Insert returns the storage
// identifier so alerts can link back to the assessment that produced them.
type PredictionStore interface {
	Insert(ctx context.Context, a domain.RiskAssessment) (int64, error)
}

// AlertStore manages alert records and their one-way active→resolved
// lifecycle. Active and History return newest-first.
type AlertStore interface {
	Insert(ctx context.Context, alert domain.Alert) (int64, error)
	Get(ctx context.Context, id int64) (domain.Alert, error)
	// Resolve stamps the resolution time. Resolving an already-resolved
	// alert is a no-op, not an error.
	Resolve(ctx context.Context, id int64) error
	Active(ctx context.Context, limit int) ([]domain.Alert, error)
	// History returns alerts for one region, or all regions when regionID
	// is empty.
	History(ctx context.Context, regionID string, limit int) ([]domain.Alert, error)
}

// RegionOrFallback looks a region up and degrades to the minimal stand-in
// when it is unknown or the lookup fails. Unknown regions never block the
// alert path.
func RegionOrFallback(ctx context.Context, regions RegionStore, id string) domain.Region {
	if regions == nil {
		return domain.FallbackRegion(id)
	}
	region, err := regions.Get(ctx, id)
	if err != nil {
		return domain.FallbackRegion(id)
	}
	return region
}
