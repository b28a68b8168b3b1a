package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/lib/pq"
)

// Postgres bundles PostgreSQL-backed implementations of every store over one
// connection pool. Schema lives in migrations/ and is applied with
// cmd/migrate.
type Postgres struct {
	Regions     *PostgresRegionStore
	Telemetry   *PostgresTelemetryStore
	Predictions *PostgresPredictionStore
	Alerts      *PostgresAlertStore
}

// NewPostgres creates the store bundle over an open connection pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{
		Regions:     &PostgresRegionStore{db: db},
		Telemetry:   &PostgresTelemetryStore{db: db},
		Predictions: &PostgresPredictionStore{db: db},
		Alerts:      &PostgresAlertStore{db: db},
	}
}

// PostgresRegionStore persists regions.
type PostgresRegionStore struct {
	db *sql.DB
}

func (s *PostgresRegionStore) Upsert(ctx context.Context, region domain.Region) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO regions (id, name, latitude, longitude, elevation, flood_prone, cyclone_prone, earthquake_zone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
			elevation = EXCLUDED.elevation, flood_prone = EXCLUDED.flood_prone,
			cyclone_prone = EXCLUDED.cyclone_prone, earthquake_zone = EXCLUDED.earthquake_zone`,
		region.ID, region.Name, region.Latitude, region.Longitude, region.Elevation,
		region.FloodProne, region.CycloneProne, region.EarthquakeZone,
	)
	return err
}

func (s *PostgresRegionStore) Get(ctx context.Context, id string) (domain.Region, error) {
	var r domain.Region
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, latitude, longitude, elevation, flood_prone, cyclone_prone, earthquake_zone, created_at
		FROM regions WHERE id = $1`, id,
	).Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude, &r.Elevation,
		&r.FloodProne, &r.CycloneProne, &r.EarthquakeZone, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Region{}, ErrRegionNotFound
	}
	if err != nil {
		return domain.Region{}, err
	}
	return r, nil
}

func (s *PostgresRegionStore) List(ctx context.Context) ([]domain.Region, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, latitude, longitude, elevation, flood_prone, cyclone_prone, earthquake_zone, created_at
		FROM regions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Region
	for rows.Next() {
		var r domain.Region
		if err := rows.Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude, &r.Elevation,
			&r.FloodProne, &r.CycloneProne, &r.EarthquakeZone, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PostgresTelemetryStore persists raw observations.
type PostgresTelemetryStore struct {
	db *sql.DB
}

func (s *PostgresTelemetryStore) Insert(ctx context.Context, rec domain.TelemetryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO telemetry (region_id, ts, temperature_c, rainfall_mm, humidity_pct,
			wind_speed_kmh, pressure_hpa, river_level_m, seismic_signal, rainfall_gauge_mm, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.RegionID, rec.Timestamp, rec.TemperatureC, rec.RainfallMM, rec.HumidityPct,
		rec.WindSpeedKMH, rec.PressureHPa, rec.RiverLevelM, rec.SeismicSignal,
		rec.GaugeRainMM, rec.Source,
	)
	return err
}

func (s *PostgresTelemetryStore) LatestByRegion(ctx context.Context, regionID string, limit int) ([]domain.TelemetryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region_id, ts, temperature_c, rainfall_mm, humidity_pct, wind_speed_kmh,
			pressure_hpa, river_level_m, seismic_signal, rainfall_gauge_mm, source
		FROM telemetry WHERE region_id = $1 ORDER BY ts DESC LIMIT $2`, regionID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.TelemetryRecord
	for rows.Next() {
		var rec domain.TelemetryRecord
		var source sql.NullString
		if err := rows.Scan(&rec.RegionID, &rec.Timestamp, &rec.TemperatureC, &rec.RainfallMM,
			&rec.HumidityPct, &rec.WindSpeedKMH, &rec.PressureHPa, &rec.RiverLevelM,
			&rec.SeismicSignal, &rec.GaugeRainMM, &source); err != nil {
			return nil, err
		}
		rec.Source = source.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// PostgresPredictionStore persists risk assessments.
type PostgresPredictionStore struct {
	db *sql.DB
}

func (s *PostgresPredictionStore) Insert(ctx context.Context, a domain.RiskAssessment) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO predictions (region_id, ts, disaster_type, risk_probability, risk_score,
			rule_bonus, risk_level, recommended_action, model_version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		a.RegionID, a.Timestamp, string(a.DisasterType), a.RiskProbability, a.FinalScore,
		a.RuleBonus, string(a.RiskLevel), a.RecommendedAction, a.ModelVersion,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// PostgresAlertStore persists alerts.
type PostgresAlertStore struct {
	db *sql.DB
}

func (s *PostgresAlertStore) Insert(ctx context.Context, alert domain.Alert) (int64, error) {
	var predictionID any
	if alert.PredictionID != 0 {
		predictionID = alert.PredictionID
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO alerts (prediction_id, region_id, alert_type, severity, title, message,
			recommended_action, status, delivered_channels, risk_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		predictionID, alert.RegionID, string(alert.AlertType), string(alert.Severity),
		alert.Title, alert.Message, alert.RecommendedAction, string(alert.Status),
		pq.Array(alert.DeliveredChannels), alert.RiskScore, alert.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PostgresAlertStore) Get(ctx context.Context, id int64) (domain.Alert, error) {
	alert, err := s.scanAlert(s.db.QueryRowContext(ctx, selectAlert+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Alert{}, ErrAlertNotFound
	}
	return alert, err
}

func (s *PostgresAlertStore) Resolve(ctx context.Context, id int64) error {
	// The status guard makes Resolve idempotent: re-resolving matches zero
	// rows only when the alert exists and is already resolved.
	result, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET status = 'resolved', resolved_at = now()
		WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresAlertStore) Active(ctx context.Context, limit int) ([]domain.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		selectAlert+` WHERE status = 'active' ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return s.collectAlerts(rows)
}

func (s *PostgresAlertStore) History(ctx context.Context, regionID string, limit int) ([]domain.Alert, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if regionID == "" {
		rows, err = s.db.QueryContext(ctx,
			selectAlert+` ORDER BY created_at DESC LIMIT $1`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx,
			selectAlert+` WHERE region_id = $1 ORDER BY created_at DESC LIMIT $2`, regionID, limit)
	}
	if err != nil {
		return nil, err
	}
	return s.collectAlerts(rows)
}

const selectAlert = `
	SELECT id, prediction_id, region_id, alert_type, severity, title, message,
		recommended_action, status, delivered_channels, risk_score, created_at, resolved_at
	FROM alerts`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresAlertStore) scanAlert(row rowScanner) (domain.Alert, error) {
	var (
		alert        domain.Alert
		predictionID sql.NullInt64
		resolvedAt   sql.NullTime
		channels     pq.StringArray
	)
	err := row.Scan(&alert.ID, &predictionID, &alert.RegionID, &alert.AlertType,
		&alert.Severity, &alert.Title, &alert.Message, &alert.RecommendedAction,
		&alert.Status, &channels, &alert.RiskScore, &alert.CreatedAt, &resolvedAt)
	if err != nil {
		return domain.Alert{}, err
	}
	alert.PredictionID = predictionID.Int64
	alert.DeliveredChannels = channels
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		alert.ResolvedAt = &t
	}
	return alert, nil
}

func (s *PostgresAlertStore) collectAlerts(rows *sql.Rows) ([]domain.Alert, error) {
	defer func() { _ = rows.Close() }()
	var out []domain.Alert
	for rows.Next() {
		alert, err := s.scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, alert)
	}
	return out, rows.Err()
}
