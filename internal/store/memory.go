package store

import (
	"context"
	"sort"
	"sync"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Memory bundles in-memory implementations of every store, for development
// and tests.
type Memory struct {
	Regions     *MemoryRegionStore
	Telemetry   *MemoryTelemetryStore
	Predictions *MemoryPredictionStore
	Alerts      *MemoryAlertStore
}

// NewMemory creates an empty in-memory store bundle.
func NewMemory(clock clockwork.Clock) *Memory {
	return &Memory{
		Regions:     NewMemoryRegionStore(clock),
		Telemetry:   NewMemoryTelemetryStore(),
		Predictions: NewMemoryPredictionStore(),
		Alerts:      NewMemoryAlertStore(clock),
	}
}

// MemoryRegionStore keeps regions in a mutex-guarded map.
type MemoryRegionStore struct {
	clock   clockwork.Clock
	mu      sync.RWMutex
	regions map[string]domain.Region
}

func NewMemoryRegionStore(clock clockwork.Clock) *MemoryRegionStore {
	return &MemoryRegionStore{clock: clock, regions: make(map[string]domain.Region)}
}

func (s *MemoryRegionStore) Upsert(_ context.Context, region domain.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if region.CreatedAt.IsZero() {
		region.CreatedAt = s.clock.Now().UTC()
	}
	s.regions[region.ID] = region
	return nil
}

func (s *MemoryRegionStore) Get(_ context.Context, id string) (domain.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	region, ok := s.regions[id]
	if !ok {
		return domain.Region{}, ErrRegionNotFound
	}
	return region, nil
}

func (s *MemoryRegionStore) List(_ context.Context) ([]domain.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Region, 0, len(s.regions))
	for _, r := range s.regions {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryTelemetryStore keeps telemetry per region in insertion order.
type MemoryTelemetryStore struct {
	mu      sync.RWMutex
	records map[string][]domain.TelemetryRecord
}

func NewMemoryTelemetryStore() *MemoryTelemetryStore {
	return &MemoryTelemetryStore{records: make(map[string][]domain.TelemetryRecord)}
}

func (s *MemoryTelemetryStore) Insert(_ context.Context, rec domain.TelemetryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.RegionID] = append(s.records[rec.RegionID], rec)
	return nil
}

func (s *MemoryTelemetryStore) LatestByRegion(_ context.Context, regionID string, limit int) ([]domain.TelemetryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.records[regionID]
	out := make([]domain.TelemetryRecord, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryPredictionStore keeps assessments with auto-incrementing IDs.
type MemoryPredictionStore struct {
	mu          sync.Mutex
	predictions []domain.RiskAssessment
	nextID      int64
}

func NewMemoryPredictionStore() *MemoryPredictionStore {
	return &MemoryPredictionStore{}
}

func (s *MemoryPredictionStore) Insert(_ context.Context, a domain.RiskAssessment) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.predictions = append(s.predictions, a)
	return s.nextID, nil
}

// Count reports how many assessments have been recorded.
func (s *MemoryPredictionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.predictions)
}

// MemoryAlertStore keeps alerts with auto-incrementing IDs and insertion
// order for newest-first queries.
type MemoryAlertStore struct {
	clock  clockwork.Clock
	mu     sync.RWMutex
	alerts map[int64]*domain.Alert
	order  []int64
	nextID int64
}

func NewMemoryAlertStore(clock clockwork.Clock) *MemoryAlertStore {
	return &MemoryAlertStore{clock: clock, alerts: make(map[int64]*domain.Alert)}
}

func (s *MemoryAlertStore) Insert(_ context.Context, alert domain.Alert) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	alert.ID = s.nextID
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = s.clock.Now().UTC()
	}
	s.alerts[alert.ID] = &alert
	s.order = append(s.order, alert.ID)
	return alert.ID, nil
}

func (s *MemoryAlertStore) Get(_ context.Context, id int64) (domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alert, ok := s.alerts[id]
	if !ok {
		return domain.Alert{}, ErrAlertNotFound
	}
	return *alert, nil
}

func (s *MemoryAlertStore) Resolve(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert, ok := s.alerts[id]
	if !ok {
		return ErrAlertNotFound
	}
	if alert.Status == domain.AlertResolved {
		return nil
	}
	now := s.clock.Now().UTC()
	alert.Status = domain.AlertResolved
	alert.ResolvedAt = &now
	return nil
}

func (s *MemoryAlertStore) Active(_ context.Context, limit int) ([]domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Alert
	// order is insertion order; walk backwards for newest-first.
	for i := len(s.order) - 1; i >= 0; i-- {
		alert := s.alerts[s.order[i]]
		if alert.Status != domain.AlertActive {
			continue
		}
		out = append(out, *alert)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryAlertStore) History(_ context.Context, regionID string, limit int) ([]domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Alert
	for i := len(s.order) - 1; i >= 0; i-- {
		alert := s.alerts[s.order[i]]
		if regionID != "" && alert.RegionID != regionID {
			continue
		}
		out = append(out, *alert)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
