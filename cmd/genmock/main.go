// Command genmock generates reproducible telemetry fixtures for the test
// suites. It runs the actual feature and risk packages over the generated
// records so the assessed fixture matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -raw-out data/mock/telemetry_raw.json \
//	  -assessed-out data/mock/telemetry_assessed.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/couchcryptid/disaster-warning-service/internal/feature"
	"github.com/couchcryptid/disaster-warning-service/internal/risk"
)

var baseTime = time.Date(2025, time.July, 14, 0, 0, 0, 0, time.UTC)

// regionDef shapes the synthetic readings for one region.
type regionDef struct {
	region  domain.Region
	weather string // calm, flood, cyclone, heatwave, quake
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawOut := flag.String("raw-out", "", "output path for raw telemetry JSON fixture")
	assessedOut := flag.String("assessed-out", "", "output path for assessed JSON fixture")
	hours := flag.Int("hours", 24, "hours of hourly readings per region")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	if *rawOut == "" || *assessedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -assessed-out")
	}

	// Fixed clock so IngestedAt and assessment timestamps are reproducible.
	fixed := clockwork.NewFakeClockAt(baseTime.Add(48 * time.Hour))
	domain.SetClock(fixed)
	defer domain.SetClock(nil)

	defs := []regionDef{
		{region: domain.Region{ID: "delta-01", Name: "River Delta", Elevation: 8, FloodProne: true}, weather: "flood"},
		{region: domain.Region{ID: "coast-02", Name: "Coastal Strip", Elevation: 15, CycloneProne: true}, weather: "cyclone"},
		{region: domain.Region{ID: "plain-03", Name: "Inland Plain", Elevation: 240}, weather: "heatwave"},
		{region: domain.Region{ID: "ridge-04", Name: "Fault Ridge", Elevation: 900, EarthquakeZone: 4}, weather: "quake"},
		{region: domain.Region{ID: "vale-05", Name: "Quiet Vale", Elevation: 120}, weather: "calm"},
	}

	rng := rand.New(rand.NewSource(*seed))

	var raws []domain.RawTelemetry
	var records []domain.TelemetryRecord
	regions := make(map[string]domain.Region, len(defs))

	for _, def := range defs {
		regions[def.region.ID] = def.region
		for h := 0; h < *hours; h++ {
			raw := synthesize(def, baseTime.Add(time.Duration(h)*time.Hour), rng)
			rec, err := domain.NewTelemetryRecord(raw, nil)
			if err != nil {
				return fmt.Errorf("generated invalid record for %s: %w", def.region.ID, err)
			}
			raws = append(raws, raw)
			records = append(records, rec)
		}
	}

	vectors := feature.BuildBatch(records, regions)

	engine := risk.NewEngine(fixed, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	assessments := make([]domain.RiskAssessment, len(records))
	alerting := 0
	for i, rec := range records {
		assessments[i] = engine.Assess(context.Background(), nil, vectors[i], rec)
		if risk.ShouldTriggerAlert(assessments[i]) {
			alerting++
		}
	}

	if err := writeJSON(*rawOut, raws); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s (%d records)", *rawOut, len(raws))

	if err := writeJSON(*assessedOut, assessments); err != nil {
		return fmt.Errorf("writing assessed fixture: %w", err)
	}
	log.Printf("wrote assessed fixture: %s (%d alerting)", *assessedOut, alerting)

	return nil
}

// synthesize produces one hour of readings. Scenario regions ramp toward
// threshold-crossing values in the back half of the window.
func synthesize(def regionDef, ts time.Time, rng *rand.Rand) domain.RawTelemetry {
	raw := domain.RawTelemetry{
		RegionID:      def.region.ID,
		Timestamp:     ts.Format(time.RFC3339),
		TemperatureC:  domain.Float(24 + rng.Float64()*6),
		RainfallMM:    domain.Float(rng.Float64() * 10),
		HumidityPct:   domain.Float(55 + rng.Float64()*20),
		WindSpeedKMH:  domain.Float(10 + rng.Float64()*15),
		PressureHPa:   domain.Float(1008 + rng.Float64()*8),
		RiverLevelM:   domain.Float(2 + rng.Float64()),
		SeismicSignal: domain.Float(rng.Float64() * 0.5),
		Source:        "genmock",
	}

	ramp := float64(ts.Hour()) / 24.0
	if ts.Hour() < 12 {
		return raw
	}

	switch def.weather {
	case "flood":
		raw.RainfallMM = domain.Float(40 + ramp*140)
		raw.RiverLevelM = domain.Float(3 + ramp*5)
	case "cyclone":
		raw.WindSpeedKMH = domain.Float(40 + ramp*80)
		raw.PressureHPa = domain.Float(1005 - ramp*30)
	case "heatwave":
		raw.TemperatureC = domain.Float(34 + ramp*13)
		raw.HumidityPct = domain.Float(20 + rng.Float64()*10)
	case "quake":
		raw.SeismicSignal = domain.Float(ramp * 4)
	}
	return raw
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
