package model

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/couchcryptid/disaster-warning-service/internal/observability"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting())
}

func testFeatures() domain.FeatureVector {
	return domain.FeatureVector{
		RegionID:          "delta-01",
		Timestamp:         "2025-07-14T09:00:00Z",
		Values:            map[string]float64{"rainfall_mm": 120, "river_level_m": 6},
		ElevationCategory: "coastal",
	}
}

func TestClient_Predict_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			RegionID          string             `json:"region_id"`
			Timestamp         string             `json:"timestamp"`
			Features          map[string]float64 `json:"features"`
			ElevationCategory string             `json:"elevation_category"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "delta-01", req.RegionID)
		assert.InDelta(t, 120, req.Features["rainfall_mm"], 1e-9)
		assert.Equal(t, "coastal", req.ElevationCategory)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"disaster_type": "Flood",
			"risk_probability": 0.82,
			"risk_score": 82,
			"class_probabilities": {"Flood": 0.82, "None": 0.1},
			"model_version": "gbm_v3"
		}`))
	}))
	defer srv.Close()

	pred, err := testClient(srv.URL).Predict(context.Background(), testFeatures())
	require.NoError(t, err)

	assert.Equal(t, domain.DisasterFlood, pred.DisasterType)
	assert.InDelta(t, 0.82, pred.RiskProbability, 1e-9)
	assert.Equal(t, 82, pred.RiskScore)
	assert.Equal(t, "gbm_v3", pred.ModelVersion)
	assert.InDelta(t, 0.82, pred.ClassProbabilities[domain.DisasterFlood], 1e-9)
}

func TestClient_Predict_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Predict(context.Background(), testFeatures())
	assert.ErrorIs(t, err, domain.ErrPredictorUnavailable)
}

func TestClient_Predict_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Predict(context.Background(), testFeatures())
	assert.ErrorIs(t, err, domain.ErrPredictorUnavailable)
}

func TestClient_Predict_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // shut down immediately so the address refuses connections

	_, err := testClient(srv.URL).Predict(context.Background(), testFeatures())
	assert.ErrorIs(t, err, domain.ErrPredictorUnavailable)
}

func TestClient_Predict_ContextCancelled(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testClient(srv.URL).Predict(ctx, testFeatures())
	assert.ErrorIs(t, err, domain.ErrPredictorUnavailable)
}
