// Package model is the HTTP client for the external ML inference service.
// It implements domain.Predictor; any failure to obtain a prediction is
// reported as predictor unavailability so callers fall back to the rule
// ladder.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/disaster-warning-service/internal/domain"
	"github.com/couchcryptid/disaster-warning-service/internal/observability"
)

// Client implements domain.Predictor against the model service's /predict
// endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a model service client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// predictRequest is the wire form of a feature vector.
type predictRequest struct {
	RegionID          string             `json:"region_id"`
	Timestamp         string             `json:"timestamp"`
	Features          map[string]float64 `json:"features"`
	ElevationCategory string             `json:"elevation_category"`
}

// predictResponse mirrors the model service's prediction payload.
type predictResponse struct {
	DisasterType       string             `json:"disaster_type"`
	RiskProbability    float64            `json:"risk_probability"`
	RiskScore          int                `json:"risk_score"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
	ModelVersion       string             `json:"model_version"`
}

// Predict requests a classification for the feature vector. Transport
// errors, non-2xx statuses, and malformed payloads all wrap
// domain.ErrPredictorUnavailable.
func (c *Client) Predict(ctx context.Context, features domain.FeatureVector) (domain.Prediction, error) {
	body, err := json.Marshal(predictRequest{
		RegionID:          features.RegionID,
		Timestamp:         features.Timestamp,
		Features:          features.Values,
		ElevationCategory: features.ElevationCategory,
	})
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ModelAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ModelRequests.WithLabelValues("fallback").Inc()
		return domain.Prediction{}, fmt.Errorf("%w: %v", domain.ErrPredictorUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ModelRequests.WithLabelValues("fallback").Inc()
		payload, _ := io.ReadAll(resp.Body)
		return domain.Prediction{}, fmt.Errorf("%w: model service status %d: %s",
			domain.ErrPredictorUnavailable, resp.StatusCode, payload)
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		c.metrics.ModelRequests.WithLabelValues("fallback").Inc()
		return domain.Prediction{}, fmt.Errorf("%w: decode prediction: %v", domain.ErrPredictorUnavailable, err)
	}

	c.metrics.ModelRequests.WithLabelValues("success").Inc()

	classProbs := make(map[domain.DisasterType]float64, len(pr.ClassProbabilities))
	for label, p := range pr.ClassProbabilities {
		classProbs[domain.DisasterType(label)] = p
	}

	return domain.Prediction{
		DisasterType:       domain.DisasterType(pr.DisasterType),
		RiskProbability:    pr.RiskProbability,
		RiskScore:          pr.RiskScore,
		ClassProbabilities: classProbs,
		ModelVersion:       pr.ModelVersion,
	}, nil
}
