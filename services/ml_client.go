package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Conservative manual-estimation fallbacks used when the density oracle is
// unreachable. Submissions built from these are flagged for review.
const (
	fallbackMeanDensity  = 10.0
	fallbackDetected     = 0
	mlRequestTimeout     = 60 * time.Second
	defaultMLOracleURL   = "https://mangrove-density.onrender.com"
	lowDetectedThreshold = 3
)

// DensityAnalysis is the oracle's verdict on a set of plantation images.
type DensityAnalysis struct {
	IndividualDensities []float64 `json:"individual_densities"`
	MeanDensity         float64   `json:"mean_density"`
	DetectedCount       int       `json:"detected_count"`
	DuplicateImages     int       `json:"duplicate_images"`
	LowCountImages      int       `json:"low_count_images"`
}

// Anomalies lists human-readable warnings for reported oddities. The policy
// is warn-and-proceed, never hard-reject.
func (a *DensityAnalysis) Anomalies() []string {
	var warnings []string
	if a.DuplicateImages > 0 {
		warnings = append(warnings, fmt.Sprintf("density analysis flagged %d duplicate image(s)", a.DuplicateImages))
	}
	if a.LowCountImages > 0 || a.DetectedCount < lowDetectedThreshold {
		warnings = append(warnings, "density analysis detected unusually low plant counts")
	}
	return warnings
}

// MLClient analyzes plantation survey images. Implementations are unreliable
// by contract: callers must fall back on error.
type MLClient interface {
	AnalyzeImages(ctx context.Context, imagePaths []string) (*DensityAnalysis, error)
}

// HTTPMLClient calls the hosted density inference service.
type HTTPMLClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPMLClient constructs an HTTPMLClient from ML_ORACLE_URL.
func NewHTTPMLClient(client *http.Client) *HTTPMLClient {
	if client == nil {
		client = &http.Client{Timeout: mlRequestTimeout}
	}
	baseURL := os.Getenv("ML_ORACLE_URL")
	if baseURL == "" {
		baseURL = defaultMLOracleURL
	}
	return &HTTPMLClient{baseURL: baseURL, client: client}
}

// AnalyzeImages submits stored image paths for density inference.
func (c *HTTPMLClient) AnalyzeImages(ctx context.Context, imagePaths []string) (*DensityAnalysis, error) {
	payload, err := json.Marshal(map[string]interface{}{"files": imagePaths})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ml oracle returned status %d: %s", resp.StatusCode, string(body))
	}

	var analysis DensityAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("failed to decode ml oracle response: %w", err)
	}
	return &analysis, nil
}

// FallbackAnalysis returns the conservative constants used when the oracle
// is unavailable.
func FallbackAnalysis() *DensityAnalysis {
	return &DensityAnalysis{
		MeanDensity:   fallbackMeanDensity,
		DetectedCount: fallbackDetected,
	}
}
