package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soundprediction/relmark/pkg/types"
)

// HTTPClient talks to a remote inference server exposing the classification
// model over JSON. The server contract is POST /predict with the encoded
// batch and GET /health.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// HTTPConfig configures a remote classifier client.
type HTTPConfig struct {
	Endpoint string        `json:"endpoint"`
	APIKey   string        `json:"api_key"`
	Timeout  time.Duration `json:"timeout"`
}

type predictRequest struct {
	InputIDs      [][]int `json:"input_ids"`
	AttentionMask [][]int `json:"attention_mask"`
}

type predictResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// NewHTTPClient creates a remote classifier client.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Predict implements Classifier.
func (c *HTTPClient) Predict(ctx context.Context, batch *types.EncodedBatch) ([]Prediction, error) {
	if batch == nil || batch.Size() == 0 {
		return []Prediction{}, nil
	}

	reqBody, err := json.Marshal(predictRequest{
		InputIDs:      batch.InputIDs,
		AttentionMask: batch.AttentionMask,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predict", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiError struct {
			Detail string `json:"detail"`
		}
		json.Unmarshal(body, &apiError)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, apiError.Detail)
	}

	var response predictResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(response.Predictions) != batch.Size() {
		return nil, fmt.Errorf("server returned %d predictions for %d rows", len(response.Predictions), batch.Size())
	}
	return response.Predictions, nil
}

// Health implements Classifier.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// Close implements Classifier.
func (c *HTTPClient) Close() error {
	return nil
}
