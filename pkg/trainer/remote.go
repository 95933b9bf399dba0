package trainer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/soundprediction/relmark/pkg/classifier"
	"github.com/soundprediction/relmark/pkg/config"
	"github.com/soundprediction/relmark/pkg/types"
)

// RemoteEstimator delegates fitting to a training server. Fit posts the
// encoded fold to POST /fit and hands back an inference client for the fitted
// model, wrapped in a circuit breaker when one is configured.
type RemoteEstimator struct {
	inference  config.InferenceConfig
	breaker    config.CircuitBreakerConfig
	httpClient *http.Client
	logger     *slog.Logger
}

type fitRequest struct {
	InputIDs      [][]int `json:"input_ids"`
	AttentionMask [][]int `json:"attention_mask"`
	Labels        []int   `json:"labels"`
}

// NewRemoteEstimator creates an estimator bound to the configured inference
// endpoint.
func NewRemoteEstimator(inference config.InferenceConfig, breaker config.CircuitBreakerConfig, logger *slog.Logger) (*RemoteEstimator, error) {
	if inference.Endpoint == "" {
		return nil, fmt.Errorf("inference endpoint is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	timeout := time.Duration(inference.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &RemoteEstimator{
		inference:  inference,
		breaker:    breaker,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Fit implements Estimator.
func (e *RemoteEstimator) Fit(ctx context.Context, train *types.EncodedBatch) (classifier.Classifier, error) {
	reqBody, err := json.Marshal(fitRequest{
		InputIDs:      train.InputIDs,
		AttentionMask: train.AttentionMask,
		Labels:        train.Labels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fit request: %w", err)
	}

	endpoint := strings.TrimRight(e.inference.Endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint+"/fit", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create fit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.inference.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.inference.APIKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiError struct {
			Detail string `json:"detail"`
		}
		json.Unmarshal(body, &apiError)
		return nil, fmt.Errorf("fit failed (status %d): %s", resp.StatusCode, apiError.Detail)
	}

	model, err := classifier.NewHTTPClient(classifier.HTTPConfig{
		Endpoint: e.inference.Endpoint,
		APIKey:   e.inference.APIKey,
		Timeout:  time.Duration(e.inference.Timeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}

	if e.breaker.Enabled {
		return classifier.NewCircuitBreakerClient(model, e.breaker, e.logger, "inference"), nil
	}
	return model, nil
}
