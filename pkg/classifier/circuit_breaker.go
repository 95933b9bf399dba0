package classifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/soundprediction/relmark/pkg/config"
	"github.com/soundprediction/relmark/pkg/types"
)

// CircuitBreakerClient wraps a Classifier with circuit breaking logic so a
// flapping inference server fails fast instead of stalling whole folds.
type CircuitBreakerClient struct {
	client Classifier
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
	name   string
}

// NewCircuitBreakerClient creates a new circuit breaker classifier.
func NewCircuitBreakerClient(client Classifier, cfg config.CircuitBreakerConfig, logger *slog.Logger, name string) *CircuitBreakerClient {
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &CircuitBreakerClient{
		client: client,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
		name:   name,
	}
}

// Predict implements Classifier.
func (c *CircuitBreakerClient) Predict(ctx context.Context, batch *types.EncodedBatch) ([]Prediction, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Predict(ctx, batch)
	})
	if err != nil {
		return nil, err
	}
	return resp.([]Prediction), nil
}

// Health implements Classifier.
func (c *CircuitBreakerClient) Health(ctx context.Context) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.client.Health(ctx)
	})
	return err
}

// Close implements Classifier.
func (c *CircuitBreakerClient) Close() error {
	return c.client.Close()
}
