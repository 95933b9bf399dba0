package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/relmark/pkg/config"
	"github.com/soundprediction/relmark/pkg/types"
)

func sampleBatch() *types.EncodedBatch {
	return &types.EncodedBatch{
		InputIDs:      [][]int{{101, 5, 6, 102}, {101, 7, 102, 0}},
		AttentionMask: [][]int{{1, 1, 1, 1}, {1, 1, 1, 0}},
		Labels:        []int{1, 0},
		SeqLen:        4,
	}
}

func TestArgmax(t *testing.T) {
	assert.Equal(t, 2, Argmax([]float64{0.1, 0.3, 0.6}))
	assert.Equal(t, 0, Argmax([]float64{0.9, 0.05, 0.05}))
	assert.Equal(t, -1, Argmax(nil))
}

func TestHTTPClientPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/predict", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.InputIDs, 2)

		json.NewEncoder(w).Encode(predictResponse{Predictions: []Prediction{
			{Probs: []float64{0.2, 0.8}, Label: 1},
			{Probs: []float64{0.7, 0.3}, Label: 0},
		}})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(HTTPConfig{Endpoint: srv.URL, APIKey: "secret"})
	require.NoError(t, err)
	defer client.Close()

	preds, err := client.Predict(context.Background(), sampleBatch())
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, 1, preds[0].Label)
	assert.InDelta(t, 0.8, preds[0].Probs[1], 1e-9)
}

func TestHTTPClientPredictCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(predictResponse{Predictions: []Prediction{{Label: 0}}})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(HTTPConfig{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.Predict(context.Background(), sampleBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 predictions for 2 rows")
}

func TestHTTPClientPredictServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "model not loaded"})
	}))
	defer srv.Close()

	client, err := NewHTTPClient(HTTPConfig{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.Predict(context.Background(), sampleBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestHTTPClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(HTTPConfig{Endpoint: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, client.Health(context.Background()))
}

func TestHTTPClientEmptyBatch(t *testing.T) {
	client, err := NewHTTPClient(HTTPConfig{Endpoint: "http://unreachable.invalid"})
	require.NoError(t, err)

	preds, err := client.Predict(context.Background(), &types.EncodedBatch{})
	require.NoError(t, err)
	assert.Empty(t, preds)
}

func TestNewHTTPClientRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	assert.Error(t, err)
}

// failingClassifier always errors, to drive the breaker open.
type failingClassifier struct{ calls int }

func (f *failingClassifier) Predict(ctx context.Context, batch *types.EncodedBatch) ([]Prediction, error) {
	f.calls++
	return nil, errors.New("backend down")
}

func (f *failingClassifier) Health(ctx context.Context) error { return errors.New("backend down") }
func (f *failingClassifier) Close() error                     { return nil }

func TestCircuitBreakerTripsAfterRepeatedFailures(t *testing.T) {
	backend := &failingClassifier{}
	cb := NewCircuitBreakerClient(backend, config.CircuitBreakerConfig{
		MaxRequests:      1,
		Interval:         60,
		Timeout:          60,
		ReadyToTripRatio: 0.5,
	}, nil, "test")

	for i := 0; i < 3; i++ {
		_, err := cb.Predict(context.Background(), sampleBatch())
		require.Error(t, err)
	}
	callsWhenTripped := backend.calls

	// The breaker is open now: calls fail fast without reaching the backend.
	_, err := cb.Predict(context.Background(), sampleBatch())
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsWhenTripped, backend.calls)
}
