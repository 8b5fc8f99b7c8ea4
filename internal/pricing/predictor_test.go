package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testPredictor(t *testing.T, handler http.HandlerFunc) *Predictor {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewPredictor(server.URL, 2*time.Second, zap.NewNop())
}

func predictionHandler(t *testing.T, status string, price float64) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var in PredictionInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"statut":      status,
			"prix_predit": price,
		})
	}
}

func TestPredictSuccess(t *testing.T) {
	p := testPredictor(t, predictionHandler(t, "success", 42.5))

	price, err := p.Predict(context.Background(), PredictionInput{
		Domain:          "Electronics",
		CompetitorPrice: 100,
		ProductionCost:  40,
		DesiredMargin:   0.25,
	})
	require.NoError(t, err)
	assert.Equal(t, 42.5, price)
}

func TestPredictSendsWireFormat(t *testing.T) {
	var body map[string]interface{}
	p := testPredictor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(map[string]interface{}{"statut": "success", "prix_predit": 1.0})
	})

	_, err := p.Predict(context.Background(), PredictionInput{
		Domain:          "Mode",
		CompetitorPrice: 100,
		ProductionCost:  40,
		DesiredMargin:   0.25,
	})
	require.NoError(t, err)

	assert.Equal(t, "Mode", body["domaine"])
	assert.Equal(t, 100.0, body["prix_concurrent"])
	assert.Equal(t, 40.0, body["cout_production"])
	assert.Equal(t, 0.25, body["marge_voulue"])
}

func TestPredictNonSuccessStatus(t *testing.T) {
	p := testPredictor(t, predictionHandler(t, "model_error", 10))

	_, err := p.Predict(context.Background(), PredictionInput{})
	assert.ErrorIs(t, err, ErrPredictionFailed)
}

func TestPredictNonPositivePrice(t *testing.T) {
	p := testPredictor(t, predictionHandler(t, "success", -3))

	_, err := p.Predict(context.Background(), PredictionInput{})
	assert.ErrorIs(t, err, ErrInvalidPrediction)
}

func TestPredictServerError(t *testing.T) {
	p := testPredictor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := p.Predict(context.Background(), PredictionInput{})
	var upstreamErr *UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
}

func TestPredictTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	p := NewPredictor(server.URL, time.Second, zap.NewNop())

	_, err := p.Predict(context.Background(), PredictionInput{})
	var upstreamErr *UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
}

func TestQuoteFallbackOnAnyFailure(t *testing.T) {
	in := PredictionInput{
		Domain:          "Electronics",
		CompetitorPrice: 100,
		ProductionCost:  40,
		DesiredMargin:   0.5,
	}

	failures := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"bad status": predictionHandler(t, "failed", 10),
		"bad price":  predictionHandler(t, "success", 0),
	}

	for name, handlerFunc := range failures {
		t.Run(name, func(t *testing.T) {
			p := testPredictor(t, handlerFunc)
			quote := p.Quote(context.Background(), in)

			assert.Equal(t, QuoteFallback, quote.Source)
			assert.Equal(t, 40*(1+0.5), quote.Price)
			assert.Error(t, quote.Reason)
		})
	}
}

func TestQuotePredicted(t *testing.T) {
	p := testPredictor(t, predictionHandler(t, "success", 57.3))

	quote := p.Quote(context.Background(), PredictionInput{ProductionCost: 40, DesiredMargin: 0.5})
	assert.Equal(t, QuotePredicted, quote.Source)
	assert.Equal(t, 57.3, quote.Price)
	assert.NoError(t, quote.Reason)
}

func TestDomains(t *testing.T) {
	p := testPredictor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domains", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"domaines_disponibles": map[string]interface{}{
				"Electronics": 0,
				"Mode":        1,
			},
		})
	})

	domains, err := p.Domains(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Electronics", "Mode"}, domains)
}

func TestDomainsUpstreamError(t *testing.T) {
	p := testPredictor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	_, err := p.Domains(context.Background())
	var upstreamErr *UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
}
