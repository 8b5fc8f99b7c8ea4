package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Predictor is a client for the external ML price prediction service.
type Predictor struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// PredictionInput carries the normalized inputs for a prediction request.
// DesiredMargin must already be a 0-1 fraction.
type PredictionInput struct {
	Domain          string  `json:"domaine"`
	CompetitorPrice float64 `json:"prix_concurrent"`
	ProductionCost  float64 `json:"cout_production"`
	DesiredMargin   float64 `json:"marge_voulue"`
}

// predictionResponse mirrors the predictor's /predict response body.
type predictionResponse struct {
	Status         string  `json:"statut"`
	PredictedPrice float64 `json:"prix_predit"`
}

// domainsResponse mirrors the predictor's /domains response body.
type domainsResponse struct {
	AvailableDomains map[string]interface{} `json:"domaines_disponibles"`
}

// QuoteSource tags which path produced a price quote.
type QuoteSource int

const (
	// QuotePredicted means the price came from the ML predictor.
	QuotePredicted QuoteSource = iota
	// QuoteFallback means the predictor failed and the deterministic
	// fallback formula was used instead.
	QuoteFallback
)

// PriceQuote is the outcome of a quote request. When Source is
// QuoteFallback, Reason holds the predictor error that triggered it.
type PriceQuote struct {
	Price  float64
	Source QuoteSource
	Reason error
}

// NewPredictor creates a predictor client. The timeout bounds every
// request; an expired call is treated as an upstream error.
func NewPredictor(baseURL string, timeout time.Duration, logger *zap.Logger) *Predictor {
	return &Predictor{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

// Domains fetches the list of domains the predictor recognizes. The list
// is fetched fresh on every call since the upstream model may change.
func (p *Predictor) Domains(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/domains", nil)
	if err != nil {
		return nil, &UpstreamError{Op: "domains", Err: err}
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		p.Logger.Error("Failed to fetch predictor domains", zap.Error(err))
		return nil, &UpstreamError{Op: "domains", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Op: "domains", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		p.Logger.Error("Predictor domains request failed",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)))
		return nil, &UpstreamError{Op: "domains", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	var parsed domainsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &UpstreamError{Op: "domains", Err: err}
	}

	domains := make([]string, 0, len(parsed.AvailableDomains))
	for domain := range parsed.AvailableDomains {
		domains = append(domains, domain)
	}
	return domains, nil
}

// Predict asks the external service for a price. It returns
// ErrPredictionFailed for a non-success status, ErrInvalidPrediction for
// a non-positive predicted price and an UpstreamError for transport or
// HTTP failures.
func (p *Predictor) Predict(ctx context.Context, in PredictionInput) (float64, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, &UpstreamError{Op: "predict", Err: err}
	}

	p.Logger.Info("Requesting price prediction",
		zap.String("domain", in.Domain),
		zap.Float64("competitor_price", in.CompetitorPrice),
		zap.Float64("production_cost", in.ProductionCost),
		zap.Float64("desired_margin", in.DesiredMargin))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return 0, &UpstreamError{Op: "predict", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		p.Logger.Error("Prediction request failed", zap.Error(err))
		return 0, &UpstreamError{Op: "predict", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &UpstreamError{Op: "predict", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		p.Logger.Error("Predictor returned an error status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)))
		return 0, &UpstreamError{Op: "predict", Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	var parsed predictionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, &UpstreamError{Op: "predict", Err: err}
	}

	if parsed.Status != "success" {
		p.Logger.Warn("Prediction rejected by the model", zap.String("status", parsed.Status))
		return 0, fmt.Errorf("%w: status %q", ErrPredictionFailed, parsed.Status)
	}
	if parsed.PredictedPrice <= 0 {
		p.Logger.Warn("Predicted price is not positive", zap.Float64("predicted_price", parsed.PredictedPrice))
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrediction, parsed.PredictedPrice)
	}

	p.Logger.Info("Prediction received", zap.Float64("predicted_price", parsed.PredictedPrice))
	return parsed.PredictedPrice, nil
}

// Quote returns a price for the given input, falling back to
// production_cost * (1 + desired_margin) on any predictor failure. The
// fallback is pure arithmetic on already-validated inputs and never
// fails: a quote request always produces a usable price.
func (p *Predictor) Quote(ctx context.Context, in PredictionInput) PriceQuote {
	price, err := p.Predict(ctx, in)
	if err != nil {
		fallback := in.ProductionCost * (1 + in.DesiredMargin)
		p.Logger.Warn("Using fallback price",
			zap.Float64("fallback_price", fallback),
			zap.Error(err))
		return PriceQuote{Price: fallback, Source: QuoteFallback, Reason: err}
	}
	return PriceQuote{Price: price, Source: QuotePredicted}
}
