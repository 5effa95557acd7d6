// Package prediction talks to the external prediction service on behalf of
// the inventory layer.
package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pharmsight/m/domain"
	"pharmsight/m/internal/features"
)

const (
	OpForecastDemand    = "forecast demand"
	OpOptimizeInventory = "optimize inventory"
	OpPredictExpiryRisk = "predict expiry risk"

	// DefaultPeriods is the forecast horizon used when none is given.
	DefaultPeriods = 30
	// DefaultTimeout bounds a call when the gateway is built without a client.
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20
)

// Result is the decoded body returned by the prediction service with the
// caller's product id merged in under "productId".
type Result map[string]any

// Deriver produces the feature vector of a product.
type Deriver interface {
	Derive(ctx context.Context, productID string, horizon features.Horizon) (domain.Product, features.Vector, error)
}

// Gateway builds prediction requests from derived features and posts them
// to the prediction service. It performs one outbound call per operation and
// never retries or caches.
type Gateway struct {
	baseURL  string
	client   *http.Client
	features Deriver
	log      zerolog.Logger
}

// NewGateway constructs a Gateway. A nil client gets one bounded by DefaultTimeout.
func NewGateway(baseURL string, client *http.Client, deriver Deriver, logger zerolog.Logger) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Gateway{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		features: deriver,
		log:      logger,
	}
}

// ForecastDemand requests an aggregate demand forecast over periods days and
// returns the service's body unmodified. Zero periods means DefaultPeriods.
func (g *Gateway) ForecastDemand(ctx context.Context, periods int) (json.RawMessage, error) {
	if periods < 0 {
		return nil, fmt.Errorf("periods must not be negative: %w", domain.ErrValidation)
	}
	if periods == 0 {
		periods = DefaultPeriods
	}

	body, err := g.post(ctx, OpForecastDemand, "/forecast/demand", forecastRequest{Periods: periods})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, g.unavailable(OpForecastDemand, errors.New("malformed response body"))
	}
	return json.RawMessage(body), nil
}

// OptimizeInventory requests a reorder recommendation for productID.
func (g *Gateway) OptimizeInventory(ctx context.Context, productID string) (Result, error) {
	_, v, err := g.features.Derive(ctx, productID, features.HorizonReorder)
	if err != nil {
		return nil, err
	}
	productID = strings.TrimSpace(productID)
	return g.predict(ctx, OpOptimizeInventory, "/inventory/optimize", productID, newOptimizeRequest(productID, v))
}

// PredictExpiryRisk requests an expiry-risk score for productID.
func (g *Gateway) PredictExpiryRisk(ctx context.Context, productID string) (Result, error) {
	product, v, err := g.features.Derive(ctx, productID, features.HorizonExpiryRisk)
	if err != nil {
		return nil, err
	}
	productID = strings.TrimSpace(productID)
	return g.predict(ctx, OpPredictExpiryRisk, "/expiry/predict", productID, newExpiryRequest(productID, product.Name, v))
}

func (g *Gateway) predict(ctx context.Context, op, path, productID string, payload any) (Result, error) {
	body, err := g.post(ctx, op, path, payload)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, g.unavailable(op, errors.New("malformed response body"))
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var result Result
	if err := dec.Decode(&result); err != nil || result == nil {
		return nil, g.unavailable(op, fmt.Errorf("malformed response body: %v", err))
	}
	result["productId"] = productID
	return result, nil
}

func (g *Gateway) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, g.unavailable(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, g.unavailable(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, g.unavailable(op, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, g.unavailable(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	g.log.Debug().Str("op", op).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("prediction call completed")
	return body, nil
}

func (g *Gateway) unavailable(op string, err error) error {
	g.log.Error().Err(err).Str("op", op).Msg("prediction service call failed")
	return &UnavailableError{Op: op, Err: err}
}
