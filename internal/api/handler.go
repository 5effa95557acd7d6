package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"pharmsight/m/domain"
	"pharmsight/m/internal/alerts"
	"pharmsight/m/internal/prediction"
)

type ctxKey string

const (
	ctxOrganizationID ctxKey = "organizationID"
	ctxRole           ctxKey = "role"
)

// Predictor is the prediction gateway as seen by the HTTP layer.
type Predictor interface {
	ForecastDemand(ctx context.Context, periods int) (json.RawMessage, error)
	OptimizeInventory(ctx context.Context, productID string) (prediction.Result, error)
	PredictExpiryRisk(ctx context.Context, productID string) (prediction.Result, error)
}

// InventoryReader lists an organization's products with their batches.
type InventoryReader interface {
	ListProducts(ctx context.Context, organizationID string) ([]domain.ProductStock, error)
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	predictor Predictor
	inventory InventoryReader
	secret    string
	threshold int64
	now       func() time.Time
}

// New constructs a Handler.
func New(predictor Predictor, inventory InventoryReader, secret string, lowStockThreshold int64) *Handler {
	return &Handler{
		predictor: predictor,
		inventory: inventory,
		secret:    secret,
		threshold: lowStockThreshold,
		now:       time.Now,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/ml", func(r chi.Router) {
			r.Post("/forecast", h.forecastDemand)
			r.Get("/inventory/optimize/{medicineId}", h.optimizeInventory)
			r.Get("/expiry/predict/{medicineId}", h.predictExpiryRisk)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Get("/", h.listProducts)
			r.Get("/low-stock", h.lowStock)
			r.Get("/expiring", h.expiring)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Authentication helpers

type authClaims struct {
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		token, err := jwt.ParseWithClaims(tokenString, &authClaims{}, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.secret), nil
		})
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		claims, ok := token.Claims.(*authClaims)
		if !ok {
			respondError(w, http.StatusUnauthorized, "invalid token claims")
			return
		}
		ctx := context.WithValue(r.Context(), ctxOrganizationID, claims.OrganizationID)
		ctx = context.WithValue(ctx, ctxRole, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// organizationID prefers the token claim and falls back to the
// organizationId query parameter.
func organizationID(r *http.Request) string {
	if val, ok := r.Context().Value(ctxOrganizationID).(string); ok && val != "" {
		return val
	}
	return strings.TrimSpace(r.URL.Query().Get("organizationId"))
}

// Prediction handlers

type forecastRequest struct {
	Periods json.Number `json:"periods"`
}

func (h *Handler) forecastDemand(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	periods := 0
	if req.Periods != "" {
		n, err := strconv.Atoi(req.Periods.String())
		if err != nil {
			respondError(w, http.StatusBadRequest, "periods must be an integer")
			return
		}
		periods = n
	}

	body, err := h.predictor.ForecastDemand(r.Context(), periods)
	if err != nil {
		respondFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) optimizeInventory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "medicineId"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "medicine id is required")
		return
	}
	result, err := h.predictor.OptimizeInventory(r.Context(), id)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) predictExpiryRisk(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "medicineId"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "medicine id is required")
		return
	}
	result, err := h.predictor.PredictExpiryRisk(r.Context(), id)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Inventory handlers

func (h *Handler) loadProducts(w http.ResponseWriter, r *http.Request) ([]domain.ProductStock, bool) {
	orgID := organizationID(r)
	if orgID == "" {
		respondError(w, http.StatusBadRequest, "organization id is required")
		return nil, false
	}
	products, err := h.inventory.ListProducts(r.Context(), orgID)
	if err != nil {
		respondFailure(w, err)
		return nil, false
	}
	return products, true
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, ok := h.loadProducts(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	products, ok := h.loadProducts(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, alerts.LowStock(products, h.threshold))
}

func (h *Handler) expiring(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = 30
	}
	products, ok := h.loadProducts(w, r)
	if !ok {
		return
	}
	var batches []domain.InventoryBatch
	for _, p := range products {
		batches = append(batches, p.Inventories...)
	}
	respondJSON(w, http.StatusOK, alerts.ExpiringWithin(batches, h.now(), days))
}

// Helpers

// decodeJSON ignores fields dest does not declare.
func decodeJSON(r *http.Request, dest interface{}) error {
	return json.NewDecoder(r.Body).Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps the domain error taxonomy onto status codes.
func respondFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, domain.ErrPredictionUnavailable):
		respondError(w, http.StatusServiceUnavailable, "prediction service unavailable")
	default:
		log.Error().Err(err).Msg("request failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
