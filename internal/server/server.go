// Package server exposes the deliberation pipeline and the tracked market
// data over a JSON REST API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"debatefloor/internal/config"
	"debatefloor/internal/debate"
	"debatefloor/internal/flow"
	"debatefloor/internal/metrics"
	"debatefloor/internal/news"
	"debatefloor/internal/polymarket/clobapi"
	"debatefloor/internal/polymarket/dataapi"
	"debatefloor/internal/polymarket/gammaapi"
	"debatefloor/internal/stats"
	"debatefloor/internal/storage"
)

// Store is the slice of the storage layer the handlers use.
type Store interface {
	GetMarket(ctx context.Context, id string) (*storage.Market, error)
	GetMarketBySlug(ctx context.Context, slug string) (*storage.Market, error)
	ListMarkets(ctx context.Context, activeOnly bool, limit int) ([]storage.Market, error)
	UpsertMarket(ctx context.Context, market *storage.Market) error
	ListNewsArticles(ctx context.Context, marketID string, limit int) ([]storage.NewsArticle, error)
	UpsertNewsArticle(ctx context.Context, article *storage.NewsArticle) (bool, error)
	GetState(ctx context.Context, key string) (string, error)
	Ping(ctx context.Context) error
}

// MarketResolver looks up markets the store has not seen yet.
type MarketResolver interface {
	GetMarketByConditionID(ctx context.Context, conditionID string) (*gammaapi.Market, error)
	GetMarketBySlug(ctx context.Context, slug string) (*gammaapi.Market, error)
}

// TradeSource serves raw fills and holder snapshots for a market.
type TradeSource interface {
	GetTrades(ctx context.Context, params dataapi.TradeParams) ([]dataapi.Trade, error)
	GetHolders(ctx context.Context, conditionID string, limit int) ([]dataapi.TokenHolders, error)
}

// PriceSource serves sampled price history for an outcome token.
type PriceSource interface {
	GetPriceHistory(ctx context.Context, tokenID, interval string, fidelity int) ([]clobapi.PricePoint, error)
}

// WalletStats returns a holder's performance on one market alongside its
// account-wide figures.
type WalletStats interface {
	HolderStats(ctx context.Context, wallet, conditionID string) (stats.HolderStats, error)
}

// NewsSource pulls fresh headlines when the store has none for a market.
type NewsSource interface {
	Everything(ctx context.Context, query string, limit int) ([]news.Article, error)
}

// Deliberator runs the staged deliberation pipeline against a state.
type Deliberator interface {
	Run(ctx context.Context, state *debate.State, cfg debate.StageConfig) error
}

// Deps are the collaborators the API serves from. Wallets and NewsFeed may be
// nil; the handlers that use them degrade to unenriched or stored-only
// responses.
type Deps struct {
	Store    Store
	Gamma    MarketResolver
	Trades   TradeSource
	Prices   PriceSource
	Wallets  WalletStats
	NewsFeed NewsSource
	Traders  *flow.Aggregator
	Debates  Deliberator
}

// Server routes API requests to the pipeline and the market data layers.
type Server struct {
	cfg      *config.Config
	db       Store
	gamma    MarketResolver
	trades   TradeSource
	prices   PriceSource
	wallets  WalletStats
	newsFeed NewsSource
	traders  *flow.Aggregator
	debates  Deliberator
	log      *logrus.Logger
	router   *mux.Router
}

// New creates a Server and builds its route table.
func New(cfg *config.Config, deps Deps, log *logrus.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		db:       deps.Store,
		gamma:    deps.Gamma,
		trades:   deps.Trades,
		prices:   deps.Prices,
		wallets:  deps.Wallets,
		newsFeed: deps.NewsFeed,
		traders:  deps.Traders,
		debates:  deps.Debates,
		log:      log,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root handler for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.loggingMiddleware)
	api.HandleFunc("/markets", s.handleListMarkets).Methods(http.MethodGet)
	api.HandleFunc("/markets/{id}", s.handleGetMarket).Methods(http.MethodGet)
	api.HandleFunc("/markets/{id}/history", s.handleMarketHistory).Methods(http.MethodGet)
	api.HandleFunc("/markets/{id}/whales", s.handleMarketWhales).Methods(http.MethodGet)
	api.HandleFunc("/markets/{id}/holders", s.handleMarketHolders).Methods(http.MethodGet)
	api.HandleFunc("/markets/{id}/deliberate", s.handleDeliberate).Methods(http.MethodPost)
	api.HandleFunc("/news", s.handleNews).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.respondError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	return r
}

type contextKey int

const requestIDKey contextKey = iota

// requestIDMiddleware tags every request with a short id for log correlation.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs API requests with their status and duration. Health
// probes and metric scrapes stay out of the log.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		fields := logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.status,
			"duration": time.Since(start).String(),
		}
		if id, ok := r.Context().Value(requestIDKey).(string); ok {
			fields["request_id"] = id
		}
		s.log.WithFields(fields).Info("API request")
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.WithError(err).Error("Failed to encode response")
	}
}

// respondError writes the {"detail": ...} error shape.
func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	metrics.RecordHealthCheck(true)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports readiness from a live database ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	err := s.db.Ping(r.Context())
	metrics.RecordHealthCheck(err == nil)
	if err != nil {
		s.log.WithError(err).Warn("Readiness check failed")
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// lookupMarket reads a market from the store by condition id, falling back to
// slug. Both misses return (nil, nil).
func (s *Server) lookupMarket(ctx context.Context, id string) (*storage.Market, error) {
	market, err := s.db.GetMarket(ctx, id)
	if err != nil {
		return nil, err
	}
	if market != nil {
		return market, nil
	}
	return s.db.GetMarketBySlug(ctx, id)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func queryFloat(r *http.Request, key string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

// optional maps an empty string onto a JSON null.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
