// Package server exposes the ingestion engine over HTTP to the scraping
// client.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"asx-ingest/internal/config"
	apperrors "asx-ingest/internal/errors"
	"asx-ingest/internal/ingest"
	"asx-ingest/internal/models"
	"asx-ingest/internal/store"
	"asx-ingest/pkg/market"
)

// Server routes scraping-client requests onto the store and the ingestion
// coordinator.
type Server struct {
	store   store.Store
	coord   *ingest.Coordinator
	log     zerolog.Logger
	suffix  string
	cache   *gocache.Cache
	limiter *rate.Limiter
}

// NewServer wires the HTTP surface. The ticker cache and rate limiter are
// enabled only when their config values are positive.
func NewServer(st store.Store, coord *ingest.Coordinator, logger zerolog.Logger, marketSuffix string, cfg config.ServerConfig) *Server {
	s := &Server{
		store:  st,
		coord:  coord,
		log:    logger,
		suffix: marketSuffix,
	}
	if cfg.TickerCacheTTL > 0 {
		s.cache = gocache.New(cfg.TickerCacheTTL, 2*cfg.TickerCacheTTL)
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}
	return s
}

// Handler builds the route table with CORS and rate-limit middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/get_tickers", s.handleGetTickers)
	mux.HandleFunc("/save_data", s.handleSaveData)
	mux.HandleFunc("/existing_files", s.handleExistingFiles)
	return s.withCORS(s.withRateLimit(s.withLogging(mux)))
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleGetTickers returns the bare-code work queue ordered by the requested
// watermark column. Results are cached briefly per ordering.
func (s *Server) handleGetTickers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	by, err := store.ParseOrderBy(r.URL.Query().Get("order_by"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unknown order_by value")
		return
	}

	cacheKey := "tickers:" + string(by)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			s.writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	tickers, err := s.store.ListTickers(r.Context(), by)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list tickers")
		s.writeError(w, http.StatusInternalServerError, "failed to list tickers")
		return
	}
	if tickers == nil {
		tickers = []string{}
	}

	if s.cache != nil {
		s.cache.SetDefault(cacheKey, tickers)
	}
	s.writeJSON(w, http.StatusOK, tickers)
}

// handleSaveData accepts one submission and applies it atomically.
func (s *Server) handleSaveData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var sub models.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid submission payload: "+err.Error())
		return
	}

	result, err := s.coord.Ingest(r.Context(), sub)
	if err != nil {
		var partial *apperrors.PartialBatchError
		switch {
		case apperrors.As(err, &partial):
			s.log.Warn().Err(err).Str("ticker", sub.TickerSymbol).Msg("Submission rolled back")
			s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		case apperrors.IsClientError(err):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.log.Error().Err(err).Str("ticker", sub.TickerSymbol).Msg("Submission failed")
			s.writeError(w, http.StatusInternalServerError, "failed to save data")
		}
		return
	}

	// Watermarks moved, so cached ticker orderings are stale.
	if s.cache != nil {
		s.cache.Flush()
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleExistingFiles lists the announcement documents already stored for an
// instrument so the client can skip re-downloading them.
func (s *Server) handleExistingFiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bare := r.URL.Query().Get("ticker")
	if bare == "" {
		s.writeError(w, http.StatusBadRequest, "ticker parameter is required")
		return
	}

	files, err := s.store.ExistingFiles(r.Context(), market.InstrumentID(bare, s.suffix))
	if err != nil {
		s.log.Error().Err(err).Str("ticker", bare).Msg("Failed to list existing files")
		s.writeError(w, http.StatusInternalServerError, "failed to list existing files")
		return
	}
	if files == nil {
		files = []models.FileInfo{}
	}
	s.writeJSON(w, http.StatusOK, files)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// HTTPServer builds the listener for the given address. The caller owns its
// lifecycle, including graceful shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}
