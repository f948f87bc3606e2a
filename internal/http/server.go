package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"saldo/internal/cache"
	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/services"
)

// Options tunes the server beyond its listen address.
type Options struct {
	ForecastCacheSize int
	ForecastCacheTTL  time.Duration
}

func defaultOptions() Options {
	return Options{
		ForecastCacheSize: 256,
		ForecastCacheTTL:  time.Minute,
	}
}

// Server exposes the budget API over JSON. Forecast responses are
// cached per group and horizon; any write to a group invalidates its
// entries.
type Server struct {
	http.Server
	service     *services.BudgetService
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	logs        *applog.StructuredLogger

	forecastCache *cache.LRUCache[[]core.ForecastPoint]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once

	// now is swapped in tests to pin the calendar day.
	now func() time.Time
}

// NewServer configures routes and returns a ready-to-run http.Server.
func NewServer(addr string, service *services.BudgetService, opts Options) *Server {
	if opts.ForecastCacheSize < 1 {
		opts.ForecastCacheSize = defaultOptions().ForecastCacheSize
	}
	if opts.ForecastCacheTTL <= 0 {
		opts.ForecastCacheTTL = defaultOptions().ForecastCacheTTL
	}

	mux := http.NewServeMux()

	logCfg := applog.DefaultConfig()
	logCfg.Component = applog.ComponentHTTP

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		service:       service,
		rateLimiter:   newRateLimiter(),
		metrics:       &securityMetrics{},
		logs:          applog.NewStructuredLogger(applog.New(logCfg)),
		forecastCache: cache.NewLRUCache[[]core.ForecastPoint](opts.ForecastCacheSize, opts.ForecastCacheTTL),
		cacheManager:  cache.NewManager(),
		now:           time.Now,
	}

	s.cacheManager.Register(s.forecastCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/{group}/state", s.withMiddleware(s.handleGetState))
	mux.HandleFunc("GET /api/{group}/forecast", s.withMiddleware(s.handleForecast))
	mux.HandleFunc("GET /api/{group}/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("PUT /api/{group}/balance", s.withMiddleware(s.handleSetBalance))
	mux.HandleFunc("POST /api/{group}/items", s.withMiddleware(s.handleCreateItem))
	mux.HandleFunc("PUT /api/{group}/items/{id}", s.withMiddleware(s.handleUpdateItem))
	mux.HandleFunc("DELETE /api/{group}/items/{id}", s.withMiddleware(s.handleDeleteItem))
	mux.HandleFunc("POST /api/{group}/purchases", s.withMiddleware(s.handleCreatePurchase))
	mux.HandleFunc("DELETE /api/{group}/purchases/{id}", s.withMiddleware(s.handleDeletePurchase))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request
// logging to a handler.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logs.LogHTTPStart(ctx, r, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request detected",
				"client_ip", clientIP, "url", r.URL.Path)
		}

		// Rate limit writes only; forecast reads are cache-friendly
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logs.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) forecastCacheKey(groupKey string, horizon core.Horizon) string {
	return groupKey + "|" + horizon.String()
}

// invalidateForecasts drops the preset horizons for a group. Custom
// horizons age out through the TTL.
func (s *Server) invalidateForecasts(groupKey string) {
	for _, h := range []core.Horizon{
		core.HorizonWeek,
		core.HorizonMonth,
		core.Horizon3Months,
		core.Horizon6Months,
		core.Horizon12Months,
		core.Horizon24Months,
	} {
		s.forecastCache.Delete(s.forecastCacheKey(groupKey, h))
	}
}
