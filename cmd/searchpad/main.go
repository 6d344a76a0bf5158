package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchpad/internal/config"
	logpkg "github.com/kailas-cloud/searchpad/internal/logger"
	"github.com/kailas-cloud/searchpad/internal/metrics"
	"github.com/kailas-cloud/searchpad/internal/repository/points"
	"github.com/kailas-cloud/searchpad/internal/repository/settings"
	chiTransport "github.com/kailas-cloud/searchpad/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/searchpad/internal/transport/openai"
	"github.com/kailas-cloud/searchpad/internal/usecase/session"
	"github.com/kailas-cloud/searchpad/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting searchpad API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("qdrant_url", cfg.Qdrant.URL),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Search provider
	provider, err := points.New(points.Config{
		URL:    cfg.Qdrant.URL,
		APIKey: cfg.Qdrant.APIKey,
	})
	if err != nil {
		logger.Fatal("Failed to connect to qdrant", zap.Error(err))
	}
	defer func() { _ = provider.Close() }()

	// Settings store: redis when configured, otherwise in-memory
	var store settings.Store
	checks := map[string]chiTransport.Pinger{"qdrant": provider}
	if cfg.Settings.Addr != "" {
		redisStore, err := settings.NewRedisStore(settings.Config{
			Addrs:     []string{cfg.Settings.Addr},
			Password:  cfg.Settings.Password,
			KeyPrefix: cfg.Settings.KeyPrefix,
			TTL:       time.Duration(cfg.Settings.TTLSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to connect to settings store", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
		checks["settings"] = redisStore
		logger.Info("Settings store connected", zap.String("addr", cfg.Settings.Addr))
	} else {
		store = settings.NewMemoryStore()
		logger.Warn("No settings store configured, using in-memory store")
	}

	// Query vectorizer
	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	// Generative answer source
	streamer := openaiTransport.NewStreamer(&openaiTransport.StreamerConfig{
		APIKey:    cfg.Answer.APIKey,
		BaseURL:   cfg.Answer.BaseURL,
		Model:     cfg.Answer.Model,
		MaxTokens: cfg.Answer.MaxTokens,
		Provider:  cfg.Answer.Provider,
		Logger:    logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("answer_model", cfg.Answer.Model),
	)

	// One session controller per collection, built on demand
	factory := func() *session.Controller {
		return session.New(provider, store, embedder, streamer, logger)
	}

	server := chiTransport.NewServer(factory, chiTransport.Defaults{
		TopK:            cfg.Search.DefaultTopK,
		ContextLimit:    cfg.Search.DefaultContextLimit,
		MaxPageSize:     cfg.Search.MaxPageSize,
		MaxAnswerTokens: cfg.Answer.MaxTokens,
	}, checks, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
