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

	"github.com/shopfeed/categorizer/internal/config"
	dbRedis "github.com/shopfeed/categorizer/internal/db/redis"
	"github.com/shopfeed/categorizer/internal/domain"
	logpkg "github.com/shopfeed/categorizer/internal/logger"
	"github.com/shopfeed/categorizer/internal/metrics"
	cacherepo "github.com/shopfeed/categorizer/internal/repository/cache"
	rulesrepo "github.com/shopfeed/categorizer/internal/repository/rules"
	taxonomyrepo "github.com/shopfeed/categorizer/internal/repository/taxonomy"
	chiTransport "github.com/shopfeed/categorizer/internal/transport/chi"
	openaiLLM "github.com/shopfeed/categorizer/internal/transport/openai"
	analyzeruc "github.com/shopfeed/categorizer/internal/usecase/analyzer"
	batchuc "github.com/shopfeed/categorizer/internal/usecase/batch"
	cacheuc "github.com/shopfeed/categorizer/internal/usecase/cache"
	defineuc "github.com/shopfeed/categorizer/internal/usecase/define"
	healthuc "github.com/shopfeed/categorizer/internal/usecase/health"
	resolveuc "github.com/shopfeed/categorizer/internal/usecase/resolve"
	retrieveuc "github.com/shopfeed/categorizer/internal/usecase/retrieve"
	rulesuc "github.com/shopfeed/categorizer/internal/usecase/rules"
	selectionuc "github.com/shopfeed/categorizer/internal/usecase/selection"
	"github.com/shopfeed/categorizer/internal/version"
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

	logger.Info("Starting categorizer API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("llm_model", cfg.LLM.Model),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register LLM metrics explicitly (no init())
	metrics.RegisterLLMMetrics()

	// Taxonomy catalog — import on first run, then serve from memory.
	taxRepo := taxonomyrepo.New(store)
	count, err := taxRepo.Count(ctx)
	if err != nil {
		logger.Fatal("Failed to count taxonomy entries", zap.Error(err))
	}
	if count == 0 && cfg.Taxonomy.Path != "" {
		imported, err := taxRepo.ImportFile(ctx, cfg.Taxonomy.Path)
		if err != nil {
			logger.Fatal("Failed to import taxonomy", zap.String("path", cfg.Taxonomy.Path), zap.Error(err))
		}
		logger.Info("Imported taxonomy", zap.String("path", cfg.Taxonomy.Path), zap.Int("entries", imported))
	}
	catalog, err := taxRepo.LoadCatalog(ctx)
	if err != nil {
		logger.Fatal("Failed to load taxonomy catalog", zap.Error(err))
	}
	logger.Info("Taxonomy catalog loaded", zap.Int("entries", catalog.Len()))

	if cfg.Engine.FallbackPath == "" {
		cfg.Engine.FallbackPath = defaultFallbackPath(catalog)
		logger.Info("Using default fallback category", zap.String("path", cfg.Engine.FallbackPath))
	} else if _, ok := catalog.ByPath(cfg.Engine.FallbackPath); !ok {
		logger.Warn("Fallback path not present in taxonomy",
			zap.String("path", cfg.Engine.FallbackPath))
	}

	// LLM client shared by both pipeline agents
	llm := openaiLLM.NewClient(&openaiLLM.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Provider:    cfg.LLM.Provider,
		Logger:      logger,
	})

	// Repositories
	ruleRepo := rulesrepo.New(store, cfg.Engine.ProtectThreshold)
	cacheRepo := cacherepo.New(store, cfg.Engine.ProtectThreshold)

	// Use case services
	definer := defineuc.New(llm)
	retriever := retrieveuc.New(catalog, cfg.Engine.PreferredRoots, cfg.Engine.CandidateLimit)
	selector := selectionuc.New(llm, cfg.Engine.FallbackPath)

	resolveSvc := resolveuc.New(
		ruleRepo, cacheRepo,
		definer, retriever, selector,
		catalog,
		resolveuc.Config{
			MaxAttempts:      cfg.Engine.MaxAttempts,
			MinDepth:         cfg.Engine.MinDepth,
			ReviewThreshold:  cfg.Engine.ReviewThreshold,
			PromoteThreshold: cfg.Engine.PromoteThreshold,
			FallbackPath:     cfg.Engine.FallbackPath,
			AutoRules:        cfg.Engine.AutoRules,
		},
	)
	batchSvc := batchuc.New(resolveSvc, cfg.Engine.BatchConcurrency)
	ruleSvc := rulesuc.New(ruleRepo, catalog)
	analyzerSvc := analyzeruc.New(cacheRepo, ruleRepo)
	cacheSvc := cacheuc.New(cacheRepo, catalog)
	healthSvc := healthuc.New(store, llm)

	// Create chi server
	server := chiTransport.NewServer(resolveSvc, batchSvc, ruleSvc, analyzerSvc, cacheSvc, healthSvc, logger)

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

// defaultFallbackPath picks the alphabetically first root entry as the
// last-resort category when none is configured.
func defaultFallbackPath(catalog *domain.Catalog) string {
	best := ""
	for _, e := range catalog.Entries() {
		if e.Depth() != 1 {
			continue
		}
		if best == "" || e.Path < best {
			best = e.Path
		}
	}
	return best
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

			// Canonical log line — one line per request
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
