// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"interview-ai-simulator/internal/config"
	"interview-ai-simulator/internal/domain/ports/adapter"
	aiAdapters "interview-ai-simulator/internal/infra/adapters/ai"
	"interview-ai-simulator/internal/infra/api"
	pg "interview-ai-simulator/internal/infra/db/postgres"
	"interview-ai-simulator/internal/infra/logging"
	"interview-ai-simulator/internal/infra/metrics"
	red "interview-ai-simulator/internal/infra/redis"
	"interview-ai-simulator/internal/infra/sched"
	"interview-ai-simulator/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop AI fallback, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	sessionCache := red.NewSessionCache(redisClient, cfg.Redis.TTL)
	locker := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	interviewRepo := pg.NewInterviewRepo(pool)

	// ---- AI adapter (OpenAI -> OpenRouter -> Gemini) ----
	var ai adapter.CompletionAdapter
	var provider string
	switch {
	case cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.ChatModel)
		provider = "openai"
	case cfg.AI.OpenRouterKey != "":
		ai, err = aiAdapters.NewOpenRouterAdapter(cfg.AI.OpenRouterKey, cfg.AI.ChatModel, cfg.AI.OpenRouterBaseURL)
		provider = "openrouter"
	case cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.ChatModel)
		provider = "gemini"
	case cfg.Runtime.Dev:
		ai = aiAdapters.NewNoopAIAdapter()
		provider = "noop"
	default:
		log.Fatalf("no AI provider configured: set ai.openai_key, ai.openrouter_key or ai.gemini_key in %s", *cfgPath)
	}
	if err != nil {
		log.Fatalf("%s adapter: %v", provider, err)
	}
	logger.Info().Str("provider", provider).Str("chat_model", cfg.AI.ChatModel).Str("summary_model", cfg.AI.SummaryModel).Msg("AI adapter ready")
	ai = aiAdapters.NewLimitedAI(ai, cfg.AI.ConcurrentLimit)
	ai = aiAdapters.NewFallbackAI(ai, provider, logger)

	// ---- Use cases ----
	sessionUC := usecase.NewSessionUseCase(interviewRepo, sessionCache, locker, ai, cfg.AI.ChatModel, cfg.AI.SummaryModel, logger)
	interviewUC := usecase.NewInterviewUseCase(interviewRepo)

	// ---- Reaper ----
	reaper := sched.NewReaper(cfg.Reaper.Interval, cfg.Reaper.Cutoff, interviewRepo, sessionCache, logger)
	go func() {
		if err := reaper.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("reaper stopped")
		}
	}()

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.Auth.JWTSecret, !cfg.Runtime.Dev, "", time.Hour)
	srv := api.NewServer(sessionUC, interviewUC, auth, rateLimiter, cfg.RateLimit.MessagesPerMinute, logger)

	r := chi.NewRouter()
	srv.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	handler := api.Chain(r,
		api.Recover(logger),
		api.TraceID(logger),
		api.RequestLog(logger),
	)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Shutdown ----
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	cancel()
}
