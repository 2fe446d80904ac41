package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"homechef/internal/api"
	"homechef/internal/assistant"
	"homechef/internal/config"
	"homechef/internal/images"
	"homechef/internal/logger"
	"homechef/internal/platform/gemini"
	"homechef/internal/platform/localllm"
	"homechef/internal/recipe"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer log.Sync() //nolint:errcheck

	cfg.EnsureDirs()

	opts := []recipe.Option{recipe.WithLogger(log)}
	if cfg.SeedPath != "" {
		opts = append(opts, recipe.WithSeedPath(cfg.SeedPath))
	}
	store, err := recipe.NewSQLiteStore(cfg.DatabasePath, opts...)
	if err != nil {
		log.Fatal("error creating sqlite store", zap.Error(err))
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		log.Fatal("error initialising database", zap.String("path", cfg.DatabasePath), zap.Error(err))
	}

	var ai api.Assistant
	if backend := newBackend(ctx, cfg, log); backend != nil {
		ai = assistant.NewService(backend, cfg.GeminiModel, log)
	}

	handler := api.NewHandler(store, ai, images.NewService(filepath.Join(cfg.ImageDir, "default.png")), log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(log))

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.Routes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info("homechef listening", zap.String("addr", cfg.Addr), zap.Bool("ai_enabled", ai != nil))
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// newBackend picks the generative backend named by the configuration, or
// returns nil when AI is disabled.
func newBackend(ctx context.Context, cfg config.Config, log *zap.Logger) assistant.Backend {
	if !cfg.AIEnabled() {
		log.Warn("AI features disabled: no backend configured", zap.String("provider", cfg.AIProvider))
		return nil
	}
	switch cfg.AIProvider {
	case "local":
		client, err := localllm.NewClient(cfg.LocalLLMURL, cfg.LocalLLMToken)
		if err != nil {
			log.Error("error creating local llm client", zap.Error(err))
			return nil
		}
		log.Info("using local llm backend", zap.String("url", cfg.LocalLLMURL))
		return client
	default:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Error("error creating gemini client", zap.Error(err))
			return nil
		}
		log.Info("using gemini backend", zap.String("model", cfg.GeminiModel))
		return client
	}
}
