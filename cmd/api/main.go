package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/taxchat-backend/api/routes"
	"github.com/angelmondragon/taxchat-backend/internal/auth"
	"github.com/angelmondragon/taxchat-backend/internal/chat"
	"github.com/angelmondragon/taxchat-backend/internal/conversations"
	"github.com/angelmondragon/taxchat-backend/internal/llm"
	"github.com/angelmondragon/taxchat-backend/internal/qa"
	"github.com/angelmondragon/taxchat-backend/internal/users"
	"github.com/angelmondragon/taxchat-backend/pkg/config"
	"github.com/angelmondragon/taxchat-backend/pkg/db"
	"github.com/angelmondragon/taxchat-backend/pkg/logger"
	"github.com/angelmondragon/taxchat-backend/pkg/metrics"
	"github.com/angelmondragon/taxchat-backend/pkg/migrate"
	"github.com/angelmondragon/taxchat-backend/pkg/redis"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var (
		redisClient *redis.Client
		statsCache  qa.Cache
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		statsCache = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; rate limiting and stats cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	llmMetrics := metrics.NewLLMMetrics(registry)
	chatMetrics := metrics.NewChatMetrics(registry)

	gateway, err := llm.NewGatewayFromConfig(ctx, cfg.LLM, llmMetrics, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, gateway.Close()) }()

	services, err := buildServices(cfg, logg, dbClient, gateway, statsCache, chatMetrics)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"llm_provider": cfg.LLM.Provider,
		"db_driver":    dbClient.Dialect(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	answerer llm.Answerer,
	statsCache qa.Cache,
	chatMetrics *metrics.ChatMetrics,
) (routes.Services, error) {
	chatService, err := chat.NewService(chat.ServiceParams{
		Storage:          dbClient,
		Answerer:         answerer,
		Logger:           logg,
		Metrics:          chatMetrics,
		DefaultTopic:     cfg.Chat.DefaultTopic,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	})
	if err != nil {
		return routes.Services{}, err
	}

	qaService, err := qa.NewService(qa.ServiceParams{
		Storage:  dbClient,
		Cache:    statsCache,
		CacheTTL: cfg.Stats.CacheTTL,
		Logger:   logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	conversationService, err := conversations.NewService(conversations.ServiceParams{
		Storage:      dbClient,
		DefaultTopic: cfg.Chat.DefaultTopic,
	})
	if err != nil {
		return routes.Services{}, err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Storage:   dbClient,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		return routes.Services{}, err
	}

	userService, err := users.NewService(users.ServiceParams{
		Storage:        dbClient,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Chat:          chatService,
		QA:            qaService,
		Conversations: conversationService,
		Auth:          authService,
		Users:         userService,
	}, nil
}
