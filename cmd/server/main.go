package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/nimbuschat/nimbus/internal/adapter/driven/auth/jwtauth"
	"github.com/nimbuschat/nimbus/internal/adapter/driven/persistence/sqlite"
	"github.com/nimbuschat/nimbus/internal/adapter/driven/push/redispush"
	handler "github.com/nimbuschat/nimbus/internal/adapter/driving/http"
	"github.com/nimbuschat/nimbus/internal/config"
	"github.com/nimbuschat/nimbus/internal/core/port"
	"github.com/nimbuschat/nimbus/internal/core/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	w := zerolog.ConsoleWriter{Out: os.Stdout}
	l := zerolog.New(w).With().Timestamp().Caller().Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		l = l.Level(level)
	}
	zlog.Logger = l

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		l.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Failed to open store")
	}

	var push port.PushDispatcher = redispush.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		push = redispush.NewDispatcher(rdb, cfg.PushQueue)
	} else {
		l.Warn().Msg("REDIS_ADDR not set, push notifications disabled")
	}

	verifier := jwtauth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	registry := service.NewConnectionRegistry()
	router := service.NewRoomRouter()
	presence := service.NewPresenceBroadcaster(registry, store)
	relay := service.NewMessageRelay(registry, router, store, store, store, push)
	calls := service.NewCallSignalingEngine(registry, router, store, store)
	hub := service.NewHub(registry, router, presence, relay, calls, store)

	h := handler.NewHandler(hub, verifier, store, cfg.SendBuffer)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: h.NewRouter(),
	}

	go func() {
		l.Info().Str("addr", cfg.Addr()).Str("env", cfg.Environment).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	l.Info().Msg("Server exited")
}
