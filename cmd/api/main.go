package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"brandmind/internal/adapter/kv"
	"brandmind/internal/adapter/repo"
	"brandmind/internal/auth"
	"brandmind/internal/http/handlers"
	httpapi "brandmind/internal/http/httpapi"
	"brandmind/internal/infra"
	"brandmind/internal/infra/geoip"
	"brandmind/internal/providers/completion"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, audit country disabled")
	}
	defer geo.Close()

	app := &handlers.App{
		Users:         repo.NewUserRepository(dbpool),
		Subs:          repo.NewSubscriptionRepository(dbpool),
		Actions:       repo.NewAdminActionRepository(dbpool),
		Usage:         repo.NewUsageRepository(dbpool),
		Settings:      repo.NewSettingsRepository(dbpool),
		RefreshTokens: kv.NewRefreshTokenStore(rdb),
		Counter:       kv.NewDailyCounter(rdb),
		Issuer:        auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL),
		Completion: completion.NewClient(completion.ClientOptions{
			BaseURL: cfg.UpstreamBaseURL,
			Model:   cfg.UpstreamModel,
		}),
		Geo:    geo,
		Logger: logger,
		Cfg:    cfg,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
