package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"scriptstudio/internal/http/handlers"
	httpapi "scriptstudio/internal/http/httpapi"
	"scriptstudio/internal/infra"
	"scriptstudio/internal/infra/geoip"
	"scriptstudio/internal/middleware"
	"scriptstudio/internal/providers"
	"scriptstudio/internal/session"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, err := providers.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise providers")
	}

	store, err := session.NewStore(session.StoreOptions{
		TTL:             cfg.SessionTTL,
		CleanupInterval: cfg.SessionCleanup,
		NewController:   set.NewController,
		Logger:          &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session store")
	}

	app := handlers.NewApp(handlers.AppOptions{
		Store:             store,
		Logger:            &logger,
		MaxReferenceBytes: cfg.MaxReferenceBytes,
		AllowedOrigins:    cfg.AllowedOrigins,
	})

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}
	defer geo.Close()
	var countryLookup middleware.CountryLookup
	if geo != nil {
		countryLookup = geo.CountryCode
		logger.Info().Str("path", cfg.GeoIPDBPath).Msg("geoip country lookup enabled")
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
	})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		store.Flush()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}
