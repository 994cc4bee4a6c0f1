package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adcraft/creative-engine/internal/auth"
	"github.com/adcraft/creative-engine/internal/generation"
	"github.com/adcraft/creative-engine/internal/http/handlers"
	"github.com/adcraft/creative-engine/internal/http/httpapi"
	"github.com/adcraft/creative-engine/internal/infra"
	"github.com/adcraft/creative-engine/internal/infra/geoip"
	"github.com/adcraft/creative-engine/internal/providers"
	"github.com/adcraft/creative-engine/internal/providers/openai"
	"github.com/adcraft/creative-engine/internal/ratelimit"
	"github.com/adcraft/creative-engine/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open storage")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	users, err := auth.NewStore(ctx, files)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load user store")
	}
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry, cfg.RefreshExpiry)

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip unavailable, defaulting to global context")
	}

	openaiClient, err := openai.NewClient(openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build openai client")
	}

	imageAdapters := []providers.ImageAdapter{
		providers.NewMidjourney(0),
		providers.NewStableDiffusion(0),
	}
	if openaiClient.HasCredentials() {
		imageAdapters = append(imageAdapters, providers.NewOpenAI(openaiClient))
	} else {
		logger.Warn().Msg("openai credentials missing, image chain runs on fallback providers")
	}
	runway := providers.NewRunway(cfg.RunwayAPIKey, 0)
	stableVideo := providers.NewStableVideo(cfg.StableVideoAPIKey, 0)
	if !runway.HasCredentials() && !stableVideo.HasCredentials() {
		logger.Warn().Msg("video provider credentials missing, video chain runs on synthetic output")
	}
	videoAdapters := []providers.VideoAdapter{runway, stableVideo}

	providerSvc := providers.NewService(providers.ServiceOptions{
		Limiter:        ratelimit.NewLimiter(),
		Configs:        providers.DefaultConfigs(),
		ImageAdapters:  imageAdapters,
		VideoAdapters:  videoAdapters,
		ImageFallbacks: append([]string{cfg.DefaultImageProvider}, cfg.ImageFallbacks...),
		VideoFallbacks: append([]string{cfg.DefaultVideoProvider}, cfg.VideoFallbacks...),
		Logger:         &logger,
	})

	var downloader generation.Downloader
	if openaiClient.HasCredentials() {
		downloader = openaiClient
	}
	genSvc := generation.NewService(generation.Options{
		Providers:        providerSvc,
		Files:            files,
		Downloader:       downloader,
		Logger:           &logger,
		MaxConcurrent:    cfg.MaxConcurrent,
		MaxRetries:       cfg.MaxRetries,
		PollInterval:     cfg.QueuePollEvery,
		DispatchDelay:    cfg.DispatchDelay,
		ProgressInterval: cfg.ProgressInterval,
	})
	genSvc.Start(ctx)

	app := &handlers.App{
		Logger:     logger,
		Users:      users,
		Tokens:     tokens,
		Generation: genSvc,
		Geo:        geo,
	}
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
	})
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

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
