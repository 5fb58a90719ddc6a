package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flight-delay/internal/cfg"
	"flight-delay/internal/common"
	"flight-delay/internal/metrics"
	"flight-delay/internal/server"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (overrides CONFIG_FILE)")
		modelPath  = flag.String("model", "", "Path to the model store (overrides config)")
		port       = flag.Int("port", 0, "Listen port (overrides config)")
	)
	flag.Parse()

	if *configPath != "" {
		os.Setenv(common.EnvConfigFile, *configPath)
	}

	settings, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if err := settings.SetupLogging(); err != nil {
		log.Fatal().Err(err).Msg("logging setup failed")
	}

	if *modelPath != "" {
		settings.ModelPath = *modelPath
	}
	if *port != 0 {
		settings.Port = *port
	}

	m := metrics.NewWrapper(metrics.New())

	trained, err := server.LoadModel(settings.ModelPath, m)
	if err != nil {
		log.Error().Err(err).Msg("refusing to start")
		os.Exit(1)
	}

	srv := server.New(trained, server.Config{
		Addr:         settings.Addr(),
		ReadTimeout:  settings.ReadTimeout,
		WriteTimeout: settings.WriteTimeout,
	}, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("prediction server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown prediction server")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
