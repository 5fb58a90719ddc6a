package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flight-delay/internal/cfg"
	"flight-delay/internal/common"
	"flight-delay/internal/dataset"
	"flight-delay/internal/metrics"
	"flight-delay/internal/ml"
	"flight-delay/internal/model"
	"flight-delay/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command line arguments
	var (
		configPath = flag.String("config", "", "Path to YAML config file (overrides CONFIG_FILE)")
		dataPath   = flag.String("data", "", "Path to the flights CSV (overrides config)")
		modelPath  = flag.String("model", "", "Path to the model store (overrides config)")
		engine     = flag.String("engine", "", "Booster engine: native or xgboost (overrides config)")
	)
	flag.Parse()

	if *configPath != "" {
		os.Setenv(common.EnvConfigFile, *configPath)
	}

	settings, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := settings.SetupLogging(); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	// Override config with command line arguments
	if *dataPath != "" {
		settings.DataPath = *dataPath
	}
	if *modelPath != "" {
		settings.ModelPath = *modelPath
	}
	if *engine != "" {
		settings.Engine = *engine
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := train(ctx, settings, metrics.NewWrapper(metrics.New()))
	if err != nil {
		log.Fatal().Err(err).Msg("Training failed")
	}

	fmt.Printf("✓ Trained model %s on %d flights (%d delayed, scale_pos_weight %.3f) in %v\n",
		run.ModelID, run.Rows, run.Positives, run.ScalePosWeight, run.Duration.Round(time.Millisecond))
	fmt.Printf("  Saved to %s\n", settings.ModelPath)
}

func train(ctx context.Context, settings cfg.Settings, m ml.MetricsInterface) (*storage.TrainingRun, error) {
	started := time.Now()

	log.Info().
		Str("data_path", settings.DataPath).
		Str("model_path", settings.ModelPath).
		Str("engine", settings.Engine).
		Msg("Starting training run")

	records, err := dataset.LoadCSV(settings.DataPath)
	if err != nil {
		return nil, err
	}

	engine, err := ml.NewEngine(settings.EngineConfig())
	if err != nil {
		return nil, err
	}

	dm := model.New(engine, m)
	ts, err := dm.EncodeForTraining(records)
	if err != nil {
		return nil, fmt.Errorf("encode training data: %w", err)
	}
	summary := ts.Summary()

	if err := dm.Fit(ctx, ts); err != nil {
		return nil, err
	}

	store, err := storage.New(settings.ModelPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := dm.Save(store); err != nil {
		return nil, err
	}

	trained, err := dm.Trained()
	if err != nil {
		return nil, err
	}

	run := storage.TrainingRun{
		ID:              uuid.NewString(),
		ModelID:         trained.Info().ModelID,
		StartedAt:       started.UTC(),
		Duration:        time.Since(started),
		DataPath:        settings.DataPath,
		Engine:          engine.Name(),
		Rows:            summary.Rows,
		Positives:       summary.Positives,
		ScalePosWeight:  summary.ScalePosWeight,
		HighSeasonShare: summary.HighSeasonShare,
	}
	if err := store.StoreRun(run); err != nil {
		return nil, fmt.Errorf("record training run: %w", err)
	}

	log.Info().
		Str("run_id", run.ID).
		Str("model_id", run.ModelID).
		Int("rows", run.Rows).
		Int("positives", run.Positives).
		Float64("high_season_share", run.HighSeasonShare).
		Interface("periods", summary.Periods).
		Dur("duration", run.Duration).
		Msg("Training run completed")
	return &run, nil
}
