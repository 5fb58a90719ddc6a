package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"flight-delay/internal/cfg"
	"flight-delay/internal/dataset"
	"flight-delay/internal/flights"
	"flight-delay/internal/ml"
	"flight-delay/internal/server"
	"flight-delay/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrain(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data.csv")
	require.NoError(t, dataset.WriteFile(dataPath, dataset.GenerateSample(1500, 3)))

	params := ml.DefaultBoosterParams()
	params.NEstimators = 30
	settings := cfg.Settings{
		DataPath:     dataPath,
		ModelPath:    filepath.Join(dir, "models", "delay-model.db"),
		Engine:       "native",
		Booster:      params,
		TrainTimeout: time.Minute,
	}

	run, err := train(context.Background(), settings, nil)
	require.NoError(t, err)
	assert.Equal(t, 1500, run.Rows)
	assert.Equal(t, "native", run.Engine)
	assert.InDelta(t, float64(run.Rows-run.Positives)/float64(run.Positives), run.ScalePosWeight, 1e-9)

	trained, err := server.LoadModel(settings.ModelPath, nil)
	require.NoError(t, err)
	assert.Equal(t, run.ModelID, trained.Info().ModelID)

	labels, err := trained.PredictRecords(flights.Records([]flights.FlightInput{
		{Airline: "Aerolineas Argentinas", FlightType: "N", Month: 3},
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, labels)

	store, err := storage.OpenReadOnly(settings.ModelPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.RecentRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestTrain_MissingData(t *testing.T) {
	_, err := train(context.Background(), cfg.Settings{
		DataPath:  filepath.Join(t.TempDir(), "missing.csv"),
		ModelPath: filepath.Join(t.TempDir(), "delay-model.db"),
		Engine:    "native",
		Booster:   ml.DefaultBoosterParams(),
	}, nil)
	assert.Error(t, err)
}
