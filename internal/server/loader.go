package server

import (
	"errors"

	"flight-delay/internal/ml"
	"flight-delay/internal/model"
	"flight-delay/internal/storage"

	"github.com/rs/zerolog/log"
)

// LoadModel opens the model store at path read-only and returns the fitted
// model it holds. Every failure is a *StartupError.
func LoadModel(path string, metrics ml.MetricsInterface) (*model.Trained, error) {
	store, err := storage.OpenReadOnly(path)
	if err != nil {
		return nil, &StartupError{Path: path, Reason: "cannot open model store", Err: err}
	}
	defer store.Close()

	dm, err := model.Load(store, metrics)
	if err != nil {
		if errors.Is(err, storage.ErrArtifactNotFound) {
			return nil, &StartupError{Path: path, Reason: "no model artifact", Err: err}
		}
		return nil, &StartupError{Path: path, Reason: "invalid model artifact", Err: err}
	}

	trained, err := dm.Trained()
	if err != nil {
		return nil, &StartupError{Path: path, Reason: "model is not fitted", Err: err}
	}

	info := trained.Info()
	log.Info().
		Str("model_path", path).
		Str("model_id", info.ModelID).
		Time("trained_at", info.TrainedAt).
		Int("training_rows", info.TrainingRows).
		Str("engine", info.Engine).
		Msg("Model loaded")
	return trained, nil
}
