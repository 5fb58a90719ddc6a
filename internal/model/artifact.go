package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"flight-delay/internal/features"
	"flight-delay/internal/ml"
)

// FormatVersion is the artifact layout written by MarshalArtifact.
const FormatVersion = 1

// Artifact is the persisted form of a DelayModel.
type Artifact struct {
	FormatVersion  int                  `json:"format_version"`
	ModelID        string               `json:"model_id,omitempty"`
	State          State                `json:"state"`
	Dimensions     []features.Dimension `json:"dimensions"`
	DelayThreshold float64              `json:"delay_threshold"`
	Vocabulary     features.Vocabulary  `json:"vocabulary"`
	Ensemble       *ml.Ensemble         `json:"ensemble,omitempty"`
	TrainedAt      time.Time            `json:"trained_at"`
	TrainingRows   int                  `json:"training_rows"`
	Engine         string               `json:"engine,omitempty"`
}

// ArtifactWriter persists an encoded artifact.
type ArtifactWriter interface {
	SaveArtifact(data []byte) error
}

// ArtifactReader returns a previously persisted artifact.
type ArtifactReader interface {
	LoadArtifact() ([]byte, error)
}

// Artifact snapshots the model.
func (m *DelayModel) Artifact() *Artifact {
	a := &Artifact{
		FormatVersion:  FormatVersion,
		State:          m.state,
		Dimensions:     slices.Clone(m.dims),
		DelayThreshold: m.threshold,
		Engine:         m.engineName,
	}
	if m.state == Fitted {
		a.ModelID = m.info.ModelID
		a.Vocabulary = m.vocabulary.Clone()
		a.Ensemble = m.classifier.Ensemble()
		a.TrainedAt = m.info.TrainedAt
		a.TrainingRows = m.info.TrainingRows
		a.Engine = m.info.Engine
	}
	return a
}

func MarshalArtifact(m *DelayModel) ([]byte, error) {
	data, err := json.Marshal(m.Artifact())
	if err != nil {
		return nil, fmt.Errorf("marshal artifact: %w", err)
	}
	return data, nil
}

// UnmarshalArtifact rebuilds a model from data. A fitted artifact yields a
// Fitted model that can predict but not be trained again.
func UnmarshalArtifact(data []byte, metrics ml.MetricsInterface) (*DelayModel, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	if a.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported artifact format version %d", a.FormatVersion)
	}
	if len(a.Dimensions) == 0 {
		return nil, errors.New("artifact has no feature dimensions")
	}

	m := &DelayModel{
		state:      a.State,
		dims:       a.Dimensions,
		threshold:  a.DelayThreshold,
		engineName: a.Engine,
		metrics:    metrics,
	}
	if a.State != Fitted {
		m.state = Unfitted
		m.classifier = ml.NewClassifier(nil, metrics)
		return m, nil
	}

	if a.Ensemble == nil {
		return nil, errors.New("fitted artifact has no ensemble")
	}
	if a.Ensemble.NumFeatures != len(a.Dimensions) {
		return nil, fmt.Errorf("ensemble expects %d features, artifact has %d dimensions",
			a.Ensemble.NumFeatures, len(a.Dimensions))
	}
	if err := a.Ensemble.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ensemble: %w", err)
	}
	m.classifier = ml.RestoreClassifier(a.Ensemble, metrics)
	m.vocabulary = a.Vocabulary
	m.info = Info{
		ModelID:      a.ModelID,
		TrainedAt:    a.TrainedAt,
		TrainingRows: a.TrainingRows,
		Engine:       a.Engine,
	}
	return m, nil
}

// Save writes the model artifact to w.
func (m *DelayModel) Save(w ArtifactWriter) error {
	data, err := MarshalArtifact(m)
	if err != nil {
		return err
	}
	if err := w.SaveArtifact(data); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// Load reads a model artifact from r.
func Load(r ArtifactReader, metrics ml.MetricsInterface) (*DelayModel, error) {
	data, err := r.LoadArtifact()
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	return UnmarshalArtifact(data, metrics)
}
