package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"flight-delay/internal/common"
	"flight-delay/internal/model"
	"flight-delay/internal/storage"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		modelPath = flag.String("model", common.DefaultModelPath, "Path to the model store")
		runs      = flag.Int("runs", 5, "Number of recent training runs to list")
		since     = flag.Duration("since", 0, "List every training run started within this window instead (e.g. 72h)")
	)
	flag.Parse()

	fmt.Printf("Inspecting model store: %s\n", *modelPath)

	store, err := storage.OpenReadOnly(*modelPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open model store")
	}
	defer store.Close()

	data, err := store.LoadArtifact()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load artifact")
	}
	m, err := model.UnmarshalArtifact(data, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid artifact")
	}

	a := m.Artifact()
	fmt.Println("\nArtifact:")
	fmt.Printf("  Format version: %d\n", a.FormatVersion)
	fmt.Printf("  State:          %s\n", a.State)
	fmt.Printf("  Model ID:       %s\n", a.ModelID)
	fmt.Printf("  Engine:         %s\n", a.Engine)
	fmt.Printf("  Trained at:     %s\n", a.TrainedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Training rows:  %d\n", a.TrainingRows)
	fmt.Printf("  Threshold:      %.0f min\n", a.DelayThreshold)
	if a.Ensemble != nil {
		fmt.Printf("  Trees:          %d (max depth %d)\n", len(a.Ensemble.Trees), a.Ensemble.MaxDepth())
	}

	fmt.Println("\nFeature columns:")
	for i, d := range a.Dimensions {
		fmt.Printf("  %2d  %s\n", i, d.Name())
	}

	fmt.Println("\nVocabulary:")
	fmt.Printf("  Airlines (%d):     %s\n", len(a.Vocabulary.Airlines), strings.Join(a.Vocabulary.Airlines, ", "))
	fmt.Printf("  Flight types (%d): %s\n", len(a.Vocabulary.FlightTypes), strings.Join(a.Vocabulary.FlightTypes, ", "))
	fmt.Printf("  Months (%d):       %v\n", len(a.Vocabulary.Months), a.Vocabulary.Months)

	recent, title, err := selectRuns(store, *runs, *since, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read training runs")
	}
	fmt.Printf("\n%s (%d):\n", title, len(recent))
	for _, r := range recent {
		fmt.Printf("  %s  %s  engine=%s rows=%d positives=%d spw=%.2f took=%s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, r.Engine, r.Rows, r.Positives,
			r.ScalePosWeight, r.Duration)
	}
}

// selectRuns lists the runs started within since of now, oldest first, or the
// n most recent runs when since is zero.
func selectRuns(store *storage.Store, n int, since time.Duration, now time.Time) ([]storage.TrainingRun, string, error) {
	if since > 0 {
		runs, err := store.GetRuns(now.Add(-since), now)
		return runs, fmt.Sprintf("Training runs in the last %s", since), err
	}
	runs, err := store.RecentRuns(n)
	return runs, "Recent training runs", err
}
