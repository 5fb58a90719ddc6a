package main

import (
	"flag"
	"fmt"

	"flight-delay/internal/common"
	"flight-delay/internal/dataset"
	"flight-delay/internal/features"
	"flight-delay/internal/model"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		out  = flag.String("out", common.DefaultDataPath, "Output CSV path")
		rows = flag.Int("rows", 5000, "Number of flights to generate")
		seed = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating %d sample flights...\n", *rows)
	fmt.Printf("  Seed: %d\n", *seed)
	fmt.Printf("  Output: %s\n", *out)

	records := dataset.GenerateSample(*rows, *seed)

	delayed := 0
	for _, r := range records {
		if d, err := features.MinuteDiff(r.ScheduledAt, r.ActualAt); err == nil && d > model.DelayThreshold {
			delayed++
		}
	}

	if err := dataset.WriteFile(*out, records); err != nil {
		log.Fatal().Err(err).Msg("failed to write sample data")
	}

	fmt.Printf("✓ Wrote %d flights (%d delayed) to %s\n", len(records), delayed, *out)
}
