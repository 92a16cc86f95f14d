package main

import (
	"flag"
	"fmt"
	"log"

	"burnout-radar/internal/dataset"
	"burnout-radar/internal/features"
)

func main() {
	var (
		out     = flag.String("out", "data/burnout_sample.csv", "Output file path (.csv or .json)")
		samples = flag.Int("samples", 1000, "Number of samples to generate")
		seed    = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating sample burnout survey data...\n")
	fmt.Printf("  Samples: %d\n", *samples)
	fmt.Printf("  Seed: %d\n", *seed)
	fmt.Printf("  Output: %s\n", *out)

	X, y := dataset.Synthesize(*samples, *seed)

	if err := dataset.Save(*out, features.Names(), X, y, true); err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}

	positives := 0
	for _, label := range y {
		if label == 1 {
			positives++
		}
	}
	fmt.Printf("  Generated %d rows (%d high risk, %d low risk)\n", len(X), positives, len(X)-positives)
	fmt.Printf("✓ Wrote sample dataset to %s\n", *out)
}
