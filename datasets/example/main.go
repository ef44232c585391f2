package main

// Example command that builds the train, val and test loaders from a
// lesionset.yaml configuration, pulls one batch from each and converts it to
// gomlx tensors.
//
// Images are decoded lazily: the datasets only hold the path list and the
// label table, and every batch reads its images from disk again.
//
// Usage:
//   go run ./datasets/example -config lesionset.yaml
//
// Without a configuration file the ISIC 2017 layout under ./data is assumed.

import (
	"flag"
	"fmt"
	"os"

	"github.com/Noofbiz/lesionset/config"
	"github.com/Noofbiz/lesionset/loader"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML configuration")
	batchSize := flag.Int("batch-size", 4, "batch size of the demo loaders")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	fsys := afero.NewOsFs()
	cfg, err := config.LoadOrDefault(fsys, *configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg.BatchSize = *batchSize

	loaders, err := cfg.Loaders(fsys)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build loaders")
	}

	for _, split := range loader.Splits {
		dl := loaders[split]
		fmt.Println(dl)

		batch, err := dl.Next()
		if err != nil {
			log.Fatal().Err(err).Str("split", string(split)).Msg("failed to load a batch")
		}
		images, labels := batch.Tensors()
		fmt.Printf("  images: %v\n", images.Shape())
		fmt.Printf("  labels: %v %v\n", labels.Shape(), batch.Labels)
	}

	fmt.Println("\nExample completed successfully!")
}
