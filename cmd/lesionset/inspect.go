package main

import (
	"fmt"
	"sort"

	"github.com/Noofbiz/lesionset/config"
	"github.com/Noofbiz/lesionset/loader"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Build every split and print its size, classes and batch memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return inspect(cfg)
	},
}

func inspect(cfg *config.Config) error {
	sets, err := cfg.IsicDatasets(fsys)
	if err != nil {
		return err
	}
	size := cfg.Transform().Size
	batchBytes := uint64(cfg.BatchSize) * 3 * uint64(size) * uint64(size) * 4
	for _, split := range loader.Splits {
		ds := sets[split]
		first := ""
		if ds.Len() > 0 {
			first = ds.Paths()[0]
		}
		batches := (ds.Len() + cfg.BatchSize - 1) / cfg.BatchSize
		log.Info().
			Str("split", string(split)).
			Int("samples", ds.Len()).
			Int("batches", batches).
			Str("batch_memory", humanize.Bytes(batchBytes)).
			Str("first", first).
			Msg("csv split")
		fmt.Printf("%-5s %s samples, classes %s\n", split, humanize.Comma(int64(ds.Len())), formatDistribution(ds.ClassDistribution()))
	}

	folders, err := cfg.FolderDatasets(fsys)
	if err != nil {
		return err
	}
	for _, split := range loader.Splits {
		ds, ok := folders[split]
		if !ok {
			continue
		}
		fmt.Printf("%-5s folder %s\n", split, ds)
	}
	return nil
}

// formatDistribution renders label counts sorted by label.
func formatDistribution(dist map[int]int) string {
	labels := make([]int, 0, len(dist))
	for l := range dist {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	s := ""
	for i, l := range labels {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d:%s", l, humanize.Comma(int64(dist[l])))
	}
	return s
}

// parseSplit converts a --split flag value.
func parseSplit(s string) (loader.Split, error) {
	for _, split := range loader.Splits {
		if string(split) == s {
			return split, nil
		}
	}
	return "", errors.Errorf("unknown split %q, want one of %v", s, loader.Splits)
}
