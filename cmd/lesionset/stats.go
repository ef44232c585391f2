package main

import (
	"fmt"

	"github.com/Noofbiz/lesionset/config"
	"github.com/Noofbiz/lesionset/datasets"
	"github.com/Noofbiz/lesionset/loader"
	"github.com/Noofbiz/lesionset/transforms"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	statsSplit string
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute the per-channel mean and std of a split",
	Long: `The stats command resizes and center crops every image of a split,
like the evaluation profile, and prints the channel statistics of the
unnormalized pixels. The result can replace mean and std in the configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return stats(cfg, statsSplit, statsLimit)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsSplit, "split", "train", "split to measure (train, val, test)")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 0, "measure at most this many images (0 = all)")
}

// rawPipeline resizes and crops like EvalPipeline but leaves values in [0, 1].
func rawPipeline(size int) *transforms.Pipeline {
	return transforms.NewDeterministicPipeline("raw", [3]float32{}, [3]float32{1, 1, 1},
		transforms.Resize(size),
		transforms.CenterCrop(size),
	)
}

func stats(cfg *config.Config, splitName string, limit int) error {
	split, err := parseSplit(splitName)
	if err != nil {
		return err
	}
	spec := cfg.Splits.Train
	switch split {
	case loader.Val:
		spec = cfg.Splits.Val
	case loader.Test:
		spec = cfg.Splits.Test
	}
	size := cfg.Transform().Size
	ds, err := datasets.LoadIsicSplit(fsys, cfg.DataDir, spec, transforms.Fixed{Pipeline: rawPipeline(size)},
		transforms.PhaseTest, cfg.MissingPolicy())
	if err != nil {
		return err
	}

	n := ds.Len()
	if limit > 0 {
		n = min(n, limit)
	}
	bar := progressbar.Default(int64(n), "measuring "+string(split))
	var acc transforms.ChannelStats
	for i := range n {
		t, _, err := ds.Example(i)
		if err != nil {
			return err
		}
		if err := acc.Add(t); err != nil {
			return err
		}
		bar.Add(1)
	}
	bar.Finish()

	measured := acc.Config(size)
	log.Info().Int("images", acc.Images()).Stringer("transform", measured).Msg("channel statistics")
	fmt.Printf("mean: [%.4f, %.4f, %.4f]\n", measured.Mean[0], measured.Mean[1], measured.Mean[2])
	fmt.Printf("std: [%.4f, %.4f, %.4f]\n", measured.Std[0], measured.Std[1], measured.Std[2])
	return nil
}
