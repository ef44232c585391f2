package main

import (
	"fmt"

	"github.com/Noofbiz/lesionset/config"
	"github.com/Noofbiz/lesionset/datasets"
	"github.com/Noofbiz/lesionset/loader"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Decode every image of every split and report missing or corrupt files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return verify(cfg)
	},
}

type verifyReport struct {
	checked int
	missing []string
	corrupt []string
}

func verify(cfg *config.Config) error {
	// Every missing file must surface here, whatever the configured policy.
	strict := *cfg
	strict.Missing = datasets.MissingError.String()
	sets, err := strict.IsicDatasets(fsys)
	if err != nil {
		return err
	}

	total := 0
	for _, ds := range sets {
		total += ds.Len()
	}
	bar := progressbar.Default(int64(total), "verifying")

	var report verifyReport
	for _, split := range loader.Splits {
		ds := sets[split]
		for i := range ds.Len() {
			report.checked++
			_, _, err := ds.Example(i)
			bar.Add(1)
			if err == nil {
				continue
			}
			path, _, _ := ds.GetItem(i)
			switch {
			case errors.Is(err, datasets.ErrMissingImage):
				report.missing = append(report.missing, path)
			case errors.Is(err, datasets.ErrCorruptImage):
				report.corrupt = append(report.corrupt, path)
			default:
				return err
			}
		}
	}
	bar.Finish()

	for _, p := range report.missing {
		log.Warn().Str("path", p).Msg("missing image")
	}
	for _, p := range report.corrupt {
		log.Warn().Str("path", p).Msg("corrupt image")
	}
	fmt.Printf("checked %d images: %d missing, %d corrupt\n", report.checked, len(report.missing), len(report.corrupt))
	if len(report.missing)+len(report.corrupt) > 0 {
		return errors.Errorf("%d unreadable images", len(report.missing)+len(report.corrupt))
	}
	return nil
}
