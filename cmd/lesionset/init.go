package main

import (
	"github.com/Noofbiz/lesionset/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		exists, err := afero.Exists(fsys, configPath)
		if err != nil {
			return err
		}
		if exists && !initForce {
			return errors.Errorf("%s already exists, use --force to overwrite it", configPath)
		}
		cfg := config.Default()
		if dataDir != "" {
			cfg.DataDir = dataDir
		}
		if err := config.Save(fsys, cfg, configPath); err != nil {
			return errors.Wrapf(err, "failed to write %s", configPath)
		}
		log.Info().Str("path", configPath).Msg("configuration written")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing configuration")
}
