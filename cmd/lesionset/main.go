// Command lesionset inspects, verifies and summarizes the lesion image splits
// described by a lesionset.yaml configuration.
package main

import (
	"os"
	"time"

	"github.com/Noofbiz/lesionset/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dataDir    string
	logLevel   string

	// fsys is the filesystem every command reads from.
	fsys = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:           "lesionset",
	Short:         "Inspect the skin lesion image datasets",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(logLevel)
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML configuration")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override data_dir from the configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(inspectCmd, verifyCmd, statsCmd, plotCmd, initCmd)
}

// setupLogging configures the global logger for a terminal.
func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	})
}

// loadConfig reads the configuration and applies the flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(fsys, configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("lesionset failed")
	}
}
