// Package config loads the YAML file that describes where the lesion data
// lives and how it is preprocessed and batched.
package config

import (
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/Noofbiz/lesionset/datasets"
	"github.com/Noofbiz/lesionset/transforms"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for the configuration.
const DefaultPath = "lesionset.yaml"

var splitNames = [...]string{"train", "val", "test"}

// Splits groups one value per dataset partition.
type Splits[T any] struct {
	Train T `yaml:"train"`
	Val   T `yaml:"val"`
	Test  T `yaml:"test"`
}

// Config is the content of the configuration file.
type Config struct {
	// DataDir holds the CSV files and the image directories.
	DataDir string `yaml:"data_dir"`

	ImageSize int        `yaml:"image_size"`
	Mean      [3]float32 `yaml:"mean,flow"`
	Std       [3]float32 `yaml:"std,flow"`

	BatchSize int   `yaml:"batch_size"`
	Seed      int64 `yaml:"seed"`
	Workers   int   `yaml:"workers"`

	// Missing is the missing-file policy: error, skip or placeholder.
	Missing string `yaml:"missing"`

	// TestShuffle keeps the test loader shuffled. Nil means true.
	TestShuffle *bool `yaml:"test_shuffle,omitempty"`

	// Splits are the CSV driven datasets.
	Splits Splits[datasets.SplitSpec] `yaml:"splits"`

	// Folders are image-folder roots relative to DataDir, one class per
	// subdirectory. Empty entries are not built.
	Folders Splits[string] `yaml:"folders,omitempty"`
}

// Default returns the configuration of the ISIC 2017 challenge layout.
func Default() *Config {
	tc := transforms.DefaultConfig()
	return &Config{
		DataDir:   "data",
		ImageSize: tc.Size,
		Mean:      tc.Mean,
		Std:       tc.Std,
		BatchSize: 32,
		Workers:   1,
		Missing:   datasets.MissingError.String(),
		Splits: Splits[datasets.SplitSpec]{
			Train: datasets.SplitSpec{
				CSV:         "ISIC-2017_Training_Part3_GroundTruth.csv",
				IDColumn:    "image_id",
				LabelColumn: "melanoma",
				ImageDir:    "ISIC-2017_Training_Data",
			},
			Val: datasets.SplitSpec{
				CSV:         "ISIC-2017_Validation_Part3_GroundTruth.csv",
				IDColumn:    "image_id",
				LabelColumn: "melanoma",
				ImageDir:    "ISIC-2017_Validation_Data",
			},
			Test: datasets.SplitSpec{
				CSV:         "ISIC-2017_Test_v2_Part3_GroundTruth.csv",
				IDColumn:    "image_id",
				LabelColumn: "melanoma",
				ImageDir:    "ISIC-2017_Test_v2_Data",
			},
		},
	}
}

// Load reads the YAML file at path on fsys. Fields absent from the file keep
// the values of Default.
func Load(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessagef(err, "invalid config %s", path)
	}
	log.Debug().Str("path", path).Str("data_dir", cfg.DataDir).Msg("config loaded")
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default when path does not
// exist.
func LoadOrDefault(fsys afero.Fs, path string) (*Config, error) {
	ok, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info().Str("path", path).Msg("no config file, using defaults")
		return Default(), nil
	}
	return Load(fsys, path)
}

// Save writes cfg as YAML to path, creating its directory.
func Save(fsys afero.Fs, cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	return afero.WriteFile(fsys, path, data, 0o644)
}

// Validate reports every problem found, joined in one error.
func (c *Config) Validate() error {
	var problems []error
	if c.DataDir == "" {
		problems = append(problems, errors.New("data_dir is empty"))
	}
	if c.BatchSize < 1 {
		problems = append(problems, errors.Errorf("batch_size must be >= 1, got %d", c.BatchSize))
	}
	if c.Workers < 0 {
		problems = append(problems, errors.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if err := c.Transform().Validate(); err != nil {
		problems = append(problems, err)
	}
	if _, err := datasets.ParseMissingPolicy(c.Missing); err != nil {
		problems = append(problems, err)
	}
	for i, s := range []datasets.SplitSpec{c.Splits.Train, c.Splits.Val, c.Splits.Test} {
		if s.CSV == "" {
			continue
		}
		if s.IDColumn == "" || s.LabelColumn == "" {
			problems = append(problems, errors.Errorf("split %s needs id_column and label_column", splitNames[i]))
		}
	}
	return joinErrors(problems)
}

// Transform returns the transform configuration.
func (c *Config) Transform() transforms.Config {
	return transforms.Config{Size: c.ImageSize, Mean: c.Mean, Std: c.Std}
}

// MissingPolicy returns the parsed missing-file policy.
func (c *Config) MissingPolicy() datasets.MissingPolicy {
	p, _ := datasets.ParseMissingPolicy(c.Missing)
	return p
}

// ShuffleTest reports whether the test loader shuffles.
func (c *Config) ShuffleTest() bool {
	return c.TestShuffle == nil || *c.TestShuffle
}

// FolderPath joins root to DataDir. An empty root stays empty.
func (c *Config) FolderPath(root string) string {
	if root == "" {
		return ""
	}
	return filepath.Join(c.DataDir, root)
}

// joinErrors joins problems, returning nil for none.
func joinErrors(problems []error) error {
	if len(problems) == 0 {
		return nil
	}
	return stderrors.Join(problems...)
}
