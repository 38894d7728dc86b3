// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the parameters of a Loader. Create it with DefaultConfig or LoadConfig, and
// adjust the fields as needed.
//
// The geometry and the number of classes are given explicitly here, and carried as is by the
// Loader: the default values come from the selected Source.
type Config struct {
	// DataDir is where the archive is downloaded and extracted. It may start with "~".
	DataDir string `yaml:"data_dir"`

	// Source is the name of the dataset distribution, see SourceNames.
	Source string `yaml:"source"`

	// URL overrides the source URL, e.g. to use a mirror. Optional.
	URL string `yaml:"url,omitempty"`

	// Channels, Height and Width are the geometry of the stored images.
	Channels int `yaml:"channels"`
	Height   int `yaml:"height"`
	Width    int `yaml:"width"`

	// NumClasses is the number of columns of the one-hot labels.
	NumClasses int `yaml:"num_classes"`

	// ImagesPerTrainFile is the number of images expected in each training file.
	ImagesPerTrainFile int `yaml:"images_per_train_file"`

	// NumTrainFiles is the number of training files to load, at most the number of files of the source.
	NumTrainFiles int `yaml:"num_train_files"`

	// ShowProgress displays a progress bar while downloading.
	ShowProgress bool `yaml:"show_progress"`

	// DownloadTimeout bounds the whole download. Zero means no timeout.
	DownloadTimeout time.Duration `yaml:"download_timeout"`

	// Checksum is the sha256 of the archive, overriding the source's. Optional.
	Checksum string `yaml:"checksum,omitempty"`
}

// DefaultConfig returns the configuration for the CIFAR-10 python version, stored in dataDir.
func DefaultConfig(dataDir string) *Config {
	cfg, err := ConfigForSource(C10Name, dataDir)
	if err != nil {
		panic(err) // The default source is always present.
	}
	return cfg
}

// ConfigForSource returns the configuration with the values of the named source.
func ConfigForSource(sourceName, dataDir string) (*Config, error) {
	src, err := LookupSource(sourceName)
	if err != nil {
		return nil, err
	}
	return &Config{
		DataDir:            dataDir,
		Source:             src.Name,
		Channels:           src.Geometry.Channels,
		Height:             src.Geometry.Height,
		Width:              src.Geometry.Width,
		NumClasses:         src.NumClasses,
		ImagesPerTrainFile: src.ImagesPerTrainFile,
		NumTrainFiles:      len(src.TrainFiles),
	}, nil
}

// LoadConfig reads a YAML configuration file. Fields not set in the file take the default
// values of the source named in it (or of CIFAR-10 if none is given).
//
// The result is not validated, so it can still be completed (e.g. by command-line flags):
// NewLoader calls Config.Validate.
func LoadConfig(filePath string) (*Config, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read configuration file %q", filePath)
	}
	var header struct {
		Source string `yaml:"source"`
	}
	if err = yaml.Unmarshal(contents, &header); err != nil {
		return nil, errors.Wrapf(err, "failed to parse configuration file %q", filePath)
	}
	if header.Source == "" {
		header.Source = C10Name
	}
	cfg, err := ConfigForSource(header.Source, "")
	if err != nil {
		return nil, errors.WithMessagef(err, "configuration file %q", filePath)
	}
	if err = yaml.Unmarshal(contents, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse configuration file %q", filePath)
	}
	return cfg, nil
}

// Geometry of the images, as configured.
func (c *Config) Geometry() Geometry {
	return Geometry{Channels: c.Channels, Height: c.Height, Width: c.Width}
}

// Validate checks that the source is known and that all sizes are positive.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory not set")
	}
	src, err := LookupSource(c.Source)
	if err != nil {
		return err
	}
	if err = c.Geometry().Validate(); err != nil {
		return err
	}
	if c.NumClasses <= 0 {
		return errors.Errorf("invalid number of classes %d, it must be > 0", c.NumClasses)
	}
	if c.ImagesPerTrainFile <= 0 {
		return errors.Errorf("invalid number of images per training file %d, it must be > 0", c.ImagesPerTrainFile)
	}
	if c.NumTrainFiles <= 0 || c.NumTrainFiles > len(src.TrainFiles) {
		return errors.Errorf("invalid number of training files %d for source %q, it must be between 1 and %d",
			c.NumTrainFiles, c.Source, len(src.TrainFiles))
	}
	if c.DownloadTimeout < 0 {
		return errors.Errorf("invalid download timeout %s", c.DownloadTimeout)
	}
	return nil
}
