// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gomlx/cifar/pkg/data/downloader"
	"github.com/gomlx/cifar/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Loader downloads one source of the dataset and loads its files into memory.
//
// Every Load* call reads the files from disk again: nothing is cached.
type Loader struct {
	config   Config
	source   *Source
	geometry Geometry
	dataDir  string
	client   downloader.Doer
}

// NewLoader validates the configuration and creates a Loader for it.
func NewLoader(cfg *Config) (*Loader, error) {
	if cfg == nil {
		return nil, errors.New("NewLoader() requires a configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid configuration")
	}
	src, err := LookupSource(cfg.Source)
	if err != nil {
		return nil, err
	}
	dataDir, err := fsutil.ReplaceTildeInDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return &Loader{
		config:   *cfg,
		source:   src,
		geometry: cfg.Geometry(),
		dataDir:  dataDir,
	}, nil
}

// WithHTTPClient sets the client used by Fetch. It takes precedence over Config.DownloadTimeout.
func (l *Loader) WithHTTPClient(client downloader.Doer) *Loader {
	l.client = client
	return l
}

// Config returns a copy of the configuration used by the Loader.
func (l *Loader) Config() Config { return l.config }

// Source returns the dataset distribution being loaded.
func (l *Loader) Source() *Source { return l.source }

// Dir is the directory with the extracted files.
func (l *Loader) Dir() string { return filepath.Join(l.dataDir, l.source.SubDir) }

// URL the archive is downloaded from.
func (l *Loader) URL() string {
	if l.config.URL != "" {
		return l.config.URL
	}
	return l.source.URL
}

func (l *Loader) filePath(name string) string { return filepath.Join(l.Dir(), name) }

// Fetch downloads and extracts the archive into the data directory, if it is not there yet.
// Failures are returned as ErrIO errors.
func (l *Loader) Fetch(ctx context.Context) error {
	fetcher := downloader.New()
	if l.client != nil {
		fetcher.WithClient(l.client)
	} else if l.config.DownloadTimeout > 0 {
		fetcher.WithTimeout(l.config.DownloadTimeout)
	}
	if l.config.ShowProgress {
		fetcher.WithProgress(downloader.ProgressBar(os.Stdout))
	}
	checksum := l.source.Checksum
	if l.config.Checksum != "" {
		checksum = l.config.Checksum
	}
	if checksum != "" {
		fetcher.WithChecksum(checksum)
	}
	if _, err := fetcher.FetchIfMissing(ctx, l.URL(), l.dataDir); err != nil {
		return ioErrorf(err, "failed to fetch %s dataset", l.source.Name)
	}
	return nil
}

// LoadClassNames returns the class names, indexed by class id.
// It returns an ErrFormat error if the number of names is not Config.NumClasses.
func (l *Loader) LoadClassNames() ([]string, error) {
	metaPath := l.filePath(l.source.MetaFile)
	klog.V(1).Infof("Loading data: %s", metaPath)
	names, err := l.source.Format.ReadClassNames(metaPath)
	if err != nil {
		return nil, err
	}
	if len(names) != l.config.NumClasses {
		return nil, formatErrorf("metadata file %q has %d class names, expected %d", metaPath, len(names), l.config.NumClasses)
	}
	return names, nil
}

func (l *Loader) readBatch(name string) (*RawBatch, error) {
	batchPath := l.filePath(name)
	klog.V(1).Infof("Loading data: %s", batchPath)
	return l.source.Format.ReadBatch(batchPath, l.geometry)
}

// LoadTrainingData reads all training files into one Dataset, in file order.
//
// The images tensor is allocated once, for NumTrainFiles * ImagesPerTrainFile images, and each file
// is converted directly into its range. A file with a different number of images returns an
// ErrShape error.
func (l *Loader) LoadTrainingData() (*Dataset, error) {
	files := l.source.TrainFiles[:l.config.NumTrainFiles]
	imagesPerFile := l.config.ImagesPerTrainFile
	numImages := len(files) * imagesPerFile
	imageSize := l.geometry.ImageSize()
	dataset := &Dataset{
		Images: NewImageTensor(numImages, l.geometry),
		Labels: make([]int, numImages),
	}
	for fileIdx, name := range files {
		batch, err := l.readBatch(name)
		if err != nil {
			return nil, err
		}
		if batch.NumImages() != imagesPerFile {
			return nil, shapeErrorf("training file %q has %d images, expected %d",
				l.filePath(name), batch.NumImages(), imagesPerFile)
		}
		begin, end := fileIdx*imagesPerFile, (fileIdx+1)*imagesPerFile
		if _, err = ConvertInto(dataset.Images.Data[begin*imageSize:end*imageSize], batch.Data, l.geometry); err != nil {
			return nil, errors.WithMessagef(err, "training file %q", l.filePath(name))
		}
		copy(dataset.Labels[begin:end], batch.Labels)
	}
	var err error
	dataset.OneHot, err = OneHot(dataset.Labels, l.config.NumClasses)
	if err != nil {
		return nil, errors.WithMessage(err, "training labels")
	}
	return dataset, nil
}

// LoadTestData reads the test file into a Dataset.
func (l *Loader) LoadTestData() (*Dataset, error) {
	batch, err := l.readBatch(l.source.TestFile)
	if err != nil {
		return nil, err
	}
	dataset := &Dataset{Labels: batch.Labels}
	if dataset.Images, err = ConvertImages(batch.Data, l.geometry); err != nil {
		return nil, errors.WithMessagef(err, "test file %q", l.filePath(l.source.TestFile))
	}
	if dataset.OneHot, err = OneHot(dataset.Labels, l.config.NumClasses); err != nil {
		return nil, errors.WithMessage(err, "test labels")
	}
	return dataset, nil
}
