// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"fmt"
	"slices"
	"sort"

	"github.com/pkg/errors"
)

// Source describes one distribution of the dataset: where to download it from, and how its
// files are laid out once extracted.
type Source struct {
	// Name used to select the source in Config.
	Name string

	// URL of the archive.
	URL string

	// Checksum is the sha256 of the archive, verified after download. Optional.
	Checksum string

	// SubDir is the directory created when extracting the archive, relative to the data directory.
	SubDir string

	// Format of the batch and metadata files.
	Format Format

	// TrainFiles, TestFile and MetaFile are relative to SubDir.
	TrainFiles []string
	TestFile   string
	MetaFile   string

	// ImagesPerTrainFile is the number of images in each training file.
	ImagesPerTrainFile int

	// NumClasses is the number of distinct labels.
	NumClasses int

	// Geometry of the images.
	Geometry Geometry
}

// Names of the known sources.
const (
	C10Name        = "cifar-10"
	C10BinaryName  = "cifar-10-binary"
	C100Name       = "cifar-100"
	C100CoarseName = "cifar-100-coarse"
	C100BinaryName = "cifar-100-binary"
)

const (
	c10TrainFiles    = 5
	c10ImagesPerFile = 10000
)

func c10TrainFileNames(suffix string) []string {
	names := make([]string, c10TrainFiles)
	for i := range names {
		names[i] = fmt.Sprintf("data_batch_%d%s", i+1, suffix)
	}
	return names
}

var sources = map[string]*Source{
	C10Name: {
		Name:               C10Name,
		URL:                "https://www.cs.toronto.edu/~kriz/cifar-10-python.tar.gz",
		SubDir:             "cifar-10-batches-py",
		Format:             PickleFormat{LabelsKey: "labels", NamesKey: "label_names"},
		TrainFiles:         c10TrainFileNames(""),
		TestFile:           "test_batch",
		MetaFile:           "batches.meta",
		ImagesPerTrainFile: c10ImagesPerFile,
		NumClasses:         10,
		Geometry:           DefaultGeometry,
	},
	C10BinaryName: {
		Name:               C10BinaryName,
		URL:                "https://www.cs.toronto.edu/~kriz/cifar-10-binary.tar.gz",
		Checksum:           "c4a38c50a1bc5f3a1c5537f2155ab9d68f9f25eb1ed8d9ddda3db29a59bca1dd",
		SubDir:             "cifar-10-batches-bin",
		Format:             BinaryFormat{LabelBytes: 1, LabelIndex: 0},
		TrainFiles:         c10TrainFileNames(".bin"),
		TestFile:           "test_batch.bin",
		MetaFile:           "batches.meta.txt",
		ImagesPerTrainFile: c10ImagesPerFile,
		NumClasses:         10,
		Geometry:           DefaultGeometry,
	},
	C100Name: {
		Name:               C100Name,
		URL:                "https://www.cs.toronto.edu/~kriz/cifar-100-python.tar.gz",
		SubDir:             "cifar-100-python",
		Format:             PickleFormat{LabelsKey: "fine_labels", NamesKey: "fine_label_names"},
		TrainFiles:         []string{"train"},
		TestFile:           "test",
		MetaFile:           "meta",
		ImagesPerTrainFile: 50000,
		NumClasses:         100,
		Geometry:           DefaultGeometry,
	},
	C100CoarseName: {
		Name:               C100CoarseName,
		URL:                "https://www.cs.toronto.edu/~kriz/cifar-100-python.tar.gz",
		SubDir:             "cifar-100-python",
		Format:             PickleFormat{LabelsKey: "coarse_labels", NamesKey: "coarse_label_names"},
		TrainFiles:         []string{"train"},
		TestFile:           "test",
		MetaFile:           "meta",
		ImagesPerTrainFile: 50000,
		NumClasses:         20,
		Geometry:           DefaultGeometry,
	},
	C100BinaryName: {
		Name:               C100BinaryName,
		URL:                "https://www.cs.toronto.edu/~kriz/cifar-100-binary.tar.gz",
		Checksum:           "58a81ae192c23a4be8b1804d68e518ed807d710a4eb253b1f2a199162a40d8ec",
		SubDir:             "cifar-100-binary",
		Format:             BinaryFormat{LabelBytes: 2, LabelIndex: 1}, // Fine label, discard the coarse one.
		TrainFiles:         []string{"train.bin"},
		TestFile:           "test.bin",
		MetaFile:           "fine_label_names.txt",
		ImagesPerTrainFile: 50000,
		NumClasses:         100,
		Geometry:           DefaultGeometry,
	},
}

// LookupSource returns a copy of the named source, so it can be modified freely.
func LookupSource(name string) (*Source, error) {
	src, found := sources[name]
	if !found {
		return nil, errors.Errorf("unknown source %q, valid sources are %v", name, SourceNames())
	}
	clone := *src
	clone.TrainFiles = slices.Clone(src.TrainFiles)
	return &clone, nil
}

// SourceNames returns the names of the known sources, sorted.
func SourceNames() []string {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
