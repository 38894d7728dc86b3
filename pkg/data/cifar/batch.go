// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

// RawBatch is the contents of one batch file, before conversion.
type RawBatch struct {
	// Data holds the images bytes, each image stored as [channels, height, width].
	Data []byte

	// Labels holds one class id per image.
	Labels []int

	// BatchLabel is the description stored in the batch file, if any.
	BatchLabel string

	// Filenames holds the original file name of each image, if stored in the batch file.
	Filenames []string
}

// NumImages in the batch.
func (b *RawBatch) NumImages() int { return len(b.Labels) }

// validate checks that Data holds exactly one image per label.
func (b *RawBatch) validate(filePath string, geometry Geometry) error {
	if err := geometry.Validate(); err != nil {
		return err
	}
	numImages := len(b.Data) / geometry.ImageSize()
	if len(b.Data)%geometry.ImageSize() != 0 {
		return formatErrorf("batch file %q: %d data bytes is not a multiple of the image size %d %s",
			filePath, len(b.Data), geometry.ImageSize(), geometry)
	}
	if numImages != len(b.Labels) {
		return formatErrorf("batch file %q has %d images but %d labels", filePath, numImages, len(b.Labels))
	}
	if b.Filenames != nil && len(b.Filenames) != len(b.Labels) {
		return formatErrorf("batch file %q has %d labels but %d file names", filePath, len(b.Labels), len(b.Filenames))
	}
	return nil
}

// Format reads the files of one distribution of the dataset.
type Format interface {
	// ReadBatch reads one batch file.
	//
	// It returns an ErrIO error if the file is missing or unreadable, and an ErrFormat error if the
	// contents don't have the expected fields, or their lengths are inconsistent with the geometry.
	ReadBatch(filePath string, geometry Geometry) (*RawBatch, error)

	// ReadClassNames reads the class names, in class id order, from the metadata file.
	ReadClassNames(filePath string) ([]string, error)
}
