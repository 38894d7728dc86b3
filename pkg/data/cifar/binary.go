// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// BinaryFormat reads the "binary version" of the datasets: each file is a sequence of fixed-size
// records, made of LabelBytes label bytes followed by the image bytes.
//
// CIFAR-10 uses one label byte. CIFAR-100 uses two: the coarse label followed by the fine label.
// Class names are stored in a text file, one name per line.
type BinaryFormat struct {
	// LabelBytes is the number of label bytes preceding each image.
	LabelBytes int

	// LabelIndex selects which of the label bytes is used as the label.
	LabelIndex int
}

var _ Format = BinaryFormat{}

// ReadBatch implements Format.
func (b BinaryFormat) ReadBatch(filePath string, geometry Geometry) (*RawBatch, error) {
	if err := geometry.Validate(); err != nil {
		return nil, err
	}
	if b.LabelBytes <= 0 || b.LabelIndex < 0 || b.LabelIndex >= b.LabelBytes {
		return nil, formatErrorf("invalid binary format: label index %d for %d label bytes", b.LabelIndex, b.LabelBytes)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, ioErrorf(err, "failed to open data file %q", filePath)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return nil, ioErrorf(err, "failed to stat data file %q", filePath)
	}

	imageSize := geometry.ImageSize()
	recordSize := b.LabelBytes + imageSize
	if info.Size()%int64(recordSize) != 0 {
		return nil, formatErrorf("data file %q has %d bytes, not a multiple of the record size %d (%d label bytes + image %s)",
			filePath, info.Size(), recordSize, b.LabelBytes, geometry)
	}
	numImages := int(info.Size() / int64(recordSize))
	batch := &RawBatch{
		Data:   make([]byte, numImages*imageSize),
		Labels: make([]int, numImages),
	}
	r := bufio.NewReader(f)
	record := make([]byte, recordSize)
	for exampleIdx := 0; exampleIdx < numImages; exampleIdx++ {
		if _, err = io.ReadFull(r, record); err != nil {
			return nil, ioErrorf(err, "reading example %d (out of %d) from %q", exampleIdx, numImages, filePath)
		}
		batch.Labels[exampleIdx] = int(record[b.LabelIndex])
		copy(batch.Data[exampleIdx*imageSize:], record[b.LabelBytes:])
	}
	if err = batch.validate(filePath, geometry); err != nil {
		return nil, err
	}
	return batch, nil
}

// ReadClassNames implements Format. Blank lines are skipped.
func (b BinaryFormat) ReadClassNames(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, ioErrorf(err, "failed to open class names file %q", filePath)
	}
	defer func() { _ = f.Close() }()
	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			names = append(names, line)
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, ioErrorf(err, "failed reading class names file %q", filePath)
	}
	return names, nil
}
