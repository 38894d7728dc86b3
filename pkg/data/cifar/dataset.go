// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"gonum.org/v1/gonum/mat"
)

// Dataset holds the images of a split of the dataset with their labels.
//
// Images.NumImages() == len(Labels) == number of rows of OneHot.
type Dataset struct {
	// Images shaped [numImages, height, width, channels], with values in [0, 1].
	Images *ImageTensor

	// Labels holds the class id of each image.
	Labels []int

	// OneHot is the [numImages, numClasses] one-hot encoding of Labels.
	OneHot *mat.Dense
}

// NumImages in the dataset.
func (d *Dataset) NumImages() int { return len(d.Labels) }

// NumClasses is the number of columns of the one-hot labels.
func (d *Dataset) NumClasses() int {
	if d.OneHot == nil {
		return 0
	}
	_, cols := d.OneHot.Dims()
	return cols
}

// ClassCounts returns how many images there are of each class.
func (d *Dataset) ClassCounts() []int {
	return ClassCounts(d.Labels, d.NumClasses())
}

// Validate checks that the images, labels and one-hot labels are consistent.
//
// It returns an ErrShape error if the sizes don't match, and an ErrRange error if an image value is
// out of [0, 1] or a one-hot row doesn't encode its label.
func (d *Dataset) Validate() error {
	if d.Images == nil || d.OneHot == nil {
		return shapeErrorf("dataset is missing the images or the one-hot labels")
	}
	numImages := d.Images.NumImages()
	if len(d.Images.Data) != numImages*d.Images.Geometry().ImageSize() {
		return shapeErrorf("images tensor shaped %v has %d values", d.Images.Shape, len(d.Images.Data))
	}
	rows, numClasses := d.OneHot.Dims()
	if numImages != len(d.Labels) || numImages != rows {
		return shapeErrorf("dataset has %d images, %d labels and %d one-hot rows", numImages, len(d.Labels), rows)
	}
	for i, v := range d.Images.Data {
		if v < 0 || v > 1 {
			return rangeErrorf("image value #%d is %g, out of [0, 1]", i, v)
		}
	}
	for row, label := range d.Labels {
		if label < 0 || label >= numClasses {
			return rangeErrorf("label #%d is %d, but labels must be in [0, %d)", row, label, numClasses)
		}
		for col := 0; col < numClasses; col++ {
			want := 0.0
			if col == label {
				want = 1.0
			}
			if d.OneHot.At(row, col) != want {
				return rangeErrorf("one-hot row #%d doesn't encode label %d", row, label)
			}
		}
	}
	return nil
}
