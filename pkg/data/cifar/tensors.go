// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"gonum.org/v1/gonum/mat"
)

// Tensors copies the dataset into GoMLX tensors:
//
//   - images: float32 shaped [numImages, height, width, channels];
//   - labels: int64 shaped [numImages, 1];
//   - oneHot: float64 shaped [numImages, numClasses].
func (d *Dataset) Tensors() (images, labels, oneHot *tensors.Tensor) {
	images = tensors.FromFlatDataAndDimensions(d.Images.Data, d.Images.Shape[:]...)

	labels64 := make([]int64, len(d.Labels))
	for i, label := range d.Labels {
		labels64[i] = int64(label)
	}
	labels = tensors.FromFlatDataAndDimensions(labels64, len(labels64), 1)

	// DenseCopyOf guarantees a contiguous row-major layout.
	rows, cols := d.OneHot.Dims()
	oneHot = tensors.FromFlatDataAndDimensions(mat.DenseCopyOf(d.OneHot).RawMatrix().Data, rows, cols)
	return
}
