// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"gonum.org/v1/gonum/mat"
)

// OneHot encodes the class labels as a [len(labels), numClasses] matrix, where row i is 1.0
// at column labels[i] and 0.0 elsewhere.
//
// If numClasses <= 0 it is inferred as max(labels)+1. This is only a fallback: if the
// highest classes are absent from labels, the matrix will have fewer columns than the
// dataset has classes. Pass the number of classes whenever it is known.
//
// Labels must be in [0, numClasses), otherwise an ErrRange error is returned. An empty labels
// slice returns an ErrShape error.
func OneHot(labels []int, numClasses int) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, shapeErrorf("cannot one-hot encode an empty list of labels")
	}
	if numClasses <= 0 {
		numClasses = maxLabel(labels) + 1
	}
	for i, label := range labels {
		if label < 0 || label >= numClasses {
			return nil, rangeErrorf("label #%d is %d, but labels must be in [0, %d)", i, label, numClasses)
		}
	}
	data := make([]float64, len(labels)*numClasses)
	for i, label := range labels {
		data[i*numClasses+label] = 1
	}
	return mat.NewDense(len(labels), numClasses, data), nil
}

func maxLabel(labels []int) int {
	m := labels[0]
	for _, label := range labels[1:] {
		m = max(m, label)
	}
	return m
}

// ClassCounts returns how many times each class in [0, numClasses) appears in labels.
// Labels out of range are ignored.
func ClassCounts(labels []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, label := range labels {
		if label >= 0 && label < numClasses {
			counts[label]++
		}
	}
	return counts
}
