// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package cifar downloads the CIFAR-10 and CIFAR-100 datasets and loads them into memory.
// Information about the datasets in https://www.cs.toronto.edu/~kriz/cifar.html
//
// Images are returned as float32 tensors shaped [numImages, height, width, channels], with
// pixels normalized to [0, 1], together with the integer class of each image and its
// one-hot encoding.
//
// Usage:
//
//	loader, err := cifar.NewLoader(cifar.DefaultConfig("~/work/cifar"))
//	if err != nil { ... }
//	if err = loader.Fetch(ctx); err != nil { ... }
//	names, err := loader.LoadClassNames()
//	train, err := loader.LoadTrainingData()
//	test, err := loader.LoadTestData()
//
// The files are stored on disk channel-major (all red values of an image, then all green, then
// all blue). The conversion to the channel-last layout happens in ConvertImages.
package cifar

import "fmt"

// Dimensions of the images, the same for CIFAR-10 and CIFAR-100.
const (
	Width    int = 32
	Height   int = 32
	Channels int = 3
)

// Geometry of the images stored in a batch file.
type Geometry struct {
	Channels, Height, Width int
}

// DefaultGeometry is the geometry of the CIFAR images.
var DefaultGeometry = Geometry{Channels: Channels, Height: Height, Width: Width}

// ImageSize is the number of bytes (and of values) of one image.
func (g Geometry) ImageSize() int {
	return g.Channels * g.Height * g.Width
}

// Validate returns an ErrShape error if any dimension is not positive.
func (g Geometry) Validate() error {
	if g.Channels <= 0 || g.Height <= 0 || g.Width <= 0 {
		return shapeErrorf("invalid image geometry %s: all dimensions must be > 0", g)
	}
	return nil
}

// String implements fmt.Stringer.
func (g Geometry) String() string {
	return fmt.Sprintf("(channels=%d, height=%d, width=%d)", g.Channels, g.Height, g.Width)
}

// C10Labels are the CIFAR-10 class names, in class id order. The same names are stored in the
// dataset metadata file, see Loader.LoadClassNames.
var C10Labels = []string{"airplane", "automobile", "bird", "cat", "deer", "dog", "frog", "horse", "ship", "truck"}
