// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"github.com/gomlx/gopjrt/dtypes"
)

// ImageTensor holds images in the canonical layout [numImages, height, width, channels],
// row-major, so the channel is the fastest-varying axis. Values are in [0, 1].
type ImageTensor struct {
	// Shape is [numImages, height, width, channels].
	Shape [4]int

	// Data holds the flat values, len(Data) == Shape[0]*Shape[1]*Shape[2]*Shape[3].
	Data []float32
}

// NewImageTensor allocates a zero-filled tensor for numImages images of the given geometry.
func NewImageTensor(numImages int, geometry Geometry) *ImageTensor {
	return &ImageTensor{
		Shape: [4]int{numImages, geometry.Height, geometry.Width, geometry.Channels},
		Data:  make([]float32, numImages*geometry.ImageSize()),
	}
}

// NumImages is the first dimension of the tensor.
func (t *ImageTensor) NumImages() int { return t.Shape[0] }

// Geometry of the images in the tensor.
func (t *ImageTensor) Geometry() Geometry {
	return Geometry{Height: t.Shape[1], Width: t.Shape[2], Channels: t.Shape[3]}
}

// At returns the value of image i at the given row (h), column (w) and channel (c).
func (t *ImageTensor) At(i, h, w, c int) float32 {
	return t.Data[((i*t.Shape[1]+h)*t.Shape[2]+w)*t.Shape[3]+c]
}

// Image returns the flat [height, width, channels] values of image i. It shares the tensor storage.
func (t *ImageTensor) Image(i int) []float32 {
	size := t.Shape[1] * t.Shape[2] * t.Shape[3]
	return t.Data[i*size : (i+1)*size]
}

// Slice returns a tensor with the images [begin, end). It shares the tensor storage.
func (t *ImageTensor) Slice(begin, end int) *ImageTensor {
	size := t.Shape[1] * t.Shape[2] * t.Shape[3]
	return &ImageTensor{
		Shape: [4]int{end - begin, t.Shape[1], t.Shape[2], t.Shape[3]},
		Data:  t.Data[begin*size : end*size],
	}
}

// NumImagesInBuffer returns how many images of the given geometry are in a raw buffer of
// length bufferLen, or an ErrShape error if the length is not a multiple of the image size.
func NumImagesInBuffer(bufferLen int, geometry Geometry) (int, error) {
	if err := geometry.Validate(); err != nil {
		return 0, err
	}
	imageSize := geometry.ImageSize()
	if bufferLen%imageSize != 0 {
		return 0, shapeErrorf("buffer of %d bytes is not a whole number of images of %d bytes %s",
			bufferLen, imageSize, geometry)
	}
	return bufferLen / imageSize, nil
}

// ConvertImages converts the raw bytes of a batch into a new ImageTensor.
//
// The raw buffer holds N images, each stored channel-major: [N, channels, height, width].
// Each byte is normalized to [0, 1] by dividing it by 255, and the axes are transposed to
// [N, height, width, channels].
//
// It returns an ErrShape error if len(raw) is not N*channels*height*width for some integer N.
func ConvertImages(raw []byte, geometry Geometry) (*ImageTensor, error) {
	numImages, err := NumImagesInBuffer(len(raw), geometry)
	if err != nil {
		return nil, err
	}
	images := NewImageTensor(numImages, geometry)
	if _, err = ConvertInto(images.Data, raw, geometry); err != nil {
		return nil, err
	}
	return images, nil
}

// ConvertInto is like ConvertImages, but writes into dst, which must have exactly len(raw) elements.
// It returns the number of images converted.
//
// It allows converting directly into a slice of a larger pre-allocated tensor.
func ConvertInto[T dtypes.GoFloat](dst []T, raw []byte, geometry Geometry) (numImages int, err error) {
	numImages, err = NumImagesInBuffer(len(raw), geometry)
	if err != nil {
		return 0, err
	}
	if len(dst) != len(raw) {
		return 0, shapeErrorf("destination has %d values, but %d images %s need %d",
			len(dst), numImages, geometry, len(raw))
	}

	// Source strides for the [N, C, H, W] view of raw.
	imageSize := geometry.ImageSize()
	channelStride := geometry.Height * geometry.Width
	rowStride := geometry.Width

	// Output in [N, H, W, C] order: dst is written sequentially.
	pos := 0
	for i := 0; i < numImages; i++ {
		src := raw[i*imageSize : (i+1)*imageSize]
		for h := 0; h < geometry.Height; h++ {
			for w := 0; w < geometry.Width; w++ {
				for c := 0; c < geometry.Channels; c++ {
					dst[pos] = T(src[c*channelStride+h*rowStride+w]) / T(255)
					pos++
				}
			}
		}
	}
	return numImages, nil
}
