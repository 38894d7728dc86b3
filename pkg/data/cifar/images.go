// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ToImage converts image i of the tensor back to a Go image, e.g. to display it.
// Images with fewer than 3 channels repeat their last channel, and channels after the third are ignored.
func ToImage(images *ImageTensor, i int) *image.NRGBA {
	g := images.Geometry()
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	values := images.Image(i)
	tensorPos := 0
	for h := 0; h < g.Height; h++ {
		for w := 0; w < g.Width; w++ {
			pix := img.Pix[h*img.Stride+w*4 : h*img.Stride+w*4+4]
			for d := 0; d < 3; d++ {
				pix[d] = toByte(values[tensorPos+min(d, g.Channels-1)])
			}
			pix[3] = 255 // Alpha channel.
			tensorPos += g.Channels
		}
	}
	return img
}

func toByte(v float32) uint8 {
	return uint8(math.Round(float64(min(max(v, 0), 1)) * 255))
}

// Grid composes the first n images of the tensor in a grid with cols columns, each image enlarged
// scale times.
func Grid(images *ImageTensor, n, cols, scale int) (*image.NRGBA, error) {
	if n <= 0 || cols <= 0 || scale <= 0 {
		return nil, errors.Errorf("invalid grid of %d images, %d columns and scale %d: all must be > 0", n, cols, scale)
	}
	n = min(n, images.NumImages())
	if n == 0 {
		return nil, errors.New("no images to draw")
	}
	cols = min(cols, n)
	rows := (n + cols - 1) / cols
	g := images.Geometry()
	tileW, tileH := g.Width*scale, g.Height*scale
	grid := imaging.New(cols*tileW, rows*tileH, color.Black)
	for i := 0; i < n; i++ {
		tile := imaging.Resize(ToImage(images, i), tileW, tileH, imaging.NearestNeighbor)
		grid = imaging.Paste(grid, tile, image.Pt((i%cols)*tileW, (i/cols)*tileH))
	}
	return grid, nil
}

// SaveGrid saves the Grid of the first n images to filePath. The image format is chosen from the
// file extension, e.g. ".png".
func SaveGrid(filePath string, images *ImageTensor, n, cols, scale int) error {
	grid, err := Grid(images, n, cols, scale)
	if err != nil {
		return err
	}
	if err = imaging.Save(grid, filePath); err != nil {
		return errors.Wrapf(err, "failed to save images to %q", filePath)
	}
	return nil
}
