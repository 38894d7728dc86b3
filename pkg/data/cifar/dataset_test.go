package cifar

import (
	"errors"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallDataset(t *testing.T, labels []int, numClasses int) *Dataset {
	t.Helper()
	images, err := ConvertImages(syntheticImages(0, len(labels), smallGeometry), smallGeometry)
	require.NoError(t, err)
	oneHot, err := OneHot(labels, numClasses)
	require.NoError(t, err)
	return &Dataset{Images: images, Labels: labels, OneHot: oneHot}
}

func TestDatasetValidate(t *testing.T) {
	ds := smallDataset(t, []int{0, 2, 1}, 3)
	require.NoError(t, ds.Validate())
	assert.Equal(t, 3, ds.NumImages())
	assert.Equal(t, 3, ds.NumClasses())
	assert.Equal(t, []int{1, 1, 1}, ds.ClassCounts())

	// Labels and one-hot disagree.
	ds.Labels = []int{0, 1, 1}
	err := ds.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRange), "got %v", err)

	// Number of images and labels disagree.
	ds = smallDataset(t, []int{0, 2, 1}, 3)
	ds.Labels = ds.Labels[:2]
	err = ds.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShape), "got %v", err)

	// Image values out of range.
	ds = smallDataset(t, []int{0, 2, 1}, 3)
	ds.Images.Data[7] = 1.5
	err = ds.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRange), "got %v", err)

	err = (&Dataset{}).Validate()
	assert.True(t, errors.Is(err, ErrShape), "got %v", err)
}

func TestDatasetTensors(t *testing.T) {
	ds := smallDataset(t, []int{4, 0}, 5)
	images, labels, oneHot := ds.Tensors()

	assert.Equal(t, dtypes.Float32, images.Shape().DType)
	assert.Equal(t, []int{2, smallGeometry.Height, smallGeometry.Width, smallGeometry.Channels}, images.Shape().Dimensions)
	imagesValue := images.Value().([][][][]float32)
	assert.Equal(t, ds.Images.At(1, 1, 2, 0), imagesValue[1][1][2][0])

	assert.Equal(t, dtypes.Int64, labels.Shape().DType)
	assert.Equal(t, [][]int64{{4}, {0}}, labels.Value())

	assert.Equal(t, dtypes.Float64, oneHot.Shape().DType)
	assert.Equal(t, [][]float64{{0, 0, 0, 0, 1}, {1, 0, 0, 0, 0}}, oneHot.Value())
}
