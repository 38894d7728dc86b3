package cifar

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryReadBatch(t *testing.T) {
	dir := t.TempDir()
	data := syntheticImages(0, 4, smallGeometry)
	labels := []int{9, 0, 3, 3}

	// CIFAR-10: one label byte.
	filePath := filepath.Join(dir, "data_batch_1.bin")
	writeBinaryBatch(t, filePath, data, smallGeometry, labels, 1, 0)
	raw, err := BinaryFormat{LabelBytes: 1}.ReadBatch(filePath, smallGeometry)
	require.NoError(t, err)
	assert.Equal(t, data, raw.Data)
	assert.Equal(t, labels, raw.Labels)

	// CIFAR-100: coarse label followed by the fine label.
	filePath = filepath.Join(dir, "train.bin")
	writeBinaryBatch(t, filePath, data, smallGeometry, labels, 2, 1)
	raw, err = BinaryFormat{LabelBytes: 2, LabelIndex: 1}.ReadBatch(filePath, smallGeometry)
	require.NoError(t, err)
	assert.Equal(t, data, raw.Data)
	assert.Equal(t, labels, raw.Labels)

	// Reading the coarse label instead, set to 0xFF by writeBinaryBatch.
	raw, err = BinaryFormat{LabelBytes: 2, LabelIndex: 0}.ReadBatch(filePath, smallGeometry)
	require.NoError(t, err)
	assert.Equal(t, []int{255, 255, 255, 255}, raw.Labels)
}

func TestBinaryReadBatchErrors(t *testing.T) {
	dir := t.TempDir()
	format := BinaryFormat{LabelBytes: 1}

	_, err := format.ReadBatch(filepath.Join(dir, "missing.bin"), smallGeometry)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO), "got %v", err)

	// Truncated last record.
	filePath := filepath.Join(dir, "truncated.bin")
	writeBinaryBatch(t, filePath, syntheticImages(0, 2, smallGeometry), smallGeometry, []int{1, 2}, 1, 0)
	contents, err := os.ReadFile(filePath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filePath, contents[:len(contents)-3], 0644))
	_, err = format.ReadBatch(filePath, smallGeometry)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat), "got %v", err)

	_, err = BinaryFormat{LabelBytes: 1, LabelIndex: 1}.ReadBatch(filePath, smallGeometry)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat), "got %v", err)

	_, err = format.ReadBatch(filePath, Geometry{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShape), "got %v", err)
}

func TestBinaryReadClassNames(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "batches.meta.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("airplane\nautomobile\n\nbird\n  \n"), 0644))
	names, err := BinaryFormat{LabelBytes: 1}.ReadClassNames(filePath)
	require.NoError(t, err)
	assert.Equal(t, []string{"airplane", "automobile", "bird"}, names)

	_, err = BinaryFormat{LabelBytes: 1}.ReadClassNames(filePath + ".missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO), "got %v", err)
}
