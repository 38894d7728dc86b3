package cifar

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	ogórek "github.com/kisielk/og-rek"
	"github.com/stretchr/testify/require"
)

// smallGeometry keeps the synthetic datasets small, while still having distinct channels, rows and columns.
var smallGeometry = Geometry{Channels: 3, Height: 2, Width: 4}

// firstTestImage is the synthetic image number of the first test image, so test images differ from
// the training ones.
const firstTestImage = 1000003

// pixel is the value of the synthetic image i at channel c, row h and column w.
func pixel(i, c, h, w int) byte {
	return byte((i*7 + c*31 + h*5 + w*3) % 256)
}

// syntheticImages returns the raw [N, C, H, W] bytes of numImages images, starting at image firstImage.
func syntheticImages(firstImage, numImages int, g Geometry) []byte {
	raw := make([]byte, 0, numImages*g.ImageSize())
	for i := firstImage; i < firstImage+numImages; i++ {
		for c := 0; c < g.Channels; c++ {
			for h := 0; h < g.Height; h++ {
				for w := 0; w < g.Width; w++ {
					raw = append(raw, pixel(i, c, h, w))
				}
			}
		}
	}
	return raw
}

func syntheticLabels(firstImage, numImages, numClasses int) []int {
	labels := make([]int, numImages)
	for i := range labels {
		labels[i] = (firstImage + i) % numClasses
	}
	return labels
}

func anySlice[T any](values []T) []any {
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = v
	}
	return items
}

// writePickle encodes obj with protocol 3, the way Python 3 would, and saves it to filePath.
func writePickle(t *testing.T, filePath string, obj any) {
	t.Helper()
	var buf bytes.Buffer
	enc := ogórek.NewEncoderWithConfig(&buf, &ogórek.EncoderConfig{Protocol: 3})
	require.NoError(t, enc.Encode(obj))
	require.NoError(t, os.WriteFile(filePath, buf.Bytes(), 0644))
}

// pickledBatch returns a batch dict keyed by bytes, as Python 3 reads the original files.
func pickledBatch(data []byte, labelsKey string, labels []int) map[any]any {
	return map[any]any{
		ogórek.Bytes("batch_label"): ogórek.Bytes("synthetic batch"),
		ogórek.Bytes(labelsKey):     anySlice(labels),
		ogórek.Bytes("data"):        ogórek.Bytes(data),
	}
}

func pickledMeta(namesKey string, names []string) map[any]any {
	items := make([]any, len(names))
	for i, name := range names {
		items[i] = ogórek.Bytes(name)
	}
	return map[any]any{ogórek.Bytes(namesKey): items}
}

// numpyPickle builds, opcode by opcode, a protocol 2 pickle of the dict
// {'data': numpy.ndarray(uint8, shape=(N, C*H*W)), 'labels': [...]}, as written by Python 2 with numpy.
func numpyPickle(data []byte, imageSize int, labels []int) []byte {
	var b bytes.Buffer
	shortString := func(s string) {
		b.WriteByte('U') // SHORT_BINSTRING
		b.WriteByte(byte(len(s)))
		b.WriteString(s)
	}
	int1 := func(v int) {
		b.WriteByte('K') // BININT1
		b.WriteByte(byte(v))
	}
	int4 := func(v int32) {
		b.WriteByte('J') // BININT
		_ = binary.Write(&b, binary.LittleEndian, v)
	}

	b.Write([]byte{0x80, 2}) // PROTO 2
	b.WriteByte('}')         // EMPTY_DICT
	b.WriteByte('(')         // MARK

	// Key 'data': numpy array.
	shortString("data")
	b.WriteString("cnumpy.core.multiarray\n_reconstruct\n") // GLOBAL
	b.WriteString("cnumpy\nndarray\n")                      // GLOBAL
	int1(0)
	b.WriteByte(0x85) // TUPLE1
	shortString("b")
	b.WriteByte(0x87) // TUPLE3
	b.WriteByte('R')  // REDUCE
	// Array state: (1, shape, dtype, False, rawData).
	b.WriteByte('(')
	int1(1)
	int4(int32(len(data) / imageSize))
	int4(int32(imageSize))
	b.WriteByte(0x86) // TUPLE2
	b.WriteString("cnumpy\ndtype\n")
	shortString("u1")
	int1(0)
	int1(1)
	b.WriteByte(0x87) // TUPLE3
	b.WriteByte('R')
	// DType state: (3, '|', None, None, None, -1, -1, 0).
	b.WriteByte('(')
	int1(3)
	shortString("|")
	b.WriteString("NNN") // NONE x 3
	int4(-1)
	int4(-1)
	int1(0)
	b.WriteByte('t')  // TUPLE
	b.WriteByte('b')  // BUILD
	b.WriteByte(0x89) // NEWFALSE
	b.WriteByte('T')  // BINSTRING
	_ = binary.Write(&b, binary.LittleEndian, int32(len(data)))
	b.Write(data)
	b.WriteByte('t') // TUPLE
	b.WriteByte('b') // BUILD

	// Key 'labels': list of ints.
	shortString("labels")
	b.WriteByte(']') // EMPTY_LIST
	b.WriteByte('(')
	for _, label := range labels {
		int1(label)
	}
	b.WriteByte('e') // APPENDS

	b.WriteByte('u') // SETITEMS
	b.WriteByte('.') // STOP
	return b.Bytes()
}

// writeBinaryBatch writes records of labelBytes label bytes followed by the image bytes.
// The label is stored at labelIndex, and the other label bytes are set to 0xFF.
func writeBinaryBatch(t *testing.T, filePath string, data []byte, g Geometry, labels []int, labelBytes, labelIndex int) {
	t.Helper()
	var buf bytes.Buffer
	imageSize := g.ImageSize()
	for i, label := range labels {
		for j := 0; j < labelBytes; j++ {
			if j == labelIndex {
				buf.WriteByte(byte(label))
			} else {
				buf.WriteByte(0xFF)
			}
		}
		buf.Write(data[i*imageSize : (i+1)*imageSize])
	}
	require.NoError(t, os.WriteFile(filePath, buf.Bytes(), 0644))
}

// writeC10PickleFiles writes a synthetic CIFAR-10 python distribution under dataDir, with numTrainFiles
// training files of imagesPerFile images, a test file of numTest images and the metadata file.
// Image i of the training set is synthetic image i, and image i of the test set is synthetic image
// firstTestImage+i.
func writeC10PickleFiles(t *testing.T, dataDir string, g Geometry, numTrainFiles, imagesPerFile, numTest int) string {
	t.Helper()
	dir := filepath.Join(dataDir, "cifar-10-batches-py")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for fileIdx := 0; fileIdx < numTrainFiles; fileIdx++ {
		first := fileIdx * imagesPerFile
		writePickle(t, filepath.Join(dir, c10TrainFileNames("")[fileIdx]),
			pickledBatch(syntheticImages(first, imagesPerFile, g), "labels", syntheticLabels(first, imagesPerFile, 10)))
	}
	writePickle(t, filepath.Join(dir, "test_batch"),
		pickledBatch(syntheticImages(firstTestImage, numTest, g), "labels", syntheticLabels(firstTestImage, numTest, 10)))
	writePickle(t, filepath.Join(dir, "batches.meta"), pickledMeta("label_names", C10Labels))
	return dir
}
