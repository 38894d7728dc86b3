// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"bufio"
	"math/big"
	"os"
	"unicode/utf8"

	"github.com/gomlx/exceptions"
	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Field names used by the python version of the datasets.
const (
	pickleDataKey       = "data"
	pickleBatchLabelKey = "batch_label"
	pickleFilenamesKey  = "filenames"
)

// PickleFormat reads the "python version" of the datasets: each file is a pickled dict.
//
// Python 2 pickled the dict keys and strings as `str`, which Python 3 reads as `bytes`: both
// are accepted, and mapped to the RawBatch fields here.
type PickleFormat struct {
	// LabelsKey is the name of the field holding the labels of a batch, e.g. "labels" for CIFAR-10 or
	// "fine_labels" for CIFAR-100.
	LabelsKey string

	// NamesKey is the name of the field holding the class names in the metadata file, e.g. "label_names".
	NamesKey string
}

var _ Format = PickleFormat{}

// ReadBatch implements Format.
func (p PickleFormat) ReadBatch(filePath string, geometry Geometry) (*RawBatch, error) {
	fields, err := unpickleDict(filePath)
	if err != nil {
		return nil, err
	}

	batch := &RawBatch{}
	value, found := fields[pickleDataKey]
	if !found {
		return nil, formatErrorf("batch file %q has no %q field", filePath, pickleDataKey)
	}
	if batch.Data, err = pickleImageBytes(value); err != nil {
		return nil, formatErrorf("batch file %q, field %q: %v", filePath, pickleDataKey, err)
	}

	value, found = fields[p.LabelsKey]
	if !found {
		return nil, formatErrorf("batch file %q has no %q field", filePath, p.LabelsKey)
	}
	if batch.Labels, err = pickleInts(value); err != nil {
		return nil, formatErrorf("batch file %q, field %q: %v", filePath, p.LabelsKey, err)
	}

	// Optional fields.
	if value, found = fields[pickleBatchLabelKey]; found {
		if label, ok := pickleString(value); ok {
			batch.BatchLabel = label
		} else {
			klog.Warningf("batch file %q: ignoring %q field of type %T", filePath, pickleBatchLabelKey, value)
		}
	}
	if value, found = fields[pickleFilenamesKey]; found {
		if batch.Filenames, err = pickleStrings(value); err != nil {
			return nil, formatErrorf("batch file %q, field %q: %v", filePath, pickleFilenamesKey, err)
		}
	}

	if err = batch.validate(filePath, geometry); err != nil {
		return nil, err
	}
	return batch, nil
}

// ReadClassNames implements Format.
func (p PickleFormat) ReadClassNames(filePath string) ([]string, error) {
	fields, err := unpickleDict(filePath)
	if err != nil {
		return nil, err
	}
	value, found := fields[p.NamesKey]
	if !found {
		return nil, formatErrorf("metadata file %q has no %q field", filePath, p.NamesKey)
	}
	names, err := pickleStrings(value)
	if err != nil {
		return nil, formatErrorf("metadata file %q, field %q: %v", filePath, p.NamesKey, err)
	}
	return names, nil
}

// unpickleDict reads a file holding a pickled dict, and returns it keyed by Go strings.
func unpickleDict(filePath string) (map[string]any, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, ioErrorf(err, "failed to open %q", filePath)
	}
	defer func() { _ = f.Close() }()

	u := pickle.NewUnpickler(bufio.NewReader(f))
	u.FindClass = findNumpyClass
	var obj any
	// Unknown opcodes make the unpickler panic.
	if exception := exceptions.Try(func() { obj, err = u.Load() }); exception != nil {
		return nil, formatErrorf("failed to unpickle %q: %v", filePath, exception)
	}
	if err != nil {
		return nil, formatErrorf("failed to unpickle %q: %v", filePath, err)
	}

	var entries []types.DictEntry
	switch dict := obj.(type) {
	case *types.Dict:
		entries = *dict
	case types.Dict:
		entries = dict
	default:
		return nil, formatErrorf("file %q holds a pickled %T, expected a dict", filePath, obj)
	}
	fields := make(map[string]any, len(entries))
	for _, entry := range entries {
		key, ok := pickleString(entry.Key)
		if !ok {
			return nil, formatErrorf("file %q holds a dict with a key of type %T, expected a string", filePath, entry.Key)
		}
		fields[key] = entry.Value
	}
	return fields, nil
}

// pickleString accepts Python 2 `str` (and Python 3 `str`), decoded by gopickle as Go strings,
// and Python 3 `bytes`, decoded as []byte.
func pickleString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func pickleBytes(value any) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	}
	return nil, false
}

func pickleSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case *types.List:
		return *v, true
	case types.List:
		return v, true
	case *types.Tuple:
		return *v, true
	case types.Tuple:
		return v, true
	case []any:
		return v, true
	}
	return nil, false
}

func pickleInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case *big.Int:
		if !v.IsInt64() {
			return 0, errors.Errorf("integer %s out of range", v)
		}
		return int(v.Int64()), nil
	}
	return 0, errors.Errorf("expected an integer, got %T", value)
}

// pickleImageBytes accepts a uint8 numpy array or a raw byte string.
func pickleImageBytes(value any) ([]byte, error) {
	if array, ok := value.(*npArray); ok {
		return array.Bytes()
	}
	if b, ok := pickleBytes(value); ok {
		return b, nil
	}
	return nil, errors.Errorf("expected a uint8 numpy array or bytes, got %T", value)
}

// pickleInts accepts a list (or tuple) of integers, or a 1D integer numpy array.
func pickleInts(value any) ([]int, error) {
	if array, ok := value.(*npArray); ok {
		return array.Ints()
	}
	items, ok := pickleSlice(value)
	if !ok {
		return nil, errors.Errorf("expected a list of integers, got %T", value)
	}
	ints := make([]int, len(items))
	for i, item := range items {
		v, err := pickleInt(item)
		if err != nil {
			return nil, errors.WithMessagef(err, "element #%d", i)
		}
		ints[i] = v
	}
	return ints, nil
}

// pickleStrings accepts a list (or tuple) of UTF-8 encoded strings or bytes.
func pickleStrings(value any) ([]string, error) {
	items, ok := pickleSlice(value)
	if !ok {
		return nil, errors.Errorf("expected a list of strings, got %T", value)
	}
	strs := make([]string, len(items))
	for i, item := range items {
		s, ok := pickleString(item)
		if !ok {
			return nil, errors.Errorf("element #%d: expected a string, got %T", i, item)
		}
		if !utf8.ValidString(s) {
			return nil, errors.Errorf("element #%d: %q is not valid UTF-8", i, s)
		}
		strs[i] = s
	}
	return strs, nil
}
