// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cifar

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pickled numpy arrays are stored as a call to numpy's `_reconstruct(ndarray, (0,), b'b')`, followed by
// a BUILD with the state `(version, shape, dtype, isFortran, rawData)`. The dtype is itself a call
// to `numpy.dtype(descr, align, copy)` followed by a BUILD with `(version, byteOrder, ...)`.
//
// The types below implement just enough of it (gopickle's types.Callable and types.PyStateSettable)
// to get the raw bytes of C-ordered integer arrays back.

// findNumpyClass is used as gopickle's Unpickler.FindClass, called for classes the unpickler
// doesn't know about.
func findNumpyClass(module, name string) (any, error) {
	switch module + "." + name {
	case "numpy.core.multiarray._reconstruct", "numpy._core.multiarray._reconstruct":
		return npReconstruct{}, nil
	case "numpy.dtype":
		return npDTypeClass{}, nil
	case "numpy.ndarray":
		return npNDArrayClass{}, nil
	}
	return nil, errors.Errorf("unsupported pickled class %s.%s", module, name)
}

type npNDArrayClass struct{}

type npReconstruct struct{}

// Call implements gopickle types.Callable. The arguments (class, initial shape, dummy type code) are
// irrelevant: the contents come with the state set later.
func (npReconstruct) Call(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("numpy _reconstruct called without arguments")
	}
	if _, ok := args[0].(npNDArrayClass); !ok {
		return nil, errors.Errorf("numpy _reconstruct of unsupported type %T", args[0])
	}
	return &npArray{}, nil
}

type npDTypeClass struct{}

// Call implements gopickle types.Callable: numpy.dtype(descr, align, copy).
func (npDTypeClass) Call(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("numpy.dtype called without arguments")
	}
	descr, ok := pickleString(args[0])
	if !ok {
		return nil, errors.Errorf("numpy.dtype called with a descriptor of type %T", args[0])
	}
	dtype := &npDType{byteOrder: "|"}
	if len(descr) > 0 && strings.ContainsRune("<>|=", rune(descr[0])) {
		dtype.byteOrder, descr = descr[:1], descr[1:]
	}
	if len(descr) < 2 {
		return nil, errors.Errorf("unsupported numpy.dtype %q", descr)
	}
	dtype.kind = descr[0]
	size, err := strconv.Atoi(descr[1:])
	if err != nil || size <= 0 {
		return nil, errors.Errorf("unsupported numpy.dtype %q", descr)
	}
	dtype.itemSize = size
	return dtype, nil
}

// npDType describes the elements of a numpy array, e.g. kind 'u' and itemSize 1 for uint8.
type npDType struct {
	kind      byte
	itemSize  int
	byteOrder string
}

// PySetState implements gopickle types.PyStateSettable. Only the byte order is used.
func (d *npDType) PySetState(state any) error {
	items, ok := pickleSlice(state)
	if !ok || len(items) < 2 {
		return errors.Errorf("unexpected numpy.dtype state %#v", state)
	}
	if order, ok := pickleString(items[1]); ok && order != "" {
		d.byteOrder = order
	}
	return nil
}

func (d *npDType) String() string {
	return d.byteOrder + string(d.kind) + strconv.Itoa(d.itemSize)
}

func (d *npDType) isUint8() bool {
	return d.kind == 'u' && d.itemSize == 1
}

func (d *npDType) isInteger() bool {
	return d.kind == 'u' || d.kind == 'i'
}

// npArray is a pickled numpy array.
type npArray struct {
	shape     []int
	dtype     *npDType
	isFortran bool
	data      []byte
}

// PySetState implements gopickle types.PyStateSettable, with state
// (version, shape, dtype, isFortran, rawData), the version being optional.
func (a *npArray) PySetState(state any) error {
	items, ok := pickleSlice(state)
	if !ok {
		return errors.Errorf("unexpected numpy array state of type %T", state)
	}
	if len(items) == 5 {
		items = items[1:]
	}
	if len(items) != 4 {
		return errors.Errorf("unexpected numpy array state with %d elements", len(items))
	}
	dims, ok := pickleSlice(items[0])
	if !ok {
		return errors.Errorf("unexpected numpy array shape of type %T", items[0])
	}
	a.shape = make([]int, len(dims))
	for i, dim := range dims {
		v, err := pickleInt(dim)
		if err != nil {
			return errors.WithMessagef(err, "numpy array shape")
		}
		a.shape[i] = v
	}
	if a.dtype, ok = items[1].(*npDType); !ok {
		return errors.Errorf("unexpected numpy array dtype of type %T", items[1])
	}
	fortran, err := pickleInt(items[2])
	if err != nil {
		return errors.WithMessagef(err, "numpy array fortran flag")
	}
	a.isFortran = fortran != 0
	if a.data, ok = pickleBytes(items[3]); !ok {
		return errors.Errorf("numpy array with data of type %T not supported, only raw bytes", items[3])
	}
	if len(a.data) != a.Size()*a.dtype.itemSize {
		return errors.Errorf("numpy array of shape %v and dtype %s has %d bytes of data", a.shape, a.dtype, len(a.data))
	}
	return nil
}

// Size is the number of elements in the array.
func (a *npArray) Size() int {
	size := 1
	for _, dim := range a.shape {
		size *= dim
	}
	return size
}

// Bytes returns the contents of a C-ordered uint8 array.
func (a *npArray) Bytes() ([]byte, error) {
	if a.dtype == nil || !a.dtype.isUint8() {
		return nil, errors.Errorf("numpy array has dtype %s, expected uint8", a.dtype)
	}
	if a.isFortran && len(a.shape) > 1 {
		return nil, errors.New("numpy array in fortran order not supported")
	}
	return a.data, nil
}

// Ints returns the contents of a 1D integer array.
func (a *npArray) Ints() ([]int, error) {
	if a.dtype == nil || !a.dtype.isInteger() {
		return nil, errors.Errorf("numpy array has dtype %s, expected integers", a.dtype)
	}
	if len(a.shape) != 1 {
		return nil, errors.Errorf("numpy array has shape %v, expected one dimension", a.shape)
	}
	var order binary.ByteOrder = binary.LittleEndian
	if a.dtype.byteOrder == ">" {
		order = binary.BigEndian
	}
	size := a.dtype.itemSize
	values := make([]int, a.Size())
	for i := range values {
		b := a.data[i*size : (i+1)*size]
		signed := a.dtype.kind == 'i'
		switch size {
		case 1:
			if signed {
				values[i] = int(int8(b[0]))
			} else {
				values[i] = int(b[0])
			}
		case 2:
			if signed {
				values[i] = int(int16(order.Uint16(b)))
			} else {
				values[i] = int(order.Uint16(b))
			}
		case 4:
			if signed {
				values[i] = int(int32(order.Uint32(b)))
			} else {
				values[i] = int(order.Uint32(b))
			}
		case 8:
			values[i] = int(order.Uint64(b))
		default:
			return nil, errors.Errorf("numpy array dtype %s not supported", a.dtype)
		}
	}
	return values, nil
}
