// Copyright 2024 The Decthings Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tensor implements the Decthings tensor value: an immutable,
// strongly typed, n-dimensional array with a compact binary wire encoding.
//
// Tensors are the unit of data exchanged with the Decthings platform:
// dataset entries, evaluation inputs and outputs, training metrics and
// model state weights all travel as serialized tensors. The wire format is
// a bit-exact contract shared with the platform and with client libraries
// in other languages.
package tensor

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/decthings/tensor/varint"
)

// maxRank is the highest number of dimensions the wire format can
// describe, since the dimension count is a single byte.
const maxRank = 255

// A Tensor is an immutable n-dimensional array of elements sharing one
// ElementType. Its payload is held either as a packed little-endian byte
// buffer (fixed-width element types only) or as a typed element slice.
//
// For a correctly formed element slice, the ElementType and the slice type
// must match each other according to the following pairs:
//
//	ElementType | Elements type
//	------------+---------------
//	F32         | []float32
//	F64         | []float64
//	I8          | []int8
//	I16         | []int16
//	I32         | []int32
//	I64         | []int64
//	U8          | []uint8
//	U16         | []uint16
//	U32         | []uint32
//	U64         | []uint64
//	String      | []string
//	Binary      | [][]byte
//	Bool        | []bool
//	Image       | []Media
//	Audio       | []Media
//	Video       | []Media
//
// A Tensor must be treated as immutable once constructed. It is then safe
// to share for reads across goroutines without synchronization.
type Tensor struct {
	elemType ElementType
	shape    []int
	// Exactly one of raw and elems carries the payload. raw is the
	// packed little-endian representation, only valid for fixed-width
	// element types.
	raw   []byte
	elems any
}

// New performs validity checks over the given properties and returns a
// Tensor with those properties if validation succeeds, otherwise an error.
//
// If the error returned is not nil, the Tensor is a zero-value that must
// not be used.
//
// Here is an overview of the rules applied for validation:
//   - the ElementType must be valid
//   - an empty or nil shape is allowed (a scalar value is implied)
//   - the shape must not contain negative values, and must not have more
//     than 255 dimensions
//   - the type of elements must match the ElementType, according to the
//     pairs listed on the Tensor documentation
//   - the number of elements must match the product of all shape values
//   - every Media element must carry a 3-byte format tag
//
// These rules are in place as a minimum guarantee that the Tensor can be
// serialized correctly on a later stage. For the same reason, the given
// shape is copied before being assigned to the Tensor.
//
// Since "elements" can possibly take a large amount of memory, its value
// is NOT copied, and is directly assigned to the Tensor. Accidental
// modifications to the elements given to this function could lead to
// subsequent unexpected content or corrupted serialization, even in
// absence of errors.
func New(et ElementType, shape []int, elements any) (Tensor, error) {
	if err := et.Validate(); err != nil {
		return Tensor{}, err
	}
	count, err := checkedShapeSize(shape)
	if err != nil {
		return Tensor{}, err
	}
	elems, n, err := checkElementsType(et, elements)
	if err != nil {
		return Tensor{}, err
	}
	if n != count {
		return Tensor{}, fmt.Errorf("the element count computed from shape (%d) does not match the number of elements (%d)", count, n)
	}
	if media, ok := elems.([]Media); ok {
		for i, m := range media {
			if err := validateMediaFormat(m.format); err != nil {
				return Tensor{}, fmt.Errorf("media element %d: %w", i, err)
			}
		}
	}
	return Tensor{
		elemType: et,
		shape:    copyShape(shape),
		elems:    elems,
	}, nil
}

// NewRaw is like New, but takes the payload in its packed little-endian
// wire representation instead of a typed element slice.
//
// Only fixed-width element types accept a packed payload; the byte length
// of data must equal the element count multiplied by the element size.
// The data is NOT copied.
func NewRaw(et ElementType, shape []int, data []byte) (Tensor, error) {
	if err := et.Validate(); err != nil {
		return Tensor{}, err
	}
	if !et.IsFixedWidth() {
		return Tensor{}, fmt.Errorf("element type %s requires typed elements, not a packed byte buffer", et)
	}
	count, err := checkedShapeSize(shape)
	if err != nil {
		return Tensor{}, err
	}
	if want := count * et.Size(); len(data) != want {
		return Tensor{}, fmt.Errorf("packed payload is %d bytes, want %d (%d elements of %d bytes)", len(data), want, count, et.Size())
	}
	if data == nil {
		data = []byte{}
	}
	return Tensor{
		elemType: et,
		shape:    copyShape(shape),
		raw:      data,
	}, nil
}

func checkedShapeSize(shape []int) (int, error) {
	if len(shape) > maxRank {
		return 0, fmt.Errorf("shape has %d dimensions, the wire format allows at most %d", len(shape), maxRank)
	}
	size := uint64(1)
	for i, v := range shape {
		if v < 0 {
			return 0, fmt.Errorf("shape dimension %d has negative size %d", i, v)
		}
		hi, lo := bits.Mul64(size, uint64(v))
		if hi != 0 || lo > math.MaxInt {
			return 0, fmt.Errorf("shape %v describes more elements than fit in an int", shape[:i+1])
		}
		size = lo
	}
	return int(size), nil
}

func checkElementsType(et ElementType, elements any) (any, int, error) {
	switch et {
	case F32:
		return resolveElements[float32](et, elements)
	case F64:
		return resolveElements[float64](et, elements)
	case I8:
		return resolveElements[int8](et, elements)
	case I16:
		return resolveElements[int16](et, elements)
	case I32:
		return resolveElements[int32](et, elements)
	case I64:
		return resolveElements[int64](et, elements)
	case U8:
		return resolveElements[uint8](et, elements)
	case U16:
		return resolveElements[uint16](et, elements)
	case U32:
		return resolveElements[uint32](et, elements)
	case U64:
		return resolveElements[uint64](et, elements)
	case String:
		return resolveElements[string](et, elements)
	case Binary:
		return resolveElements[[]byte](et, elements)
	case Bool:
		return resolveElements[bool](et, elements)
	case Image, Audio, Video:
		return resolveElements[Media](et, elements)
	}
	return nil, 0, fmt.Errorf("invalid ElementType(%d)", uint8(et))
}

func resolveElements[T any](et ElementType, elements any) (any, int, error) {
	if elements == nil {
		return []T(nil), 0, nil
	}
	y, ok := elements.([]T)
	if !ok {
		return nil, 0, fmt.Errorf("expected element type %s to match elements of type %T, actual type %T", et, y, elements)
	}
	return y, len(y), nil
}

func copyShape(shape []int) []int {
	if len(shape) == 0 {
		return nil
	}
	s := make([]int, len(shape))
	copy(s, shape)
	return s
}

// ElementType returns the type of every element of the tensor.
func (t Tensor) ElementType() ElementType {
	return t.elemType
}

// The Shape of the tensor.
//
// If the shape is zero-length, it returns nil, otherwise a new slice
// is allocated and returned (the shape is copied to prevent tampering).
func (t Tensor) Shape() []int {
	return copyShape(t.shape)
}

// NumElements returns the total number of elements, the product of all
// shape dimensions. A scalar tensor has one element.
func (t Tensor) NumElements() int {
	n := 1
	for _, v := range t.shape {
		n *= v
	}
	return n
}

// Item returns the single element of a scalar (zero-dimensional) tensor in
// its natural type, according to the pairs listed on the Tensor
// documentation (for example float32 for an F32 tensor, or Media for an
// Image tensor). It fails if the tensor is not a scalar.
func (t Tensor) Item() (any, error) {
	if len(t.shape) != 0 {
		return nil, fmt.Errorf("tensor is not a scalar: shape is %v", t.shape)
	}
	elems, err := t.Elements()
	if err != nil {
		return nil, err
	}
	return elementAt(t.elemType, elems, 0)
}

// Elements returns all elements of the tensor, flattened to a typed slice
// in row-major (C) order. The slice type matches the ElementType according
// to the pairs listed on the Tensor documentation.
//
// If the tensor carries a packed byte buffer, the elements are decoded
// into a newly allocated slice. Otherwise the value returned is NOT a
// copy: any change to its content will affect the Tensor too.
func (t Tensor) Elements() (any, error) {
	if t.raw == nil {
		if t.elems == nil {
			return nil, fmt.Errorf("corrupt tensor: no payload")
		}
		return t.elems, nil
	}
	return unpackElements(t.elemType, t.raw)
}

func elementAt(et ElementType, elems any, i int) (any, error) {
	switch v := elems.(type) {
	case []float32:
		return v[i], nil
	case []float64:
		return v[i], nil
	case []int8:
		return v[i], nil
	case []int16:
		return v[i], nil
	case []int32:
		return v[i], nil
	case []int64:
		return v[i], nil
	case []uint8:
		return v[i], nil
	case []uint16:
		return v[i], nil
	case []uint32:
		return v[i], nil
	case []uint64:
		return v[i], nil
	case []string:
		return v[i], nil
	case [][]byte:
		return v[i], nil
	case []bool:
		return v[i], nil
	case []Media:
		return v[i], nil
	}
	return nil, fmt.Errorf("corrupt tensor: element type %s does not match elements of type %T", et, elems)
}

// Get returns the sub-tensor obtained by fixing the leading dimensions of
// the tensor to the given indexes. The number of indexes must not exceed
// the tensor's rank, and each index must be within the corresponding shape
// dimension. The resulting tensor has the remaining dimensions as its
// shape; passing one index per dimension yields a scalar.
//
// The sub-tensor shares the underlying payload memory with the original
// tensor (no elements are copied), consistent with tensors being treated
// as immutable.
func (t Tensor) Get(indexes ...int) (Tensor, error) {
	if len(indexes) > len(t.shape) {
		return Tensor{}, fmt.Errorf("got %d indexes for a tensor of rank %d", len(indexes), len(t.shape))
	}
	offset := 0
	for i, idx := range indexes {
		if idx < 0 || idx >= t.shape[i] {
			return Tensor{}, fmt.Errorf("index %d out of range for dimension %d of size %d", idx, i, t.shape[i])
		}
		offset = offset*t.shape[i] + idx
	}
	count := 1
	for _, v := range t.shape[len(indexes):] {
		count *= v
	}
	start := offset * count
	sub := Tensor{
		elemType: t.elemType,
		shape:    copyShape(t.shape[len(indexes):]),
	}
	if t.raw != nil {
		size := t.elemType.Size()
		sub.raw = t.raw[start*size : (start+count)*size]
		return sub, nil
	}
	elems, err := sliceElements(t.elemType, t.elems, start, start+count)
	if err != nil {
		return Tensor{}, err
	}
	sub.elems = elems
	return sub, nil
}

func sliceElements(et ElementType, elems any, start, end int) (any, error) {
	switch v := elems.(type) {
	case []float32:
		return v[start:end], nil
	case []float64:
		return v[start:end], nil
	case []int8:
		return v[start:end], nil
	case []int16:
		return v[start:end], nil
	case []int32:
		return v[start:end], nil
	case []int64:
		return v[start:end], nil
	case []uint8:
		return v[start:end], nil
	case []uint16:
		return v[start:end], nil
	case []uint32:
		return v[start:end], nil
	case []uint64:
		return v[start:end], nil
	case []string:
		return v[start:end], nil
	case [][]byte:
		return v[start:end], nil
	case []bool:
		return v[start:end], nil
	case []Media:
		return v[start:end], nil
	}
	return nil, fmt.Errorf("corrupt tensor: element type %s does not match elements of type %T", et, elems)
}

// SerializedSize returns the exact number of bytes Serialize produces for
// this tensor, without serializing it.
func (t Tensor) SerializedSize() int {
	size := 2
	for _, dim := range t.shape {
		size += varint.LengthForValue(uint64(dim))
	}
	if t.elemType.IsFixedWidth() {
		return size + t.NumElements()*t.elemType.Size()
	}
	body := t.variableBodySize()
	return size + varint.LengthForValue(uint64(body)) + body
}

// variableBodySize sums the length-prefixed element blocks of a
// variable-width tensor.
func (t Tensor) variableBodySize() int {
	body := 0
	switch elems := t.elems.(type) {
	case []string:
		for _, s := range elems {
			body += varint.LengthForValue(uint64(len(s))) + len(s)
		}
	case [][]byte:
		for _, b := range elems {
			body += varint.LengthForValue(uint64(len(b))) + len(b)
		}
	case []Media:
		for _, m := range elems {
			n := MediaFormatLen + len(m.data)
			body += varint.LengthForValue(uint64(n)) + n
		}
	}
	return body
}
