// Copyright 2024 The Decthings Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/decthings/tensor/varint"
)

// Deserialize parses a single tensor from the start of data, returning the
// tensor and the number of bytes it occupied. Trailing bytes beyond the
// tensor are ignored, which allows a caller to advance a cursor through a
// buffer of contiguously packed tensors.
//
// On any failure (truncated input, unknown type tag, malformed media
// element) no tensor is returned and the reported consumed length is zero.
//
// The payload of fixed-width and binary tensors references data directly
// instead of copying it; the caller must not modify data afterwards.
func Deserialize(data []byte) (Tensor, int, error) {
	if len(data) < 2 {
		return Tensor{}, 0, fmt.Errorf("tensor data is %d bytes, want at least 2 (type tag and dimension count)", len(data))
	}
	et := ElementType(data[0])
	if err := et.Validate(); err != nil {
		return Tensor{}, 0, fmt.Errorf("unknown type tag %d", data[0])
	}
	rank := int(data[1])
	cursor := 2

	var shape []int
	if rank > 0 {
		shape = make([]int, rank)
	}
	for i := range shape {
		v, n, err := varint.Decode(data[cursor:])
		if err != nil {
			return Tensor{}, 0, fmt.Errorf("failed to decode shape dimension %d: %w", i, err)
		}
		if v > math.MaxInt {
			return Tensor{}, 0, fmt.Errorf("shape dimension %d has size %d, more than fits in an int", i, v)
		}
		shape[i] = int(v)
		cursor += n
	}

	count := uint64(1)
	for i, v := range shape {
		hi, lo := bits.Mul64(count, uint64(v))
		if hi != 0 || lo > math.MaxInt {
			return Tensor{}, 0, fmt.Errorf("shape %v describes more elements than fit in an int", shape[:i+1])
		}
		count = lo
	}

	t := Tensor{elemType: et, shape: shape}

	if et.IsFixedWidth() {
		hi, byteLen := bits.Mul64(count, uint64(et.Size()))
		if hi != 0 || byteLen > math.MaxInt {
			return Tensor{}, 0, fmt.Errorf("shape %v describes a payload too large for element type %s", shape, et)
		}
		need := int(byteLen)
		if len(data)-cursor < need {
			return Tensor{}, 0, fmt.Errorf("tensor payload truncated: want %d bytes, have %d", need, len(data)-cursor)
		}
		t.raw = data[cursor : cursor+need]
		return t, cursor + need, nil
	}

	bodyLen, n, err := varint.Decode(data[cursor:])
	if err != nil {
		return Tensor{}, 0, fmt.Errorf("failed to decode payload byte length: %w", err)
	}
	cursor += n
	if bodyLen > uint64(len(data)-cursor) {
		return Tensor{}, 0, fmt.Errorf("tensor payload truncated: want %d bytes, have %d", bodyLen, len(data)-cursor)
	}
	// every element occupies at least its 1-byte length prefix, so the
	// element count can never exceed the payload byte length; checking
	// here keeps a hostile shape from forcing a giant allocation
	if count > bodyLen {
		return Tensor{}, 0, fmt.Errorf("tensor payload truncated: %d elements declared, %d payload bytes available", count, bodyLen)
	}
	elems, n, err := readVariableElements(et, data[cursor:], int(count))
	if err != nil {
		return Tensor{}, 0, err
	}
	if uint64(n) != bodyLen {
		return Tensor{}, 0, fmt.Errorf("declared payload byte length %d does not match the %d bytes occupied by the elements", bodyLen, n)
	}
	t.elems = elems
	return t, cursor + n, nil
}

// DeserializeMany parses tensors packed contiguously in data until the
// whole buffer is consumed. The format is self-terminating, so no count
// prefix is needed. An empty buffer yields no tensors.
func DeserializeMany(data []byte) ([]Tensor, error) {
	var out []Tensor
	for len(data) > 0 {
		t, n, err := Deserialize(data)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize tensor %d: %w", len(out), err)
		}
		out = append(out, t)
		data = data[n:]
	}
	return out, nil
}

// DeserializeExactly parses exactly count tensors packed contiguously in
// data, and fails if any bytes remain afterwards. This matches responses
// that report a number of logical items alongside one concatenated buffer.
func DeserializeExactly(data []byte, count int) ([]Tensor, error) {
	// a serialized tensor is at least 2 bytes (type tag and dimension
	// count), bounding how many can fit; the count typically comes from a
	// response, so it must not be trusted to size an allocation
	if count < 0 || count > len(data)/2 {
		return nil, fmt.Errorf("%d bytes cannot contain %d tensors", len(data), count)
	}
	out := make([]Tensor, count)
	for i := range out {
		t, n, err := Deserialize(data)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize tensor %d of %d: %w", i, count, err)
		}
		out[i] = t
		data = data[n:]
	}
	if len(data) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after %d tensors", len(data), count)
	}
	return out, nil
}

func readVariableElements(et ElementType, data []byte, count int) (any, int, error) {
	cursor := 0
	next := func(i int) ([]byte, error) {
		l, n, err := varint.Decode(data[cursor:])
		if err != nil {
			return nil, fmt.Errorf("failed to decode length of element %d: %w", i, err)
		}
		cursor += n
		if l > uint64(len(data)-cursor) {
			return nil, fmt.Errorf("element %d truncated: want %d bytes, have %d", i, l, len(data)-cursor)
		}
		block := data[cursor : cursor+int(l)]
		cursor += int(l)
		return block, nil
	}

	switch et {
	case String:
		out := make([]string, count)
		for i := range out {
			block, err := next(i)
			if err != nil {
				return nil, 0, err
			}
			out[i] = string(block)
		}
		return out, cursor, nil
	case Binary:
		out := make([][]byte, count)
		for i := range out {
			block, err := next(i)
			if err != nil {
				return nil, 0, err
			}
			out[i] = block
		}
		return out, cursor, nil
	case Image, Audio, Video:
		out := make([]Media, count)
		for i := range out {
			block, err := next(i)
			if err != nil {
				return nil, 0, err
			}
			if len(block) < MediaFormatLen {
				return nil, 0, fmt.Errorf("media element %d is %d bytes, too short for the %d-byte format tag", i, len(block), MediaFormatLen)
			}
			out[i] = Media{
				format: string(block[:MediaFormatLen]),
				data:   block[MediaFormatLen:],
			}
		}
		return out, cursor, nil
	}
	return nil, 0, fmt.Errorf("element type %s is not variable-width", et)
}

// unpackElements decodes a packed little-endian payload into the typed
// element slice matching the element type.
func unpackElements(et ElementType, raw []byte) (any, error) {
	switch et {
	case F32:
		out := make([]float32, len(raw)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return out, nil
	case F64:
		out := make([]float64, len(raw)/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return out, nil
	case I8:
		out := make([]int8, len(raw))
		for i, b := range raw {
			out[i] = int8(b)
		}
		return out, nil
	case I16:
		return unpack16[int16](raw), nil
	case I32:
		return unpack32[int32](raw), nil
	case I64:
		return unpack64[int64](raw), nil
	case U8:
		out := make([]uint8, len(raw))
		copy(out, raw)
		return out, nil
	case U16:
		return unpack16[uint16](raw), nil
	case U32:
		return unpack32[uint32](raw), nil
	case U64:
		return unpack64[uint64](raw), nil
	case Bool:
		out := make([]bool, len(raw))
		for i, b := range raw {
			out[i] = b != 0
		}
		return out, nil
	}
	return nil, fmt.Errorf("corrupt tensor: element type %s cannot carry a packed payload", et)
}

func unpack16[T int16 | uint16](raw []byte) []T {
	out := make([]T, len(raw)/2)
	for i := range out {
		out[i] = T(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out
}

func unpack32[T int32 | uint32](raw []byte) []T {
	out := make([]T, len(raw)/4)
	for i := range out {
		out[i] = T(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}

func unpack64[T int64 | uint64](raw []byte) []T {
	out := make([]T, len(raw)/8)
	for i := range out {
		out[i] = T(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return out
}
