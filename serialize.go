// Copyright 2024 The Decthings Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/decthings/tensor/varint"
)

// Serialize encodes the tensor to its binary wire format:
//
//	byte 0       : type tag (the ElementType value)
//	byte 1       : number of dimensions
//	then         : one varint per shape dimension
//
// followed by the payload. Fixed-width types pack their elements
// little-endian at their native width. Variable-width types first write
// the total byte length of the element blocks as a varint, then each
// element as a varint length prefix followed by its bytes (with media
// elements carrying their 3-byte format tag before the payload bytes).
//
// The buffer returned has length exactly SerializedSize.
func (t Tensor) Serialize() ([]byte, error) {
	if err := t.elemType.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, t.SerializedSize())
	buf = append(buf, byte(t.elemType), byte(len(t.shape)))
	for _, dim := range t.shape {
		buf = varint.Append(buf, uint64(dim))
	}
	if t.elemType.IsFixedWidth() {
		if t.raw != nil {
			return append(buf, t.raw...), nil
		}
		return appendPackedElements(buf, t.elemType, t.elems)
	}
	buf = varint.Append(buf, uint64(t.variableBodySize()))
	return appendVariableElements(buf, t.elemType, t.elems)
}

func appendPackedElements(buf []byte, et ElementType, elems any) ([]byte, error) {
	switch et {
	case F32:
		v, err := castElements[float32](et, elems)
		if err != nil {
			return nil, err
		}
		for _, x := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(x))
		}
		return buf, nil
	case F64:
		v, err := castElements[float64](et, elems)
		if err != nil {
			return nil, err
		}
		for _, x := range v {
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
		}
		return buf, nil
	case I8:
		v, err := castElements[int8](et, elems)
		if err != nil {
			return nil, err
		}
		for _, x := range v {
			buf = append(buf, byte(x))
		}
		return buf, nil
	case I16:
		return appendPacked16[int16](buf, et, elems)
	case I32:
		return appendPacked32[int32](buf, et, elems)
	case I64:
		return appendPacked64[int64](buf, et, elems)
	case U8:
		v, err := castElements[uint8](et, elems)
		if err != nil {
			return nil, err
		}
		return append(buf, v...), nil
	case U16:
		return appendPacked16[uint16](buf, et, elems)
	case U32:
		return appendPacked32[uint32](buf, et, elems)
	case U64:
		return appendPacked64[uint64](buf, et, elems)
	case Bool:
		v, err := castElements[bool](et, elems)
		if err != nil {
			return nil, err
		}
		for _, x := range v {
			if x {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		}
		return buf, nil
	}
	return nil, fmt.Errorf("corrupt tensor: element type %s is not fixed-width", et)
}

func appendPacked16[T int16 | uint16](buf []byte, et ElementType, elems any) ([]byte, error) {
	v, err := castElements[T](et, elems)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(x))
	}
	return buf, nil
}

func appendPacked32[T int32 | uint32](buf []byte, et ElementType, elems any) ([]byte, error) {
	v, err := castElements[T](et, elems)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(x))
	}
	return buf, nil
}

func appendPacked64[T int64 | uint64](buf []byte, et ElementType, elems any) ([]byte, error) {
	v, err := castElements[T](et, elems)
	if err != nil {
		return nil, err
	}
	for _, x := range v {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(x))
	}
	return buf, nil
}

func appendVariableElements(buf []byte, et ElementType, elems any) ([]byte, error) {
	switch v := elems.(type) {
	case []string:
		for _, s := range v {
			buf = varint.Append(buf, uint64(len(s)))
			buf = append(buf, s...)
		}
		return buf, nil
	case [][]byte:
		for _, b := range v {
			buf = varint.Append(buf, uint64(len(b)))
			buf = append(buf, b...)
		}
		return buf, nil
	case []Media:
		for _, m := range v {
			buf = varint.Append(buf, uint64(MediaFormatLen+len(m.data)))
			buf = append(buf, m.format...)
			buf = append(buf, m.data...)
		}
		return buf, nil
	}
	return nil, fmt.Errorf("corrupt tensor: element type %s does not match elements of type %T", et, elems)
}

func castElements[T any](et ElementType, elems any) ([]T, error) {
	v, ok := elems.([]T)
	if !ok {
		return nil, fmt.Errorf("corrupt tensor: element type %s does not match elements of type %T", et, elems)
	}
	return v, nil
}
