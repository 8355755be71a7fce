// Copyright 2024 The Decthings Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commonDefinitions covers every element type with its typed elements, the
// packed little-endian payload (nil for variable-width types) and the full
// expected wire encoding.
var commonDefinitions = map[string]struct {
	elemType ElementType
	shape    []int
	elements any
	packed   []byte
	wire     []byte
}{
	"f32": {
		F32, []int{2},
		[]float32{1.5, -2.5},
		[]byte{
			0x00, 0x00, 0xc0, 0x3f,
			0x00, 0x00, 0x20, 0xc0,
		},
		[]byte{
			0x01, 0x01, 0x02,
			0x00, 0x00, 0xc0, 0x3f,
			0x00, 0x00, 0x20, 0xc0,
		},
	},
	"f64": {
		F64, []int{1},
		[]float64{3.5},
		[]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0c, 0x40},
		[]byte{
			0x02, 0x01, 0x01,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0c, 0x40,
		},
	},
	"i8": {
		I8, []int{2, 2},
		[]int8{0, 1, -2, -1},
		[]byte{0x00, 0x01, 0xfe, 0xff},
		[]byte{
			0x03, 0x02, 0x02, 0x02,
			0x00, 0x01, 0xfe, 0xff,
		},
	},
	"i16": {
		I16, []int{2, 2},
		[]int16{0, 1, -2, -1},
		[]byte{
			0x00, 0x00 /**/, 0x01, 0x00,
			0xfe, 0xff /**/, 0xff, 0xff,
		},
		[]byte{
			0x04, 0x02, 0x02, 0x02,
			0x00, 0x00 /**/, 0x01, 0x00,
			0xfe, 0xff /**/, 0xff, 0xff,
		},
	},
	"i32": {
		I32, []int{2},
		[]int32{1, -2},
		[]byte{
			0x01, 0x00, 0x00, 0x00,
			0xfe, 0xff, 0xff, 0xff,
		},
		[]byte{
			0x05, 0x01, 0x02,
			0x01, 0x00, 0x00, 0x00,
			0xfe, 0xff, 0xff, 0xff,
		},
	},
	"i64": {
		I64, []int{1},
		[]int64{-5_000_000_000},
		[]byte{0x00, 0x0e, 0xfa, 0xd5, 0xfe, 0xff, 0xff, 0xff},
		[]byte{
			0x06, 0x01, 0x01,
			0x00, 0x0e, 0xfa, 0xd5, 0xfe, 0xff, 0xff, 0xff,
		},
	},
	"u8": {
		U8, []int{2, 3},
		[]uint8{0, 1, 2, 3, 4, 5},
		[]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05},
		[]byte{
			0x07, 0x02, 0x02, 0x03,
			0x00, 0x01, 0x02, 0x03, 0x04, 0x05,
		},
	},
	"u16": {
		U16, []int{2},
		[]uint16{0, 65535},
		[]byte{0x00, 0x00, 0xff, 0xff},
		[]byte{
			0x08, 0x01, 0x02,
			0x00, 0x00, 0xff, 0xff,
		},
	},
	"u32": {
		U32, []int{1},
		[]uint32{4294967295},
		[]byte{0xff, 0xff, 0xff, 0xff},
		[]byte{
			0x09, 0x01, 0x01,
			0xff, 0xff, 0xff, 0xff,
		},
	},
	"u64": {
		U64, []int{1},
		[]uint64{1<<63 + 5},
		[]byte{0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80},
		[]byte{
			0x0a, 0x01, 0x01,
			0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80,
		},
	},
	"string": {
		String, []int{2},
		[]string{"hi", "world"},
		nil,
		[]byte{
			0x0b, 0x01, 0x02,
			0x09, // body length
			0x02, 'h', 'i',
			0x05, 'w', 'o', 'r', 'l', 'd',
		},
	},
	"binary": {
		Binary, []int{2},
		[][]byte{{0xde, 0xad}, {}},
		nil,
		[]byte{
			0x0c, 0x01, 0x02,
			0x04, // body length
			0x02, 0xde, 0xad,
			0x00,
		},
	},
	"boolean": {
		Bool, []int{4},
		[]bool{true, false, true, true},
		[]byte{0x01, 0x00, 0x01, 0x01},
		[]byte{
			0x0d, 0x01, 0x04,
			0x01, 0x00, 0x01, 0x01,
		},
	},
	"image": {
		Image, []int{1},
		[]Media{{format: "png", data: []byte{0x89, 0x50}}},
		nil,
		[]byte{
			0x0e, 0x01, 0x01,
			0x06, // body length
			0x05, 'p', 'n', 'g', 0x89, 0x50,
		},
	},
	"audio": {
		Audio, []int{2},
		[]Media{
			{format: "wav", data: []byte{0x01, 0x02}},
			{format: "wav", data: []byte{}},
		},
		nil,
		[]byte{
			0x0f, 0x01, 0x02,
			0x0a, // body length
			0x05, 'w', 'a', 'v', 0x01, 0x02,
			0x03, 'w', 'a', 'v',
		},
	},
	"video": {
		Video, []int{1},
		[]Media{{format: "mp4", data: []byte{0x09}}},
		nil,
		[]byte{
			0x10, 0x01, 0x01,
			0x05, // body length
			0x04, 'm', 'p', '4', 0x09,
		},
	},
}

// requireEqualTensors compares two tensors by element type, shape and
// row-major flattened elements, so a packed tensor and an element-backed
// tensor with the same content compare equal.
func requireEqualTensors(t *testing.T, want, got Tensor) {
	t.Helper()
	require.Equal(t, want.ElementType(), got.ElementType())
	require.Equal(t, want.Shape(), got.Shape())

	wantElems, err := want.Elements()
	require.NoError(t, err)
	gotElems, err := got.Elements()
	require.NoError(t, err)
	if want.NumElements() == 0 {
		// A nil typed slice and an allocated empty one are equivalent here.
		assert.IsType(t, wantElems, gotElems)
		assert.Empty(t, gotElems)
		return
	}
	assert.Equal(t, wantElems, gotElems)
}
