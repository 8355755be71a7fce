// Copyright 2024 The Decthings Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var commonTypeTests = []struct {
	elemType   ElementType
	tag        byte
	size       int
	fixedWidth bool
	str        string
}{
	{F32, 1, 4, true, "f32"},
	{F64, 2, 8, true, "f64"},
	{I8, 3, 1, true, "i8"},
	{I16, 4, 2, true, "i16"},
	{I32, 5, 4, true, "i32"},
	{I64, 6, 8, true, "i64"},
	{U8, 7, 1, true, "u8"},
	{U16, 8, 2, true, "u16"},
	{U32, 9, 4, true, "u32"},
	{U64, 10, 8, true, "u64"},
	{String, 11, 0, false, "string"},
	{Binary, 12, 0, false, "binary"},
	{Bool, 13, 1, true, "boolean"},
	{Image, 14, 0, false, "image"},
	{Audio, 15, 0, false, "audio"},
	{Video, 16, 0, false, "video"},
}

func TestElementType(t *testing.T) {
	for _, tc := range commonTypeTests {
		t.Run(tc.str, func(t *testing.T) {
			assert.NoError(t, tc.elemType.Validate())
			assert.Equal(t, tc.tag, byte(tc.elemType))
			assert.Equal(t, tc.size, tc.elemType.Size())
			assert.Equal(t, tc.fixedWidth, tc.elemType.IsFixedWidth())
			assert.Equal(t, tc.str, tc.elemType.String())

			parsed, err := ParseElementType(tc.str)
			require.NoError(t, err)
			assert.Equal(t, tc.elemType, parsed)
		})
	}
}

func TestElementType_Invalid(t *testing.T) {
	for _, et := range []ElementType{0, 17, 255} {
		assert.Error(t, et.Validate())
		assert.Equal(t, -1, et.Size())
		assert.False(t, et.IsFixedWidth())

		_, err := et.MarshalText()
		assert.Error(t, err)
	}

	_, err := ParseElementType("F32")
	assert.Error(t, err)
	_, err = ParseElementType("")
	assert.Error(t, err)
}

func TestElementType_JSON(t *testing.T) {
	b, err := json.Marshal([]ElementType{F32, Bool, Video})
	require.NoError(t, err)
	assert.Equal(t, `["f32","boolean","video"]`, string(b))

	var out []ElementType
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, []ElementType{F32, Bool, Video}, out)

	assert.Error(t, json.Unmarshal([]byte(`["no-such-type"]`), &out))
}
