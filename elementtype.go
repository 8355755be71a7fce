// Copyright 2024 The Decthings Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

import "fmt"

// ElementType identifies the type of every element of a Tensor.
//
// The numeric value of an ElementType doubles as the type tag byte of the
// serialized form, so these constants MUST NOT be reordered.
type ElementType uint8

const (
	// F32 represents a 32-bit floating point element type.
	F32 ElementType = iota + 1
	// F64 represents a 64-bit floating point element type.
	F64
	// I8 represents an 8-bit signed integer element type.
	I8
	// I16 represents a 16-bit signed integer element type.
	I16
	// I32 represents a 32-bit signed integer element type.
	I32
	// I64 represents a 64-bit signed integer element type.
	I64
	// U8 represents an 8-bit unsigned integer element type.
	U8
	// U16 represents a 16-bit unsigned integer element type.
	U16
	// U32 represents a 32-bit unsigned integer element type.
	U32
	// U64 represents a 64-bit unsigned integer element type.
	U64
	// String represents a UTF-8 string element type.
	String
	// Binary represents an opaque byte-sequence element type.
	Binary
	// Bool represents an 8-bit boolean element type.
	Bool
	// Image represents an encoded image element type.
	Image
	// Audio represents an encoded audio element type.
	Audio
	// Video represents an encoded video element type.
	Video
)

var (
	// Element byte sizes of the fixed-width types. Zero marks a
	// variable-width type.
	elementTypeToSize = [...]int{
		F32:    4,
		F64:    8,
		I8:     1,
		I16:    2,
		I32:    4,
		I64:    8,
		U8:     1,
		U16:    2,
		U32:    4,
		U64:    8,
		String: 0,
		Binary: 0,
		Bool:   1,
		Image:  0,
		Audio:  0,
		Video:  0,
	}
	elementTypeToString = [...]string{
		F32:    "f32",
		F64:    "f64",
		I8:     "i8",
		I16:    "i16",
		I32:    "i32",
		I64:    "i64",
		U8:     "u8",
		U16:    "u16",
		U32:    "u32",
		U64:    "u64",
		String: "string",
		Binary: "binary",
		Bool:   "boolean",
		Image:  "image",
		Audio:  "audio",
		Video:  "video",
	}
	stringToElementType = map[string]ElementType{
		"f32":     F32,
		"f64":     F64,
		"i8":      I8,
		"i16":     I16,
		"i32":     I32,
		"i64":     I64,
		"u8":      U8,
		"u16":     U16,
		"u32":     U32,
		"u64":     U64,
		"string":  String,
		"binary":  Binary,
		"boolean": Bool,
		"image":   Image,
		"audio":   Audio,
		"video":   Video,
	}
)

// Validate returns an error if the ElementType is not valid, otherwise nil.
func (et ElementType) Validate() error {
	if et == 0 || et > Video {
		return fmt.Errorf("invalid ElementType(%d)", uint8(et))
	}
	return nil
}

// String returns the name of the element type, as it appears in parameter
// rules and other JSON exchanged with the platform.
func (et ElementType) String() string {
	if err := et.Validate(); err != nil {
		return err.Error()
	}
	return elementTypeToString[et]
}

// Size returns the byte size of one serialized element of this type.
// It returns 0 for the variable-width types (string, binary, image, audio
// and video), and -1 if the ElementType value is invalid.
func (et ElementType) Size() int {
	if err := et.Validate(); err != nil {
		return -1
	}
	return elementTypeToSize[et]
}

// IsFixedWidth reports whether every element of this type occupies a
// constant number of bytes on the wire. Fixed-width tensors may carry
// their payload as a packed byte buffer.
func (et ElementType) IsFixedWidth() bool {
	return et.Validate() == nil && elementTypeToSize[et] != 0
}

// ParseElementType attempts to parse an ElementType value from its name.
func ParseElementType(s string) (ElementType, error) {
	et, ok := stringToElementType[s]
	if !ok {
		return 0, fmt.Errorf("invalid ElementType string value %q", s)
	}
	return et, nil
}

// MarshalText satisfies the encoding.TextMarshaler interface.
func (et ElementType) MarshalText() ([]byte, error) {
	if err := et.Validate(); err != nil {
		return nil, err
	}
	return []byte(elementTypeToString[et]), nil
}

// UnmarshalText satisfies the encoding.TextUnmarshaler interface.
func (et *ElementType) UnmarshalText(text []byte) error {
	v, err := ParseElementType(string(text))
	if err != nil {
		return err
	}
	*et = v
	return nil
}
