// Copyright 2024 The Decthings Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package varint implements the variable-length unsigned integer encoding
// used for every length-prefixed field of the Decthings tensor wire format.
//
// The first byte describes the total encoded length. Values below 253 are
// stored directly in it; larger values follow it as a big-endian payload:
//
//	first byte | total length | payload
//	-----------+--------------+------------------
//	0..252     | 1            | the first byte itself
//	253        | 3            | big-endian uint16
//	254        | 5            | big-endian uint32
//	255        | 9            | big-endian uint64
//
// Append and Encode always pick the smallest tier able to represent the
// value, which makes the encoding canonical. Decode deliberately accepts
// any tier, so data produced by a non-minimal encoder still parses.
package varint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Prefix bytes selecting the multi-byte tiers.
const (
	prefix16 = 0xFD
	prefix32 = 0xFE
	prefix64 = 0xFF
)

// MaxLen is the maximum encoded length of a value.
const MaxLen = 9

// ErrTruncated is wrapped by every Decode error caused by an input
// shorter than its prefix byte demands.
var ErrTruncated = errors.New("truncated varint")

// Append appends the canonical encoding of v to dst and returns the
// extended buffer.
func Append(dst []byte, v uint64) []byte {
	switch {
	case v < prefix16:
		return append(dst, byte(v))
	case v <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, prefix16), uint16(v))
	case v <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(append(dst, prefix32), uint32(v))
	default:
		return binary.BigEndian.AppendUint64(append(dst, prefix64), v)
	}
}

// Encode returns the canonical encoding of v as a new buffer.
func Encode(v uint64) []byte {
	return Append(make([]byte, 0, LengthForValue(v)), v)
}

// Decode reads an encoded value from the start of src, returning the value
// and the number of bytes consumed. It fails with an error wrapping
// ErrTruncated if src is shorter than the prefix byte demands.
func Decode(src []byte) (uint64, int, error) {
	if len(src) == 0 {
		return 0, 0, fmt.Errorf("%w: empty input", ErrTruncated)
	}
	n := LengthFromPrefix(src[0])
	if len(src) < n {
		return 0, 0, fmt.Errorf("%w: prefix byte %#02x demands %d bytes, only %d available", ErrTruncated, src[0], n, len(src))
	}
	switch n {
	case 1:
		return uint64(src[0]), 1, nil
	case 3:
		return uint64(binary.BigEndian.Uint16(src[1:3])), 3, nil
	case 5:
		return uint64(binary.BigEndian.Uint32(src[1:5])), 5, nil
	default:
		return binary.BigEndian.Uint64(src[1:9]), 9, nil
	}
}

// LengthFromPrefix returns the total encoded length implied by the first
// byte of an encoded value, without decoding it. This allows a cursor to
// advance through a buffer without parsing the value.
func LengthFromPrefix(first byte) int {
	switch first {
	case prefix16:
		return 3
	case prefix32:
		return 5
	case prefix64:
		return 9
	default:
		return 1
	}
}

// LengthForValue returns the number of bytes the canonical encoding of v
// occupies, without encoding it.
func LengthForValue(v uint64) int {
	switch {
	case v < prefix16:
		return 1
	case v <= math.MaxUint16:
		return 3
	case v <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}
