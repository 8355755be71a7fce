// Copyright 2024 The Decthings Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

import "fmt"

// MediaFormatLen is the exact byte length of a media element format tag.
const MediaFormatLen = 3

// Media is a single element of an image, audio or video tensor: a 3-byte
// ASCII format tag (for example "png", "wav" or "mp4") followed by the
// encoded payload.
//
// The tag is an opaque identifier at this layer. Its content is never
// validated against a registry, only its length.
type Media struct {
	format string
	data   []byte
}

// NewMedia performs validity checks over the given properties and returns
// a Media element if validation succeeds, otherwise an error.
//
// Since the payload can possibly take a large amount of memory, its value
// is NOT copied, and is directly assigned to the Media element.
func NewMedia(format string, data []byte) (Media, error) {
	if err := validateMediaFormat(format); err != nil {
		return Media{}, err
	}
	return Media{format: format, data: data}, nil
}

func validateMediaFormat(format string) error {
	if len(format) != MediaFormatLen {
		return fmt.Errorf("media format tag %q is %d bytes, want exactly %d", format, len(format), MediaFormatLen)
	}
	return nil
}

// Format returns the 3-byte format tag.
func (m Media) Format() string {
	return m.format
}

// Data returns the payload bytes.
//
// The value returned is NOT a copy: any change to its content affects the
// Media element too.
func (m Media) Data() []byte {
	return m.data
}
