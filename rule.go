// Copyright 2024 The Decthings Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tensor

import (
	"errors"
	"fmt"
)

// WildcardDim is the shape dimension value that matches any size in a
// Rule. It never appears on a materialized Tensor.
const WildcardDim = -1

// A Rule constrains the tensors accepted by a parameter of a remote model
// or dataset. Rules are exchanged with the platform as JSON, for example:
//
//	{"allowedTypes":["f32","f64"],"shape":[3,-1]}
//
// A tensor satisfies the rule if its element type is one of AllowedTypes
// and its shape matches Shape dimension by dimension, where WildcardDim
// matches any size. A nil Shape places no constraint on the shape at all.
type Rule struct {
	AllowedTypes []ElementType `json:"allowedTypes"`
	Shape        []int         `json:"shape,omitempty"`
}

// Validate returns an error if the Rule is not well formed, otherwise nil.
func (r Rule) Validate() error {
	if len(r.AllowedTypes) == 0 {
		return errors.New("rule allows no element types")
	}
	for _, et := range r.AllowedTypes {
		if err := et.Validate(); err != nil {
			return err
		}
	}
	if len(r.Shape) > maxRank {
		return fmt.Errorf("rule shape has %d dimensions, the wire format allows at most %d", len(r.Shape), maxRank)
	}
	for i, v := range r.Shape {
		if v < WildcardDim {
			return fmt.Errorf("rule shape dimension %d has invalid size %d", i, v)
		}
	}
	return nil
}

// Check reports whether the tensor satisfies the rule, returning nil on
// success and a descriptive error naming the first mismatch otherwise.
func (r Rule) Check(t Tensor) error {
	allowed := false
	for _, et := range r.AllowedTypes {
		if et == t.elemType {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("element type %s is not allowed, want one of %v", t.elemType, r.AllowedTypes)
	}
	if r.Shape == nil {
		return nil
	}
	if len(r.Shape) != len(t.shape) {
		return fmt.Errorf("tensor rank is %d, want %d", len(t.shape), len(r.Shape))
	}
	for i, want := range r.Shape {
		if want != WildcardDim && t.shape[i] != want {
			return fmt.Errorf("dimension %d has size %d, want %d", i, t.shape[i], want)
		}
	}
	return nil
}
