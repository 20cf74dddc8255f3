// Copyright 2026 The Synapse Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array provides the public API for the engine's numeric buffers.
//
// An Array is a fixed-shape mutable buffer of float64 values backed by
// gonum for the heavy linear algebra. Modules own their arrays; callers
// treat arrays returned from module accessors as read-only views.
//
// Example:
//
//	x := array.FromSlice([]float64{1, 2}, 2)
//	y := x.Clone()
//	y.Scale(2.0) // [2, 4]
package array

import (
	"github.com/synapse-ml/synapse/internal/array"
)

// Shape represents the dimensions of an array.
// Example: Shape{6, 4} is a 6×4 matrix.
type Shape = array.Shape

// Array is a fixed-shape mutable buffer of float64 values.
type Array = array.Array

// New creates a zero-filled array with the given shape.
func New(shape ...int) *Array {
	return array.New(shape...)
}

// Zeros creates a zero-filled array with the given shape.
func Zeros(shape ...int) *Array {
	return array.Zeros(shape...)
}

// Ones creates an array filled with 1.0.
func Ones(shape ...int) *Array {
	return array.Ones(shape...)
}

// Full creates an array filled with value.
func Full(value float64, shape ...int) *Array {
	return array.Full(value, shape...)
}

// FromSlice creates an array with the given shape, copying data.
// Panics if the data length does not match the shape size.
func FromSlice(data []float64, shape ...int) *Array {
	return array.FromSlice(data, shape...)
}

// Gemv computes y = alpha*op(A)·x + beta*y where op is the identity or the
// transpose.
func Gemv(transA bool, alpha float64, a, x *Array, beta float64, y *Array) {
	array.Gemv(transA, alpha, a, x, beta, y)
}

// Ger performs the rank-1 update A += alpha*x⊗y.
func Ger(alpha float64, x, y, a *Array) {
	array.Ger(alpha, x, y, a)
}

// Gemm computes C = alpha*op(A)·op(B) + beta*C with per-operand transposes.
func Gemm(transA, transB bool, alpha float64, a, b *Array, beta float64, c *Array) {
	array.Gemm(transA, transB, alpha, a, b, beta, c)
}
