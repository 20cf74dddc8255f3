// Package array implements the numeric buffer type used by every module in
// the engine.
//
// An Array is a fixed-shape, mutable buffer of float64 values. Heavy linear
// algebra (GEMV, GEMM, rank-1 updates) is delegated to gonum's blas64
// package; elementwise vector work goes through gonum's floats package.
//
// Mutating methods operate in place on the receiver and panic on shape
// mismatch: a mismatched shape is a programming error, never a recoverable
// condition.
package array

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
)

// Shape represents the dimensions of an array.
// Example: Shape{6, 4} is a 6×4 matrix.
type Shape []int

// Size returns the total number of elements for this shape.
func (s Shape) Size() int {
	size := 1
	for _, dim := range s {
		size *= dim
	}
	return size
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i, dim := range s {
		if dim != other[i] {
			return false
		}
	}
	return true
}

// String returns a human-readable representation, e.g. "[6 4]".
func (s Shape) String() string {
	return fmt.Sprintf("%v", []int(s))
}

// Array is a fixed-shape mutable buffer of float64 values.
//
// The zero Array is not usable; construct one with New, Zeros, Full or
// FromSlice. The backing slice is owned by the Array: callers obtain it via
// Data only to read or to write through the documented mutators.
type Array struct {
	shape Shape
	data  []float64
}

// New creates a zero-filled array with the given shape.
func New(shape ...int) *Array {
	s := Shape(shape)
	return &Array{shape: s, data: make([]float64, s.Size())}
}

// Zeros creates a zero-filled array with the given shape.
func Zeros(shape ...int) *Array {
	return New(shape...)
}

// Ones creates an array filled with 1.0.
func Ones(shape ...int) *Array {
	return Full(1.0, shape...)
}

// Full creates an array filled with value.
func Full(value float64, shape ...int) *Array {
	a := New(shape...)
	a.Fill(value)
	return a
}

// FromSlice creates an array with the given shape, copying data.
// Panics if the data length does not match the shape size.
func FromSlice(data []float64, shape ...int) *Array {
	s := Shape(shape)
	if len(data) != s.Size() {
		panic(fmt.Sprintf("array: data length %d does not match shape %v", len(data), s))
	}
	a := &Array{shape: s, data: make([]float64, len(data))}
	copy(a.data, data)
	return a
}

// Shape returns the array's shape. The returned slice must not be modified.
func (a *Array) Shape() Shape {
	return a.shape
}

// Len returns the total number of elements.
func (a *Array) Len() int {
	return len(a.data)
}

// Data returns the backing slice. The slice aliases the array's storage.
func (a *Array) Data() []float64 {
	return a.data
}

// At returns the element at flat index i.
func (a *Array) At(i int) float64 {
	return a.data[i]
}

// Set assigns the element at flat index i.
func (a *Array) Set(i int, v float64) {
	a.data[i] = v
}

// Clone returns a deep copy sharing no storage with the receiver.
func (a *Array) Clone() *Array {
	c := &Array{shape: append(Shape(nil), a.shape...), data: make([]float64, len(a.data))}
	copy(c.data, a.data)
	return c
}

// Fill sets every element to v.
func (a *Array) Fill(v float64) {
	for i := range a.data {
		a.data[i] = v
	}
}

// Zero sets every element to 0.
func (a *Array) Zero() {
	a.Fill(0)
}

// CopyFrom copies src's contents into the receiver.
// Panics if the lengths differ.
func (a *Array) CopyFrom(src *Array) {
	a.checkLen(src, "CopyFrom")
	copy(a.data, src.data)
}

// Add adds b elementwise into the receiver.
func (a *Array) Add(b *Array) {
	a.checkLen(b, "Add")
	floats.Add(a.data, b.data)
}

// Sub subtracts b elementwise from the receiver.
func (a *Array) Sub(b *Array) {
	a.checkLen(b, "Sub")
	floats.Sub(a.data, b.data)
}

// MulElem multiplies the receiver elementwise by b.
func (a *Array) MulElem(b *Array) {
	a.checkLen(b, "MulElem")
	floats.Mul(a.data, b.data)
}

// Scale multiplies every element by alpha.
func (a *Array) Scale(alpha float64) {
	floats.Scale(alpha, a.data)
}

// AddScaled adds alpha*b elementwise into the receiver.
func (a *Array) AddScaled(alpha float64, b *Array) {
	a.checkLen(b, "AddScaled")
	floats.AddScaled(a.data, alpha, b.data)
}

// AddScalar adds alpha to every element.
func (a *Array) AddScalar(alpha float64) {
	floats.AddConst(alpha, a.data)
}

// Apply replaces every element x with f(x).
func (a *Array) Apply(f func(float64) float64) {
	for i, v := range a.data {
		a.data[i] = f(v)
	}
}

// Dot returns the inner product of the receiver and b.
func (a *Array) Dot(b *Array) float64 {
	a.checkLen(b, "Dot")
	return floats.Dot(a.data, b.data)
}

// Norm returns the L2 norm of the array.
func (a *Array) Norm() float64 {
	return floats.Norm(a.data, 2)
}

// Sum returns the sum of all elements.
func (a *Array) Sum() float64 {
	return floats.Sum(a.data)
}

// Max returns the maximum element. Panics on an empty array.
func (a *Array) Max() float64 {
	return floats.Max(a.data)
}

// Equal reports exact elementwise equality with matching shapes.
func (a *Array) Equal(b *Array) bool {
	return a.shape.Equal(b.shape) && floats.Equal(a.data, b.data)
}

// EqualApprox reports elementwise equality within tol, with matching shapes.
func (a *Array) EqualApprox(b *Array, tol float64) bool {
	return a.shape.Equal(b.shape) && floats.EqualApprox(a.data, b.data, tol)
}

// Reshape returns a view of the array with a new shape of the same total
// size. The view aliases the receiver's storage.
func (a *Array) Reshape(shape ...int) *Array {
	s := Shape(shape)
	if s.Size() != len(a.data) {
		panic(fmt.Sprintf("array: cannot reshape %v to %v", a.shape, s))
	}
	return &Array{shape: s, data: a.data}
}

// Row returns a mutable view of row i of a 2-D array.
// The view aliases the receiver's storage.
func (a *Array) Row(i int) *Array {
	if len(a.shape) != 2 {
		panic(fmt.Sprintf("array: Row requires a 2-D array, got shape %v", a.shape))
	}
	cols := a.shape[1]
	return &Array{shape: Shape{cols}, data: a.data[i*cols : (i+1)*cols]}
}

// general views a 2-D array as a blas64.General matrix.
func (a *Array) general() blas64.General {
	if len(a.shape) != 2 {
		panic(fmt.Sprintf("array: matrix operand requires a 2-D array, got shape %v", a.shape))
	}
	return blas64.General{
		Rows:   a.shape[0],
		Cols:   a.shape[1],
		Stride: a.shape[1],
		Data:   a.data,
	}
}

// vector views a 1-D array as a blas64.Vector.
func (a *Array) vector() blas64.Vector {
	return blas64.Vector{N: len(a.data), Inc: 1, Data: a.data}
}

func (a *Array) checkLen(b *Array, op string) {
	if len(a.data) != len(b.data) {
		panic(fmt.Sprintf("array: %s length mismatch %d vs %d", op, len(a.data), len(b.data)))
	}
}

func trans(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

// Gemv computes y = alpha*op(A)·x + beta*y where op is the identity or the
// transpose. A must be 2-D; x and y must have the matching lengths.
func Gemv(transA bool, alpha float64, a, x *Array, beta float64, y *Array) {
	rows, cols := a.shape[0], a.shape[1]
	xn, yn := cols, rows
	if transA {
		xn, yn = rows, cols
	}
	if x.Len() != xn || y.Len() != yn {
		panic(fmt.Sprintf("array: Gemv shape mismatch A=%v x=%d y=%d", a.shape, x.Len(), y.Len()))
	}
	blas64.Gemv(trans(transA), alpha, a.general(), x.vector(), beta, y.vector())
}

// Ger performs the rank-1 update A += alpha*x⊗y.
// A must be a 2-D array of shape [len(x), len(y)].
func Ger(alpha float64, x, y, a *Array) {
	if a.shape[0] != x.Len() || a.shape[1] != y.Len() {
		panic(fmt.Sprintf("array: Ger shape mismatch A=%v x=%d y=%d", a.shape, x.Len(), y.Len()))
	}
	blas64.Ger(alpha, x.vector(), y.vector(), a.general())
}

// Gemm computes C = alpha*op(A)·op(B) + beta*C with per-operand transposes.
// All operands must be 2-D.
func Gemm(transA, transB bool, alpha float64, a, b *Array, beta float64, c *Array) {
	ar, ac := a.shape[0], a.shape[1]
	if transA {
		ar, ac = ac, ar
	}
	br, bc := b.shape[0], b.shape[1]
	if transB {
		br, bc = bc, br
	}
	if ac != br || c.shape[0] != ar || c.shape[1] != bc {
		panic(fmt.Sprintf("array: Gemm shape mismatch A=%v B=%v C=%v", a.shape, b.shape, c.shape))
	}
	blas64.Gemm(trans(transA), trans(transB), alpha, a.general(), b.general(), beta, c.general())
}
