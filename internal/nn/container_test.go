package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ml/synapse/internal/array"
)

func TestStack_ForwardBackward(t *testing.T) {
	s := NewStack(
		NewScale(2, ScaleConfig{
			Factor:   array.FromSlice([]float64{2, 3}, 2),
			Constant: array.Ones(2),
		}),
		NewScaleScalar(2, 1, 1),
	)
	input := array.FromSlice([]float64{1, 2}, 2)

	s.Calc(input)
	assert.Equal(t, []float64{4, 8}, s.Output().Data())

	s.Backward(input, array.FromSlice([]float64{1, -1}, 2))
	assert.Equal(t, []float64{2, -3}, s.InputGradient().Data())
}

func TestStack_FeedsIntermediateOutputs(t *testing.T) {
	first := NewLinearFromWeights(
		array.FromSlice([]float64{1, 0, 0, 1}, 2, 2), array.Ones(2), LinearConfig{})
	second := NewLinearFromWeights(
		array.FromSlice([]float64{1, 1}, 1, 2), array.Zeros(1), LinearConfig{})
	s := NewStack(first, second)

	input := array.FromSlice([]float64{1, 2}, 2)
	s.Forward(input)
	// first: [2, 3]; second: 5
	assert.Equal(t, []float64{5}, s.Output().Data())

	s.Backward(input, array.FromSlice([]float64{1}, 1))
	// second's gradient w.r.t. weights uses first's output, not the stack
	// input.
	assert.Equal(t, []float64{2, 3}, second.Weight().Grad.Data())
	assert.Equal(t, []float64{1, 1}, s.InputGradient().Data())
}

func TestNewStack_Validation(t *testing.T) {
	assert.Panics(t, func() { NewStack() })
	assert.Panics(t, func() {
		NewStack(NewLogistic(2), NewLogistic(3))
	})
}

func TestStack_Sizes(t *testing.T) {
	s := NewStack(
		NewLinearFromWeights(array.Zeros(3, 2), array.Zeros(3), LinearConfig{}),
		NewTanh(3),
	)
	assert.Equal(t, 2, s.InputSize())
	assert.Equal(t, 3, s.OutputSize())
	assert.Len(t, s.Parameters(), 2)
}

func TestSplit_ForwardBackward(t *testing.T) {
	s := NewSplit(
		NewScaleScalar(2, 2, 0),
		NewScaleScalar(2, 3, 0),
	)
	require.Equal(t, 2, s.InputSize())
	require.Equal(t, 4, s.OutputSize())

	input := array.FromSlice([]float64{1, 2}, 2)
	s.Calc(input)
	assert.Equal(t, []float64{2, 4, 3, 6}, s.Output().Data())

	// Each branch receives its slice; the branch input gradients sum.
	s.Backward(input, array.Ones(4))
	assert.Equal(t, []float64{5, 5}, s.InputGradient().Data())
}

func TestSplit_GradientSlicing(t *testing.T) {
	s := NewSplit(
		NewScaleScalar(1, 2, 0),
		NewScaleScalar(1, 3, 0),
	)
	input := array.FromSlice([]float64{1}, 1)
	s.Forward(input)

	s.Backward(input, array.FromSlice([]float64{10, 100}, 2))
	// 2*10 + 3*100
	assert.Equal(t, []float64{320}, s.InputGradient().Data())
}

func TestNewSplit_Validation(t *testing.T) {
	assert.Panics(t, func() { NewSplit() })
	assert.Panics(t, func() {
		NewSplit(NewLogistic(2), NewLogistic(3))
	})
}

func testCombine(t *testing.T, gradient func([]*array.Array, *array.Array) []*array.Array) *Combine {
	t.Helper()
	return NewCombine(CombineConfig{
		OutputSize: 2,
		Combine: func(outputs []*array.Array) *array.Array {
			sum := outputs[0].Clone()
			for _, o := range outputs[1:] {
				sum.Add(o)
			}
			return sum
		},
		Gradient: gradient,
	},
		NewScaleScalar(2, 2, 0),
		NewScaleScalar(2, 3, 0),
	)
}

func TestCombine_Forward(t *testing.T) {
	c := testCombine(t, nil)
	c.Calc(array.FromSlice([]float64{1, 2}, 2))
	// [2,4] + [3,6]
	assert.Equal(t, []float64{5, 10}, c.Output().Data())
}

func TestCombine_BackwardWithGradient(t *testing.T) {
	c := testCombine(t, func(outputs []*array.Array, og *array.Array) []*array.Array {
		// Sum is linear: every branch sees the full output gradient.
		return []*array.Array{og, og}
	})
	input := array.FromSlice([]float64{1, 2}, 2)
	c.Forward(input)
	c.Backward(input, array.Ones(2))

	// Branch factors 2 and 3 both receive [1, 1] and sum.
	assert.Equal(t, []float64{5, 5}, c.InputGradient().Data())
}

func TestCombine_NilGradientIsZero(t *testing.T) {
	c := testCombine(t, nil)
	input := array.FromSlice([]float64{1, 2}, 2)
	c.Forward(input)
	c.Backward(input, array.Ones(2))

	assert.Equal(t, []float64{0, 0}, c.InputGradient().Data())
	// The branches never saw a backward pass.
	assert.Panics(t, func() { c.Modules()[0].InputGradient() })
}

func TestNewCombine_Validation(t *testing.T) {
	combine := func(outputs []*array.Array) *array.Array { return outputs[0] }
	assert.Panics(t, func() {
		NewCombine(CombineConfig{OutputSize: 2, Combine: combine})
	})
	assert.Panics(t, func() {
		NewCombine(CombineConfig{OutputSize: 2}, NewLogistic(2))
	})
	assert.Panics(t, func() {
		NewCombine(CombineConfig{Combine: combine}, NewLogistic(2))
	})
	assert.Panics(t, func() {
		NewCombine(CombineConfig{OutputSize: 2, Combine: combine},
			NewLogistic(2), NewLogistic(3))
	})
}

func TestFunction(t *testing.T) {
	f := NewFunction(FunctionConfig{
		InputSize:  2,
		OutputSize: 1,
		Fn: func(input *array.Array) *array.Array {
			return array.FromSlice([]float64{input.Sum()}, 1)
		},
		Gradient: func(input, og *array.Array) *array.Array {
			return array.Full(og.At(0), input.Len())
		},
	})

	input := array.FromSlice([]float64{3, 4}, 2)
	f.Calc(input)
	assert.Equal(t, []float64{7}, f.Output().Data())

	f.Backward(input, array.FromSlice([]float64{2}, 1))
	assert.Equal(t, []float64{2, 2}, f.InputGradient().Data())
}

func TestFunction_NilGradientIsZero(t *testing.T) {
	f := NewFunction(FunctionConfig{
		InputSize:  2,
		OutputSize: 2,
		Fn:         func(input *array.Array) *array.Array { return input.Clone() },
	})
	input := array.FromSlice([]float64{1, 2}, 2)
	f.Forward(input)
	f.Backward(input, array.Ones(2))
	assert.Equal(t, []float64{0, 0}, f.InputGradient().Data())
}

func TestFunction_OutputSizeMismatchPanics(t *testing.T) {
	f := NewFunction(FunctionConfig{
		InputSize:  2,
		OutputSize: 3,
		Fn:         func(input *array.Array) *array.Array { return input.Clone() },
	})
	assert.Panics(t, func() { f.Calc(array.Zeros(2)) })
}

func TestNewFunction_Validation(t *testing.T) {
	fn := func(input *array.Array) *array.Array { return input }
	assert.Panics(t, func() { NewFunction(FunctionConfig{InputSize: 2, OutputSize: 2}) })
	assert.Panics(t, func() { NewFunction(FunctionConfig{InputSize: 0, OutputSize: 2, Fn: fn}) })
}
