package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ml/synapse/internal/array"
)

// testAutoencoder builds a 2 -> 1 -> 2 autoencoder with hand-set weights:
// encoding = x1 + x2, reconstruction = [2e, 3e].
func testAutoencoder(t *testing.T) *Autoencoder {
	t.Helper()
	up := NewLinearFromWeights(
		array.FromSlice([]float64{1, 1}, 1, 2), array.Zeros(1), LinearConfig{})
	down := NewLinearFromWeights(
		array.FromSlice([]float64{2, 3}, 2, 1), array.Zeros(2), LinearConfig{})
	return NewAutoencoder(up, down)
}

func TestAutoencoder_ShapeMismatchPanics(t *testing.T) {
	l21 := NewLinearFromWeights(array.FromSlice([]float64{1, 1}, 1, 2), array.Zeros(1), LinearConfig{})
	l13 := NewLinearFromWeights(array.FromSlice([]float64{1, 1, 1}, 3, 1), array.Zeros(3), LinearConfig{})

	// Decoder output 3 does not mirror encoder input 2.
	assert.Panics(t, func() { NewAutoencoder(l21, l13) })
	// Encoder output 1 does not match decoder input 3.
	assert.Panics(t, func() { NewAutoencoder(l21, l21.Clone()) })
}

func TestAutoencoder_Forward(t *testing.T) {
	a := testAutoencoder(t)
	require.Equal(t, 2, a.InputSize())
	require.Equal(t, 1, a.OutputSize())

	a.Forward(array.FromSlice([]float64{1, 2}, 2))
	assert.Equal(t, []float64{3}, a.Output().Data())
	assert.Equal(t, []float64{6, 9}, a.Reconstruction().Data())
}

func TestAutoencoder_CalcRunsEncoderOnly(t *testing.T) {
	a := testAutoencoder(t)
	a.Calc(array.FromSlice([]float64{1, 2}, 2))
	assert.Equal(t, []float64{3}, a.Output().Data())
	// The decoder never ran.
	assert.Panics(t, func() { a.Reconstruction() })
}

func TestAutoencoder_Backward(t *testing.T) {
	a := testAutoencoder(t)
	input := array.FromSlice([]float64{1, 2}, 2)
	a.Forward(input)
	a.Backward(input, array.FromSlice([]float64{1}, 1))

	// reconGrad = reconstruction - input = [5, 7]
	// decoder inputGrad = Wᵗ·[5, 7] = 31; encGrad = 1 + 31 = 32
	assert.Equal(t, []float64{32, 32}, a.InputGradient().Data())

	params := a.Parameters()
	require.Len(t, params, 4)
	// encoder weight grad = encGrad ⊗ input
	assert.Equal(t, []float64{32, 64}, params[0].Grad.Data())
	assert.Equal(t, []float64{32}, params[1].Grad.Data())
	// decoder weight grad = reconGrad ⊗ encoding
	assert.Equal(t, []float64{15, 21}, params[2].Grad.Data())
	assert.Equal(t, []float64{5, 7}, params[3].Grad.Data())
}

func TestAutoencoder_ParameterOrder(t *testing.T) {
	a := testAutoencoder(t)
	assert.Equal(t, 7, ParameterCount(a)) // 2+1 encoder, 2+2 decoder

	// Visit reaches the autoencoder and both halves.
	count := 0
	Visit(a, func(Module) { count++ })
	assert.Equal(t, 3, count)
}

func TestAutoencoder_Clone(t *testing.T) {
	a := testAutoencoder(t)
	input := array.FromSlice([]float64{1, 2}, 2)
	a.Forward(input)

	c := a.Clone().(*Autoencoder)
	c.Up().(*Linear).Weight().Data.Set(0, 100)
	assert.Equal(t, 1.0, a.Up().(*Linear).Weight().Data.At(0))
}
