package nn

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ml/synapse/internal/array"
)

func testModel(t *testing.T) *Stack {
	t.Helper()
	return NewStack(
		NewLinearFromWeights(
			array.FromSlice([]float64{1, 2, 3, 4}, 2, 2),
			array.FromSlice([]float64{5, 6}, 2),
			LinearConfig{}),
		NewTanh(2),
		NewLinearFromWeights(
			array.FromSlice([]float64{7, 8}, 1, 2),
			array.FromSlice([]float64{9}, 1),
			LinearConfig{}),
	)
}

func TestNewParameter(t *testing.T) {
	p := NewParameter("weight", array.FromSlice([]float64{1, 2}, 2))
	assert.Equal(t, "weight", p.Name)
	assert.Equal(t, []float64{0, 0}, p.Grad.Data())
	assert.True(t, p.Data.Shape().Equal(p.Grad.Shape()))
}

func TestParameterCount(t *testing.T) {
	m := testModel(t)
	// 4+2 first linear, 0 tanh, 2+1 second linear
	assert.Equal(t, 9, ParameterCount(m))
}

func TestPackParameters_TreeOrder(t *testing.T) {
	m := testModel(t)
	flat := array.New(9)
	PackParameters(m, flat)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, flat.Data())
}

func TestPackUnpackRoundTrip(t *testing.T) {
	m := testModel(t)
	flat := array.New(9)
	PackParameters(m, flat)

	updated := flat.Clone()
	updated.Scale(2)
	UpdateParameters(m, updated)

	repacked := array.New(9)
	PackParameters(m, repacked)
	assert.Equal(t, updated.Data(), repacked.Data())
}

func TestPackGradient(t *testing.T) {
	m := testModel(t)
	input := array.FromSlice([]float64{1, 1}, 2)
	m.Forward(input)
	m.Backward(input, array.Ones(1))

	flat := array.New(9)
	PackGradient(m, flat)
	// Gradients flow into the same slots parameters pack from.
	packed := m.Parameters()
	assert.Equal(t, packed[0].Grad.At(0), flat.At(0))
	assert.Equal(t, packed[3].Grad.At(0), flat.At(8))
	assert.NotEqual(t, 0.0, flat.Norm())
}

func TestUpdateParameters_ZeroesGradients(t *testing.T) {
	m := testModel(t)
	input := array.FromSlice([]float64{1, 1}, 2)
	m.Forward(input)
	m.Backward(input, array.Ones(1))

	flat := array.New(9)
	PackParameters(m, flat)
	UpdateParameters(m, flat)

	for _, p := range m.Parameters() {
		assert.Equal(t, 0.0, p.Grad.Norm(), "gradient %q not zeroed", p.Name)
	}
}

func TestPack_LengthMismatchPanics(t *testing.T) {
	m := testModel(t)
	assert.Panics(t, func() { PackParameters(m, array.New(8)) })
	assert.Panics(t, func() { PackParameters(m, array.New(10)) })
	assert.Panics(t, func() { UpdateParameters(m, array.New(8)) })
}

func TestVisit_PreOrder(t *testing.T) {
	inner := NewStack(NewLogistic(2), NewTanh(2))
	outer := NewStack(inner, NewSoftmax(2))

	var order []string
	Visit(outer, func(m Module) {
		order = append(order, fmt.Sprint(m))
	})
	require.Len(t, order, 5)
	assert.Contains(t, order[1], "Stack")
	assert.Contains(t, order[2], "logistic")
	assert.Contains(t, order[4], "Softmax")
}

func TestUpdateParameters_AppliesConstraintInContainers(t *testing.T) {
	// The L2 row constraint fires on nested modules too.
	l := NewLinearFromWeights(
		array.FromSlice([]float64{3, -4}, 1, 2), array.Zeros(1),
		LinearConfig{L2MaxConstraint: 2})
	m := NewStack(l, NewTanh(1))

	flat := array.New(ParameterCount(m))
	PackParameters(m, flat)
	UpdateParameters(m, flat)

	assert.InDelta(t, 1.2, l.Weight().Data.At(0), 1e-12)
	assert.InDelta(t, -1.6, l.Weight().Data.At(1), 1e-12)
}

func TestUpdateParameters_InvalidatesCalcCache(t *testing.T) {
	m := testModel(t)
	input := array.FromSlice([]float64{1, 1}, 2)
	m.Calc(input)
	before := m.Output().Clone()

	flat := array.New(9)
	PackParameters(m, flat)
	flat.Scale(0.5)
	UpdateParameters(m, flat)

	// The whole chain recomputes under the new parameters.
	m.Calc(input)
	assert.False(t, before.Equal(m.Output()))
}

func TestStackClone_Independent(t *testing.T) {
	m := testModel(t)
	c := m.Clone().(*Stack)

	flat := array.New(9)
	PackParameters(m, flat)
	flat.Scale(0)
	UpdateParameters(c, flat)

	orig := array.New(9)
	PackParameters(m, orig)
	assert.NotEqual(t, 0.0, orig.Norm())
}
