package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/synapse-ml/synapse/internal/array"
)

func TestNormalizer_UntrainedIsPassThrough(t *testing.T) {
	// Fresh statistics are mean 0, sd 1.
	n := NewNormalizer(3, NormalizerConfig{})
	input := array.FromSlice([]float64{1, -2, 3}, 3)
	n.Calc(input)
	assert.Equal(t, input.Data(), n.Output().Data())
}

func TestNormalizer_ForwardUpdatesStatistics(t *testing.T) {
	n := NewNormalizer(1, NormalizerConfig{LearnRate: 0.5})
	n.Forward(array.FromSlice([]float64{2}, 1))

	// accMean = 0.5*2 = 1; accSS = 1 + 0.5*(4-1) = 2.5; var = 1.5
	assert.InDelta(t, 1.0, n.Mean().At(0), 1e-12)
	sd := math.Sqrt(1.5)
	assert.InDelta(t, sd, n.SD().At(0), 1e-12)
	assert.InDelta(t, (2.0-1.0)/sd, n.Output().At(0), 1e-12)
}

func TestNormalizer_CalcDoesNotUpdateStatistics(t *testing.T) {
	n := NewNormalizer(1, NormalizerConfig{LearnRate: 0.5})
	n.Forward(array.FromSlice([]float64{2}, 1))
	mean := n.Mean().At(0)
	sd := n.SD().At(0)

	n.Calc(array.FromSlice([]float64{10}, 1))
	assert.Equal(t, mean, n.Mean().At(0))
	assert.Equal(t, sd, n.SD().At(0))
	assert.InDelta(t, (10.0-mean)/sd, n.Output().At(0), 1e-12)
}

func TestNormalizer_SDFloor(t *testing.T) {
	// A learn rate of 1 adopts the sample outright: variance collapses to
	// zero and the epsilon floor keeps the division finite.
	n := NewNormalizer(1, NormalizerConfig{LearnRate: 1})
	n.Forward(array.FromSlice([]float64{3}, 1))

	assert.Equal(t, 3.0, n.Mean().At(0))
	assert.Equal(t, normalizerEpsilon, n.SD().At(0))
	assert.Equal(t, 0.0, n.Output().At(0))
	assert.False(t, math.IsNaN(n.Output().At(0)))
}

func TestNormalizer_Backward(t *testing.T) {
	n := NewNormalizer(2, NormalizerConfig{LearnRate: 0.5})
	input := array.FromSlice([]float64{2, 4}, 2)
	n.Forward(input)

	og := array.FromSlice([]float64{1, -1}, 2)
	n.Backward(input, og)
	assert.InDelta(t, 1.0/n.SD().At(0), n.InputGradient().At(0), 1e-12)
	assert.InDelta(t, -1.0/n.SD().At(1), n.InputGradient().At(1), 1e-12)
}

func TestNormalizer_NoParameters(t *testing.T) {
	n := NewNormalizer(4, NormalizerConfig{})
	assert.Empty(t, n.Parameters())
}

func TestNormalizer_Clone(t *testing.T) {
	n := NewNormalizer(1, NormalizerConfig{LearnRate: 0.5})
	n.Forward(array.FromSlice([]float64{2}, 1))

	c := n.Clone().(*Normalizer)
	c.Forward(array.FromSlice([]float64{100}, 1))
	// The original's statistics are untouched by the clone's training.
	assert.InDelta(t, 1.0, n.Mean().At(0), 1e-12)
	assert.NotEqual(t, n.Mean().At(0), c.Mean().At(0))
}

func TestNormalizer_DefaultLearnRate(t *testing.T) {
	n := NewNormalizer(1, NormalizerConfig{})
	n.Forward(array.FromSlice([]float64{1}, 1))
	assert.InDelta(t, DefaultNormalizerLearnRate, n.Mean().At(0), 1e-12)
}
