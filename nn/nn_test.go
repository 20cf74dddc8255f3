package nn_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-ml/synapse/array"
	"github.com/synapse-ml/synapse/nn"
	"github.com/synapse-ml/synapse/optim"
)

// Every concrete layer and container satisfies the Module contract.
var (
	_ nn.Module = (*nn.Activation)(nil)
	_ nn.Module = (*nn.Softmax)(nil)
	_ nn.Module = (*nn.Scale)(nil)
	_ nn.Module = (*nn.Dropout)(nil)
	_ nn.Module = (*nn.GaussianNoise)(nil)
	_ nn.Module = (*nn.Linear)(nil)
	_ nn.Module = (*nn.Conv2D)(nil)
	_ nn.Module = (*nn.MaxPool2D)(nil)
	_ nn.Module = (*nn.Normalizer)(nil)
	_ nn.Module = (*nn.Autoencoder)(nil)
	_ nn.Module = (*nn.Stack)(nil)
	_ nn.Module = (*nn.Split)(nil)
	_ nn.Module = (*nn.Combine)(nil)
	_ nn.Module = (*nn.Function)(nil)
)

func TestTrainLinearRegression(t *testing.T) {
	// Fit y = 2*x1 - x2 + 0.5 with a single linear layer.
	rng := rand.New(rand.NewSource(42))
	model := nn.NewStack(nn.NewLinear(2, 1, nn.LinearConfig{Rand: rng}))
	driver := optim.NewDriver(optim.NewSGD(optim.SGDConfig{LR: 0.1}))

	target := func(x1, x2 float64) float64 { return 2*x1 - x2 + 0.5 }

	grad := array.New(1)
	input := array.New(2)
	for epoch := 0; epoch < 300; epoch++ {
		for i := 0; i < 8; i++ {
			input.Set(0, rng.Float64()*2-1)
			input.Set(1, rng.Float64()*2-1)
			model.Forward(input)
			grad.Set(0, model.Output().At(0)-target(input.At(0), input.At(1)))
			model.Backward(input, grad)
		}
		driver.Optimize(model, 8)
	}

	model.Calc(array.FromSlice([]float64{0.3, -0.2}, 2))
	assert.InDelta(t, target(0.3, -0.2), model.Output().At(0), 0.01)
}

func TestConvPoolPipeline(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	conv := nn.NewConv2D(nn.Conv2DConfig{
		InputWidth: 4, InputHeight: 4, InputChannels: 1,
		KernelWidth: 3, KernelHeight: 3,
		PadX: 1, PadY: 1,
		NumKernels: 2,
		Rand:       rng,
	})
	require.Equal(t, 32, conv.OutputSize())

	pool := nn.NewMaxPool2D(nn.MaxPool2DConfig{
		InputWidth: 4, InputHeight: 4, InputChannels: 2,
		KernelWidth: 2, KernelHeight: 2,
		StrideX: 2, StrideY: 2,
	})
	model := nn.NewStack(conv, pool, nn.NewRectifiedLinear(8, 0))

	input := array.New(16)
	for i := 0; i < input.Len(); i++ {
		input.Set(i, rng.Float64())
	}
	model.Forward(input)
	require.Equal(t, 8, model.Output().Len())

	model.Backward(input, array.Ones(8))
	assert.Equal(t, 16, model.InputGradient().Len())

	grads := array.New(nn.ParameterCount(model))
	nn.PackGradient(model, grads)
	assert.NotEqual(t, 0.0, grads.Norm())
}

func TestVisitAndPack(t *testing.T) {
	model := nn.NewStack(
		nn.NewLinearFromWeights(
			array.FromSlice([]float64{1, 2, 3, 4}, 2, 2),
			array.Zeros(2),
			nn.LinearConfig{}),
		nn.NewTanh(2),
	)

	count := 0
	nn.Visit(model, func(nn.Module) { count++ })
	assert.Equal(t, 3, count)

	require.Equal(t, 6, nn.ParameterCount(model))
	flat := array.New(6)
	nn.PackParameters(model, flat)
	assert.Equal(t, []float64{1, 2, 3, 4, 0, 0}, flat.Data())

	flat.Scale(2)
	nn.UpdateParameters(model, flat)
	repacked := array.New(6)
	nn.PackParameters(model, repacked)
	assert.Equal(t, flat.Data(), repacked.Data())
}
