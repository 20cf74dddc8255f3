// Copyright 2026 The Synapse Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/synapse-ml/synapse/array"
	"github.com/synapse-ml/synapse/internal/nn"
)

// Module is the capability contract implemented by every layer and
// container in the engine. See the internal/nn package for the full
// ordering contract.
type Module = nn.Module

// Parameter is a trainable buffer paired with its accumulated gradient.
type Parameter = nn.Parameter

// NewParameter creates a parameter around data with a zeroed gradient
// buffer of the same shape.
func NewParameter(name string, data *array.Array) *Parameter {
	return nn.NewParameter(name, data)
}

// Layer types.
type (
	// Activation is an elementwise activation layer.
	Activation = nn.Activation
	// Softmax is the jointly-normalized exponential layer.
	Softmax = nn.Softmax
	// Scale applies output = input .* factor + constant.
	Scale = nn.Scale
	// Dropout randomly silences elements during training.
	Dropout = nn.Dropout
	// GaussianNoise applies multiplicative Gaussian noise during training.
	GaussianNoise = nn.GaussianNoise
	// Linear is a dense affine layer.
	Linear = nn.Linear
	// Conv2D is a windowed affine layer over a CHW-flattened input.
	Conv2D = nn.Conv2D
	// MaxPool2D reduces each channel's windows to their maximum element.
	MaxPool2D = nn.MaxPool2D
	// Normalizer tracks running per-element statistics.
	Normalizer = nn.Normalizer
	// Autoencoder pairs an encoder with a decoder.
	Autoencoder = nn.Autoencoder
	// Stack chains modules sequentially.
	Stack = nn.Stack
	// Split fans the same input out to independent branches.
	Split = nn.Split
	// Combine reduces branch outputs with a caller-supplied function.
	Combine = nn.Combine
	// Function wraps an arbitrary pure function as a module.
	Function = nn.Function
)

// Configuration types.
type (
	ScaleConfig         = nn.ScaleConfig
	DropoutConfig       = nn.DropoutConfig
	GaussianNoiseConfig = nn.GaussianNoiseConfig
	LinearConfig        = nn.LinearConfig
	Conv2DConfig        = nn.Conv2DConfig
	MaxPool2DConfig     = nn.MaxPool2DConfig
	NormalizerConfig    = nn.NormalizerConfig
	CombineConfig       = nn.CombineConfig
	FunctionConfig      = nn.FunctionConfig
)

// NewLogistic creates a logistic (sigmoid) activation layer.
func NewLogistic(size int) *Activation { return nn.NewLogistic(size) }

// NewTanh creates a hyperbolic tangent activation layer.
func NewTanh(size int) *Activation { return nn.NewTanh(size) }

// NewSoftplus creates a softplus activation layer.
func NewSoftplus(size int) *Activation { return nn.NewSoftplus(size) }

// NewRectifiedLinear creates a rectified linear activation layer with a
// configurable negative slope.
func NewRectifiedLinear(size int, negval float64) *Activation {
	return nn.NewRectifiedLinear(size, negval)
}

// NewSoftmax creates a softmax layer over vectors of the given size.
func NewSoftmax(size int) *Softmax { return nn.NewSoftmax(size) }

// NewScale creates a scale layer over vectors of the given size.
func NewScale(size int, cfg ScaleConfig) *Scale { return nn.NewScale(size, cfg) }

// NewScaleScalar creates a scale layer with uniform factor and constant.
func NewScaleScalar(size int, factor, constant float64) *Scale {
	return nn.NewScaleScalar(size, factor, constant)
}

// NewDropout creates a dropout layer with inclusion probability p.
func NewDropout(size int, p float64, cfg DropoutConfig) *Dropout {
	return nn.NewDropout(size, p, cfg)
}

// NewGaussianNoise creates a multiplicative-noise layer.
func NewGaussianNoise(size int, p, sd float64, cfg GaussianNoiseConfig) *GaussianNoise {
	return nn.NewGaussianNoise(size, p, sd, cfg)
}

// NewLinear creates a linear layer with Xavier-initialized weights and a
// zero bias.
func NewLinear(in, out int, cfg LinearConfig) *Linear { return nn.NewLinear(in, out, cfg) }

// NewLinearFromWeights creates a linear layer from explicit weights and
// bias. Panics if the weight row count does not match the bias length.
func NewLinearFromWeights(weight, bias *array.Array, cfg LinearConfig) *Linear {
	return nn.NewLinearFromWeights(weight, bias, cfg)
}

// NewConv2D creates a convolution layer.
func NewConv2D(cfg Conv2DConfig) *Conv2D { return nn.NewConv2D(cfg) }

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D(cfg MaxPool2DConfig) *MaxPool2D { return nn.NewMaxPool2D(cfg) }

// NewNormalizer creates a normalizer layer over vectors of the given size.
func NewNormalizer(size int, cfg NormalizerConfig) *Normalizer {
	return nn.NewNormalizer(size, cfg)
}

// NewAutoencoder creates an autoencoder from an encoder and decoder with
// mirrored shapes.
func NewAutoencoder(up, down Module) *Autoencoder { return nn.NewAutoencoder(up, down) }

// NewStack creates a sequential stack. Panics on an empty sequence.
func NewStack(modules ...Module) *Stack { return nn.NewStack(modules...) }

// NewSplit creates a fan-out container.
func NewSplit(modules ...Module) *Split { return nn.NewSplit(modules...) }

// NewCombine creates a fan-in container. Without a Gradient function in
// the config, Backward produces a zero input gradient; supply one when the
// module sits on a training path.
func NewCombine(cfg CombineConfig, modules ...Module) *Combine {
	return nn.NewCombine(cfg, modules...)
}

// NewFunction wraps a pure function as a parameterless module. The same
// zero-gradient caveat as NewCombine applies.
func NewFunction(cfg FunctionConfig) *Function { return nn.NewFunction(cfg) }

// Visit walks m and every nested sub-module in pre-order.
func Visit(m Module, fn func(Module)) { nn.Visit(m, fn) }

// ParameterCount returns the total number of scalar parameters in the tree.
func ParameterCount(m Module) int { return nn.ParameterCount(m) }

// PackParameters flattens every parameter buffer into dst in tree order.
func PackParameters(m Module, dst *array.Array) { nn.PackParameters(m, dst) }

// PackGradient flattens every gradient buffer into dst in tree order.
func PackGradient(m Module, dst *array.Array) { nn.PackGradient(m, dst) }

// UpdateParameters writes flat back into the tree's parameter buffers and
// zeroes every gradient buffer.
func UpdateParameters(m Module, flat *array.Array) { nn.UpdateParameters(m, flat) }
