// Copyright 2026 The Synapse Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for building and training computation
// graphs from composable modules.
//
// Every layer and container satisfies the Module interface: Calc for the
// inference path, Forward for the training path, Backward for gradient
// propagation, plus accessors for the owned output, input-gradient and
// parameter buffers. Containers (Stack, Split, Combine, Autoencoder)
// compose modules into sequential, fan-out and fan-in graphs.
//
// Building a model:
//
//	model := nn.NewStack(
//	    nn.NewLinear(784, 128, nn.LinearConfig{}),
//	    nn.NewTanh(128),
//	    nn.NewDropout(128, 0.5, nn.DropoutConfig{}),
//	    nn.NewLinear(128, 10, nn.LinearConfig{}),
//	    nn.NewSoftmax(10),
//	)
//
// Training drives the module directly:
//
//	model.Forward(input)              // training path, fresh randomness
//	model.Backward(input, lossGrad)   // accumulates parameter gradients
//
// while inference uses Calc, which is idempotent and skips all
// training-only behavior (dropout masks, normalizer statistic updates):
//
//	model.Calc(input)
//	prediction := model.Output()
//
// Parameter access is flat and deterministic: PackParameters,
// PackGradient and UpdateParameters all traverse the module tree in the
// same pre-order, so the optim package can treat any module tree as a
// single flat parameter vector.
package nn
