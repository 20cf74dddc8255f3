// Copyright 2026 The Synapse Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the public API for parameter optimization.
//
// A Driver packs a module tree's parameters and accumulated gradients into
// reusable flat buffers, hands them to an Optimizer (SGD, Adam) to compute
// new parameters, and writes the result back, resetting the gradients.
//
// Example:
//
//	driver := optim.NewDriver(optim.NewAdam(optim.AdamConfig{LR: 0.001}))
//
//	for _, sample := range batch {
//	    model.Forward(sample.Input)
//	    model.Backward(sample.Input, lossGrad(model.Output(), sample.Target))
//	}
//	driver.Optimize(model, len(batch))
package optim

import (
	"github.com/synapse-ml/synapse/internal/optim"
)

// Optimizer computes updated parameters in place from packed gradients.
type Optimizer = optim.Optimizer

// Driver owns the reusable packed buffers and runs the optimise step.
type Driver = optim.Driver

// SGD implements stochastic gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig = optim.SGDConfig

// Adam implements the Adam optimizer.
type Adam = optim.Adam

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewDriver creates a driver around an optimizer.
func NewDriver(opt Optimizer) *Driver { return optim.NewDriver(opt) }

// NewSGD creates an SGD optimizer with defaults applied to zero fields.
func NewSGD(cfg SGDConfig) *SGD { return optim.NewSGD(cfg) }

// NewAdam creates an Adam optimizer with defaults applied to zero fields.
func NewAdam(cfg AdamConfig) *Adam { return optim.NewAdam(cfg) }
