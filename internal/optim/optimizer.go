// Package optim implements the parameter-optimization protocol and the
// gradient-descent algorithms that drive it.
//
// The protocol is flat: a Driver packs a module tree's parameters and
// accumulated gradients into reusable flat buffers (pre-order, exactly the
// order of nn.PackParameters), hands them to an Optimizer to compute new
// parameters in place, and writes the result back through
// nn.UpdateParameters, which also resets the gradients.
//
// Example:
//
//	model := nn.NewStack(
//	    nn.NewLinear(2, 4, nn.LinearConfig{}),
//	    nn.NewTanh(4),
//	    nn.NewLinear(4, 1, nn.LinearConfig{}),
//	)
//	driver := optim.NewDriver(optim.NewSGD(optim.SGDConfig{LR: 0.1}))
//
//	for _, sample := range batch {
//	    model.Forward(sample.Input)
//	    model.Backward(sample.Input, lossGrad(model.Output(), sample.Target))
//	}
//	driver.Optimize(model, len(batch))
package optim

import (
	"github.com/synapse-ml/synapse/internal/array"
	"github.com/synapse-ml/synapse/internal/nn"
)

// Optimizer computes updated parameters from packed gradients.
//
// Step mutates params in place. Algorithm state (momentum, moment
// estimates) lives on the optimizer and is recreated whenever the packed
// length changes, i.e. when the module's parameter layout changed.
type Optimizer interface {
	Step(params, grads *array.Array)
}

// Driver owns the reusable packed parameter and gradient buffers and runs
// the optimise step over a module tree.
type Driver struct {
	opt    Optimizer
	params *array.Array
	grads  *array.Array
}

// NewDriver creates a driver around an optimizer.
func NewDriver(opt Optimizer) *Driver {
	return &Driver{opt: opt}
}

// Optimizer returns the wrapped optimizer.
func (d *Driver) Optimizer() Optimizer { return d.opt }

// Optimize runs one optimise step over m: pack parameters and gradients,
// scale the gradients by 1/batchCount, compute new parameters, write them
// back (resetting the gradients).
//
// batchCount == 0 skips the gradient scaling entirely; it is a guarded
// special case, not an error.
func (d *Driver) Optimize(m nn.Module, batchCount int) {
	n := nn.ParameterCount(m)
	if d.params == nil || d.params.Len() != n {
		d.params = array.New(n)
		d.grads = array.New(n)
	}
	nn.PackParameters(m, d.params)
	nn.PackGradient(m, d.grads)
	if batchCount != 0 {
		d.grads.Scale(1.0 / float64(batchCount))
	}
	d.opt.Step(d.params, d.grads)
	nn.UpdateParameters(m, d.params)
}
