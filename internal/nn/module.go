// Package nn implements the module contract and the concrete layers of the
// engine.
//
// This package provides the building blocks for constructing computation
// graphs:
//   - Module interface: the forward/backward contract every layer satisfies
//   - Parameter: trainable buffer with an accumulated gradient
//   - Layers: Linear, Conv2D, MaxPool2D, Normalizer, activations, Dropout
//   - Containers: Stack, Split, Combine, Function, Autoencoder
//
// A module owns its output and input-gradient buffers. Calc is the
// inference path; Forward is the training path (stochastic layers draw
// fresh randomness); Backward accumulates parameter gradients and computes
// the input gradient for the exact input that produced the current output.
package nn

import (
	"fmt"

	"github.com/synapse-ml/synapse/internal/array"
)

// Module is the capability contract implemented by every layer and
// container in the engine.
//
// Operations mutate the receiver in place. The ordering contract is strict:
// Backward is only meaningful after a Forward or Calc with the same input,
// and parameter gradients accumulate across Backward calls until
// UpdateParameters consumes them.
type Module interface {
	// Calc computes the output for input on the inference path.
	//
	// Calc is idempotent: calling it again with an equal input is a no-op.
	// Panics if the input length does not match InputSize.
	Calc(input *array.Array)

	// Forward computes the output for input on the training path.
	//
	// Unlike Calc it always recomputes, and training-only state (dropout
	// masks, normalizer statistics) is refreshed.
	Forward(input *array.Array)

	// Backward accumulates parameter gradients and computes the input
	// gradient from outputGrad. It requires a prior Forward or Calc with
	// the same input; violating that produces meaningless gradients.
	Backward(input, outputGrad *array.Array)

	// Output returns the last computed output.
	// Panics with "no output available" before any Calc or Forward.
	Output() *array.Array

	// InputGradient returns the gradient computed by the last Backward.
	// Panics before any Backward.
	InputGradient() *array.Array

	// Parameters returns the module's parameter buffers in pre-order tree
	// traversal. Parameterless modules return an empty slice.
	Parameters() []*Parameter

	// InputSize returns the expected input length.
	InputSize() int

	// OutputSize returns the produced output length.
	OutputSize() int

	// Clone returns a deep copy sharing no mutable state with the receiver.
	Clone() Module
}

// container is implemented by modules that hold sub-modules; Visit uses it
// to walk the tree.
type container interface {
	Modules() []Module
}

// postUpdater is implemented by modules that constrain their parameters
// after an update (e.g. the linear layer's L2 row constraint).
type postUpdater interface {
	postUpdate()
}

// cacheInvalidator is implemented by modules that cache their last input
// for Calc idempotence. UpdateParameters clears the cache: new parameters
// change the input/output mapping, so a cached output is stale.
type cacheInvalidator interface {
	invalidateCache()
}

// Parameter is a trainable buffer paired with its accumulated gradient.
//
// Data and Grad always have the same shape. Backward adds into Grad;
// UpdateParameters writes new values into Data and zeroes Grad.
type Parameter struct {
	Name string
	Data *array.Array
	Grad *array.Array
}

// NewParameter creates a parameter around data with a zeroed gradient
// buffer of the same shape.
func NewParameter(name string, data *array.Array) *Parameter {
	return &Parameter{
		Name: name,
		Data: data,
		Grad: array.New(data.Shape()...),
	}
}

// Clone deep-copies the parameter and its gradient.
func (p *Parameter) Clone() *Parameter {
	return &Parameter{Name: p.Name, Data: p.Data.Clone(), Grad: p.Grad.Clone()}
}

// Visit walks m and every nested sub-module in pre-order.
func Visit(m Module, fn func(Module)) {
	fn(m)
	if c, ok := m.(container); ok {
		for _, sub := range c.Modules() {
			Visit(sub, fn)
		}
	}
}

// ParameterCount returns the total number of scalar parameters in the tree.
func ParameterCount(m Module) int {
	count := 0
	for _, p := range m.Parameters() {
		count += p.Data.Len()
	}
	return count
}

// PackParameters flattens every parameter buffer into dst in tree order.
// Panics if dst's length does not equal ParameterCount(m).
func PackParameters(m Module, dst *array.Array) {
	pack(m, dst, func(p *Parameter) *array.Array { return p.Data })
}

// PackGradient flattens every gradient buffer into dst in tree order.
// Panics if dst's length does not equal ParameterCount(m).
func PackGradient(m Module, dst *array.Array) {
	pack(m, dst, func(p *Parameter) *array.Array { return p.Grad })
}

func pack(m Module, dst *array.Array, buf func(*Parameter) *array.Array) {
	offset := 0
	out := dst.Data()
	for _, p := range m.Parameters() {
		src := buf(p).Data()
		if offset+len(src) > len(out) {
			panic(fmt.Sprintf("nn: packed buffer length %d too small for parameter count %d",
				dst.Len(), ParameterCount(m)))
		}
		copy(out[offset:], src)
		offset += len(src)
	}
	if offset != len(out) {
		panic(fmt.Sprintf("nn: packed buffer length %d does not match parameter count %d",
			dst.Len(), offset))
	}
}

// UpdateParameters writes flat back into the tree's parameter buffers using
// the same pre-order traversal as PackParameters, zeroes every gradient
// buffer, applies each module's post-update constraint, and invalidates the
// Calc idempotence caches so later Calcs see the new parameters.
//
// Zeroing the gradients is an observable side effect: the accumulated
// gradients are consumed by the update.
func UpdateParameters(m Module, flat *array.Array) {
	offset := 0
	src := flat.Data()
	for _, p := range m.Parameters() {
		n := p.Data.Len()
		if offset+n > len(src) {
			panic(fmt.Sprintf("nn: flat parameter length %d does not match parameter count %d",
				flat.Len(), ParameterCount(m)))
		}
		copy(p.Data.Data(), src[offset:offset+n])
		p.Grad.Zero()
		offset += n
	}
	if offset != len(src) {
		panic(fmt.Sprintf("nn: flat parameter length %d does not match parameter count %d",
			flat.Len(), offset))
	}
	Visit(m, func(sub Module) {
		if pu, ok := sub.(postUpdater); ok {
			pu.postUpdate()
		}
		if inv, ok := sub.(cacheInvalidator); ok {
			inv.invalidateCache()
		}
	})
}

// buffers holds the forward/backward state common to every layer: the owned
// output and input-gradient buffers plus the cached last input that makes
// Calc idempotent.
type buffers struct {
	output    *array.Array
	inGrad    *array.Array
	lastInput *array.Array
}

// Output implements Module.
func (b *buffers) Output() *array.Array {
	if b.output == nil {
		panic("nn: no output available")
	}
	return b.output
}

// InputGradient implements Module.
func (b *buffers) InputGradient() *array.Array {
	if b.inGrad == nil {
		panic("nn: no input gradient available")
	}
	return b.inGrad
}

// cached reports whether the current output was computed from an input
// equal to this one, in which case Calc may skip recomputation.
func (b *buffers) cached(input *array.Array) bool {
	return b.output != nil && b.lastInput != nil && b.lastInput.Equal(input)
}

// invalidateCache drops the cached input so the next Calc recomputes.
func (b *buffers) invalidateCache() {
	b.lastInput = nil
}

// remember records the input that produced the current output.
func (b *buffers) remember(input *array.Array) {
	if b.lastInput == nil || b.lastInput.Len() != input.Len() {
		b.lastInput = input.Clone()
		return
	}
	b.lastInput.CopyFrom(input)
}

// clone deep-copies the buffer state.
func (b *buffers) clone() buffers {
	c := buffers{}
	if b.output != nil {
		c.output = b.output.Clone()
	}
	if b.inGrad != nil {
		c.inGrad = b.inGrad.Clone()
	}
	if b.lastInput != nil {
		c.lastInput = b.lastInput.Clone()
	}
	return c
}

// checkInput panics unless input has exactly size elements.
func checkInput(name string, input *array.Array, size int) {
	if input.Len() != size {
		panic(fmt.Sprintf("%s: input length %d does not match input size %d", name, input.Len(), size))
	}
}
