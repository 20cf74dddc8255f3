package nn

import (
	"fmt"

	"github.com/synapse-ml/synapse/internal/array"
)

// Autoencoder pairs an encoder ("up") with a decoder ("down") whose shapes
// mirror each other: up's output feeds down, and down reconstructs up's
// input.
//
// The module's externally visible output is the encoding (up's output);
// the reconstruction is retained for loss computation against the original
// input. Backward adds the squared-error reconstruction gradient,
// propagated back through the decoder, to the caller's output gradient
// before backpropagating through the encoder.
type Autoencoder struct {
	up   Module
	down Module
	// combined gradient against the encoding, built during Backward
	encGrad *array.Array
}

// NewAutoencoder creates an autoencoder from an encoder and decoder.
// Panics unless up's output size matches down's input size and down's
// output size matches up's input size.
func NewAutoencoder(up, down Module) *Autoencoder {
	if up.OutputSize() != down.InputSize() {
		panic(fmt.Sprintf("autoencoder: encoder output %d does not match decoder input %d",
			up.OutputSize(), down.InputSize()))
	}
	if down.OutputSize() != up.InputSize() {
		panic(fmt.Sprintf("autoencoder: decoder output %d does not match encoder input %d",
			down.OutputSize(), up.InputSize()))
	}
	return &Autoencoder{up: up, down: down}
}

// Calc implements Module. Inference runs the encoder only.
func (a *Autoencoder) Calc(input *array.Array) {
	a.up.Calc(input)
}

// Forward implements Module. Both halves run; the decoder consumes the
// fresh encoding.
func (a *Autoencoder) Forward(input *array.Array) {
	a.up.Forward(input)
	a.down.Forward(a.up.Output())
}

// Backward implements Module.
//
// outputGrad is a gradient against the encoding. The reconstruction
// gradient (decoder output minus original input, the squared-error
// derivative) is pushed back through the decoder and added to outputGrad
// before propagating through the encoder.
func (a *Autoencoder) Backward(input, outputGrad *array.Array) {
	checkInput("autoencoder", input, a.up.InputSize())
	checkInput("autoencoder", outputGrad, a.up.OutputSize())

	reconGrad := a.down.Output().Clone()
	reconGrad.Sub(input)
	a.down.Backward(a.up.Output(), reconGrad)

	if a.encGrad == nil {
		a.encGrad = array.New(a.up.OutputSize())
	}
	a.encGrad.CopyFrom(outputGrad)
	a.encGrad.Add(a.down.InputGradient())
	a.up.Backward(input, a.encGrad)
}

// Output implements Module: the encoding, not the reconstruction.
func (a *Autoencoder) Output() *array.Array {
	return a.up.Output()
}

// Reconstruction returns the decoder's output from the last Forward, for
// loss computation against the original input.
func (a *Autoencoder) Reconstruction() *array.Array {
	return a.down.Output()
}

// InputGradient implements Module.
func (a *Autoencoder) InputGradient() *array.Array {
	return a.up.InputGradient()
}

// Parameters implements Module: encoder parameters first, then decoder.
func (a *Autoencoder) Parameters() []*Parameter {
	params := append([]*Parameter(nil), a.up.Parameters()...)
	return append(params, a.down.Parameters()...)
}

// Modules returns the encoder and decoder.
func (a *Autoencoder) Modules() []Module {
	return []Module{a.up, a.down}
}

// Up returns the encoder.
func (a *Autoencoder) Up() Module { return a.up }

// Down returns the decoder.
func (a *Autoencoder) Down() Module { return a.down }

// InputSize implements Module.
func (a *Autoencoder) InputSize() int { return a.up.InputSize() }

// OutputSize implements Module.
func (a *Autoencoder) OutputSize() int { return a.up.OutputSize() }

// Clone implements Module.
func (a *Autoencoder) Clone() Module {
	c := &Autoencoder{up: a.up.Clone(), down: a.down.Clone()}
	if a.encGrad != nil {
		c.encGrad = a.encGrad.Clone()
	}
	return c
}

// String returns a debug representation.
func (a *Autoencoder) String() string {
	return fmt.Sprintf("Autoencoder(in=%d, encoding=%d)", a.InputSize(), a.OutputSize())
}
