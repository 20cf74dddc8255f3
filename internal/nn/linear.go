package nn

import (
	"fmt"
	"math/rand"

	"github.com/synapse-ml/synapse/internal/array"
)

// LinearConfig configures a Linear layer.
type LinearConfig struct {
	WeightScale     float64    // multiplies the initial random weights; 0 means 1.0
	L2MaxConstraint float64    // max L2 norm per weight row after an update; 0 disables
	Rand            *rand.Rand // random source for initialization; nil uses a time-seeded source
}

// Linear is a dense affine layer: output = W·input + b.
//
// W has shape [out, in] and b has length out. Backward computes
// inputGrad = Wᵗ·outputGrad and accumulates
// weightGrad += outputGrad ⊗ input and biasGrad += outputGrad.
//
// With L2MaxConstraint set, every weight row whose L2 norm exceeds the
// constraint is rescaled back onto the bound after each parameter update;
// rows within the bound are untouched. The constraint is applied per row,
// never globally.
type Linear struct {
	buffers
	in, out   int
	weight    *Parameter // [out, in]
	bias      *Parameter // [out]
	l2MaxNorm float64
}

// NewLinear creates a linear layer with Xavier-initialized weights and a
// zero bias.
func NewLinear(in, out int, cfg LinearConfig) *Linear {
	if in <= 0 || out <= 0 {
		panic(fmt.Sprintf("linear: invalid dimensions in=%d out=%d", in, out))
	}
	scale := cfg.WeightScale
	if scale == 0 {
		scale = 1.0
	}
	rng := cfg.Rand
	if rng == nil {
		rng = newRand()
	}
	weight := xavier(in, out, scale, rng, out, in)
	bias := array.New(out)
	return newLinear(weight, bias, cfg.L2MaxConstraint)
}

// NewLinearFromWeights creates a linear layer from explicit weights
// (shape [out, in]) and bias (length out). Both are copied. Panics if the
// weight row count does not match the bias length.
func NewLinearFromWeights(weight, bias *array.Array, cfg LinearConfig) *Linear {
	if len(weight.Shape()) != 2 {
		panic(fmt.Sprintf("linear: weights must be 2-D, got shape %v", weight.Shape()))
	}
	if weight.Shape()[0] != bias.Len() {
		panic(fmt.Sprintf("linear: weight rows %d do not match bias length %d",
			weight.Shape()[0], bias.Len()))
	}
	return newLinear(weight.Clone(), bias.Clone(), cfg.L2MaxConstraint)
}

func newLinear(weight, bias *array.Array, l2MaxNorm float64) *Linear {
	return &Linear{
		in:        weight.Shape()[1],
		out:       weight.Shape()[0],
		weight:    NewParameter("weight", weight),
		bias:      NewParameter("bias", bias),
		l2MaxNorm: l2MaxNorm,
	}
}

// Calc implements Module.
func (l *Linear) Calc(input *array.Array) {
	checkInput("linear", input, l.in)
	if l.cached(input) {
		return
	}
	l.compute(input)
}

// Forward implements Module.
func (l *Linear) Forward(input *array.Array) {
	checkInput("linear", input, l.in)
	l.compute(input)
}

func (l *Linear) compute(input *array.Array) {
	if l.output == nil {
		l.output = array.New(l.out)
	}
	l.output.CopyFrom(l.bias.Data)
	// output = W·input + bias
	array.Gemv(false, 1.0, l.weight.Data, input, 1.0, l.output)
	l.remember(input)
}

// Backward implements Module.
func (l *Linear) Backward(input, outputGrad *array.Array) {
	checkInput("linear", input, l.in)
	checkInput("linear", outputGrad, l.out)
	if l.inGrad == nil {
		l.inGrad = array.New(l.in)
	}
	// inputGrad = Wᵗ·outputGrad
	array.Gemv(true, 1.0, l.weight.Data, outputGrad, 0.0, l.inGrad)
	// weightGrad += outputGrad ⊗ input
	array.Ger(1.0, outputGrad, input, l.weight.Grad)
	// biasGrad += outputGrad
	l.bias.Grad.Add(outputGrad)
}

// Parameters implements Module.
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// postUpdate applies the per-row L2 max constraint after an update.
func (l *Linear) postUpdate() {
	if l.l2MaxNorm <= 0 {
		return
	}
	for r := 0; r < l.out; r++ {
		row := l.weight.Data.Row(r)
		norm := row.Norm()
		if norm > l.l2MaxNorm {
			row.Scale(l.l2MaxNorm / norm)
		}
	}
}

// InputSize implements Module.
func (l *Linear) InputSize() int { return l.in }

// OutputSize implements Module.
func (l *Linear) OutputSize() int { return l.out }

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter { return l.weight }

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter { return l.bias }

// Clone implements Module.
func (l *Linear) Clone() Module {
	c := *l
	c.buffers = l.buffers.clone()
	c.weight = l.weight.Clone()
	c.bias = l.bias.Clone()
	return &c
}

// String returns a debug representation.
func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d, l2_max=%v)", l.in, l.out, l.l2MaxNorm)
}
