package nn

import (
	"fmt"
	"math"

	"github.com/synapse-ml/synapse/internal/array"
)

// Activation is an elementwise activation layer:
// output[i] = f(input[i]) and inputGrad[i] = df(input[i]) * outputGrad[i].
type Activation struct {
	buffers
	name string
	size int
	f    func(float64) float64
	df   func(float64) float64
}

func newActivation(name string, size int, f, df func(float64) float64) *Activation {
	if size <= 0 {
		panic(fmt.Sprintf("%s: invalid size %d", name, size))
	}
	return &Activation{name: name, size: size, f: f, df: df}
}

// Calc implements Module.
func (p *Activation) Calc(input *array.Array) {
	checkInput(p.name, input, p.size)
	if p.cached(input) {
		return
	}
	p.compute(input)
}

// Forward implements Module.
func (p *Activation) Forward(input *array.Array) {
	checkInput(p.name, input, p.size)
	p.compute(input)
}

func (p *Activation) compute(input *array.Array) {
	if p.output == nil {
		p.output = array.New(p.size)
	}
	out := p.output.Data()
	for i, x := range input.Data() {
		out[i] = p.f(x)
	}
	p.remember(input)
}

// Backward implements Module.
func (p *Activation) Backward(input, outputGrad *array.Array) {
	checkInput(p.name, input, p.size)
	checkInput(p.name, outputGrad, p.size)
	if p.inGrad == nil {
		p.inGrad = array.New(p.size)
	}
	in := input.Data()
	og := outputGrad.Data()
	ig := p.inGrad.Data()
	for i := range in {
		ig[i] = p.df(in[i]) * og[i]
	}
}

// Parameters implements Module.
func (p *Activation) Parameters() []*Parameter { return nil }

// InputSize implements Module.
func (p *Activation) InputSize() int { return p.size }

// OutputSize implements Module.
func (p *Activation) OutputSize() int { return p.size }

// Clone implements Module.
func (p *Activation) Clone() Module {
	c := *p
	c.buffers = p.buffers.clone()
	return &c
}

// String returns a debug representation.
func (p *Activation) String() string {
	return fmt.Sprintf("%s(size=%d)", p.name, p.size)
}

func logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// NewLogistic creates a logistic (sigmoid) activation layer:
// f(x) = 1/(1+e^-x), f'(x) = f(x)(1-f(x)).
func NewLogistic(size int) *Activation {
	return newActivation("logistic", size,
		logistic,
		func(x float64) float64 {
			y := logistic(x)
			return y * (1.0 - y)
		})
}

// NewTanh creates a hyperbolic tangent activation layer:
// f(x) = tanh(x), f'(x) = 1 - tanh(x)^2.
func NewTanh(size int) *Activation {
	return newActivation("tanh", size,
		math.Tanh,
		func(x float64) float64 {
			y := math.Tanh(x)
			return 1.0 - y*y
		})
}

// NewSoftplus creates a softplus activation layer:
// f(x) = ln(1+e^x), f'(x) = logistic(x).
func NewSoftplus(size int) *Activation {
	return newActivation("softplus", size,
		func(x float64) float64 {
			// Large x overflows exp; softplus is asymptotically the identity.
			if x > 30 {
				return x
			}
			return math.Log1p(math.Exp(x))
		},
		logistic)
}

// NewRectifiedLinear creates a rectified linear activation layer with a
// configurable negative slope: f(x) = x for x >= 0, negval*x otherwise.
// negval = 0 gives the standard ReLU.
func NewRectifiedLinear(size int, negval float64) *Activation {
	return newActivation("relu", size,
		func(x float64) float64 {
			if x >= 0 {
				return x
			}
			return negval * x
		},
		func(x float64) float64 {
			if x >= 0 {
				return 1.0
			}
			return negval
		})
}

// Softmax computes the normalized exponential over the whole input vector.
//
// Unlike the pointwise activations the output elements are coupled: the
// forward pass subtracts the maximum before exponentiating for numerical
// stability, and the backward pass is the Jacobian-vector product
// inputGrad = y .* (outputGrad - <outputGrad, y>).
type Softmax struct {
	buffers
	size int
}

// NewSoftmax creates a softmax layer over vectors of the given size.
func NewSoftmax(size int) *Softmax {
	if size <= 0 {
		panic(fmt.Sprintf("softmax: invalid size %d", size))
	}
	return &Softmax{size: size}
}

// Calc implements Module.
func (s *Softmax) Calc(input *array.Array) {
	checkInput("softmax", input, s.size)
	if s.cached(input) {
		return
	}
	s.compute(input)
}

// Forward implements Module.
func (s *Softmax) Forward(input *array.Array) {
	checkInput("softmax", input, s.size)
	s.compute(input)
}

func (s *Softmax) compute(input *array.Array) {
	if s.output == nil {
		s.output = array.New(s.size)
	}
	in := input.Data()
	out := s.output.Data()

	maxVal := input.Max()
	sum := 0.0
	for i, x := range in {
		e := math.Exp(x - maxVal)
		out[i] = e
		sum += e
	}
	s.output.Scale(1.0 / sum)
	s.remember(input)
}

// Backward implements Module.
func (s *Softmax) Backward(input, outputGrad *array.Array) {
	checkInput("softmax", input, s.size)
	checkInput("softmax", outputGrad, s.size)
	if s.output == nil {
		panic("softmax: Backward requires a prior Forward or Calc")
	}
	if s.inGrad == nil {
		s.inGrad = array.New(s.size)
	}
	y := s.output.Data()
	og := outputGrad.Data()
	ig := s.inGrad.Data()

	dot := s.output.Dot(outputGrad)
	for i := range y {
		ig[i] = y[i] * (og[i] - dot)
	}
}

// Parameters implements Module.
func (s *Softmax) Parameters() []*Parameter { return nil }

// InputSize implements Module.
func (s *Softmax) InputSize() int { return s.size }

// OutputSize implements Module.
func (s *Softmax) OutputSize() int { return s.size }

// Clone implements Module.
func (s *Softmax) Clone() Module {
	c := *s
	c.buffers = s.buffers.clone()
	return &c
}

// String returns a debug representation.
func (s *Softmax) String() string {
	return fmt.Sprintf("Softmax(size=%d)", s.size)
}

// ScaleConfig configures a Scale layer. A nil Factor means the identity
// factor; a nil Constant means no shift.
type ScaleConfig struct {
	Factor   *array.Array // per-element factor, or nil
	Constant *array.Array // per-element shift, or nil
}

// Scale applies output = input .* factor + constant.
//
// An all-ones factor or an all-zero constant is normalized to nil at
// construction; this is an efficiency measure with no behavioral
// difference.
type Scale struct {
	buffers
	size     int
	factor   *array.Array
	constant *array.Array
}

// NewScale creates a scale layer over vectors of the given size.
// Factor and Constant, when present, must have exactly size elements.
func NewScale(size int, cfg ScaleConfig) *Scale {
	if size <= 0 {
		panic(fmt.Sprintf("scale: invalid size %d", size))
	}
	factor := cfg.Factor
	if factor != nil {
		if factor.Len() != size {
			panic(fmt.Sprintf("scale: factor length %d does not match size %d", factor.Len(), size))
		}
		if factor.Equal(array.Ones(size)) {
			factor = nil
		} else {
			factor = factor.Clone()
		}
	}
	constant := cfg.Constant
	if constant != nil {
		if constant.Len() != size {
			panic(fmt.Sprintf("scale: constant length %d does not match size %d", constant.Len(), size))
		}
		if constant.Equal(array.Zeros(size)) {
			constant = nil
		} else {
			constant = constant.Clone()
		}
	}
	return &Scale{size: size, factor: factor, constant: constant}
}

// NewScaleScalar creates a scale layer with uniform factor and constant.
func NewScaleScalar(size int, factor, constant float64) *Scale {
	return NewScale(size, ScaleConfig{
		Factor:   array.Full(factor, size),
		Constant: array.Full(constant, size),
	})
}

// Calc implements Module.
func (s *Scale) Calc(input *array.Array) {
	checkInput("scale", input, s.size)
	if s.cached(input) {
		return
	}
	s.compute(input)
}

// Forward implements Module.
func (s *Scale) Forward(input *array.Array) {
	checkInput("scale", input, s.size)
	s.compute(input)
}

func (s *Scale) compute(input *array.Array) {
	if s.output == nil {
		s.output = array.New(s.size)
	}
	s.output.CopyFrom(input)
	if s.factor != nil {
		s.output.MulElem(s.factor)
	}
	if s.constant != nil {
		s.output.Add(s.constant)
	}
	s.remember(input)
}

// Backward implements Module.
func (s *Scale) Backward(input, outputGrad *array.Array) {
	checkInput("scale", input, s.size)
	checkInput("scale", outputGrad, s.size)
	if s.inGrad == nil {
		s.inGrad = array.New(s.size)
	}
	s.inGrad.CopyFrom(outputGrad)
	if s.factor != nil {
		s.inGrad.MulElem(s.factor)
	}
}

// Parameters implements Module.
func (s *Scale) Parameters() []*Parameter { return nil }

// InputSize implements Module.
func (s *Scale) InputSize() int { return s.size }

// OutputSize implements Module.
func (s *Scale) OutputSize() int { return s.size }

// Clone implements Module.
func (s *Scale) Clone() Module {
	c := *s
	c.buffers = s.buffers.clone()
	if s.factor != nil {
		c.factor = s.factor.Clone()
	}
	if s.constant != nil {
		c.constant = s.constant.Clone()
	}
	return &c
}

// String returns a debug representation.
func (s *Scale) String() string {
	return fmt.Sprintf("Scale(size=%d, factor=%v, constant=%v)", s.size, s.factor != nil, s.constant != nil)
}
