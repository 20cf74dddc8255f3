package nn

import (
	"fmt"

	"github.com/synapse-ml/synapse/internal/array"
)

// Stack chains modules sequentially: module i's output is module i+1's
// input, and gradients thread back in reverse order.
type Stack struct {
	modules []Module
	inGrad  *array.Array
}

// NewStack creates a sequential stack. Panics on an empty sequence and
// when adjacent module sizes do not line up.
func NewStack(modules ...Module) *Stack {
	if len(modules) == 0 {
		panic("stack: empty module sequence")
	}
	for i := 1; i < len(modules); i++ {
		if modules[i-1].OutputSize() != modules[i].InputSize() {
			panic(fmt.Sprintf("stack: module %d output size %d does not match module %d input size %d",
				i-1, modules[i-1].OutputSize(), i, modules[i].InputSize()))
		}
	}
	return &Stack{modules: modules}
}

// Calc implements Module.
func (s *Stack) Calc(input *array.Array) {
	x := input
	for _, m := range s.modules {
		m.Calc(x)
		x = m.Output()
	}
}

// Forward implements Module.
func (s *Stack) Forward(input *array.Array) {
	x := input
	for _, m := range s.modules {
		m.Forward(x)
		x = m.Output()
	}
}

// Backward implements Module. Each module sees the same input it was fed
// during the forward pass (its predecessor's stored output).
func (s *Stack) Backward(input, outputGrad *array.Array) {
	g := outputGrad
	for i := len(s.modules) - 1; i >= 0; i-- {
		in := input
		if i > 0 {
			in = s.modules[i-1].Output()
		}
		s.modules[i].Backward(in, g)
		g = s.modules[i].InputGradient()
	}
	if s.inGrad == nil {
		s.inGrad = array.New(s.InputSize())
	}
	s.inGrad.CopyFrom(g)
}

// Output implements Module: the last module's output.
func (s *Stack) Output() *array.Array {
	return s.modules[len(s.modules)-1].Output()
}

// InputGradient implements Module.
func (s *Stack) InputGradient() *array.Array {
	if s.inGrad == nil {
		panic("nn: no input gradient available")
	}
	return s.inGrad
}

// Parameters implements Module: sub-module parameters in order.
func (s *Stack) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Modules returns the stacked modules.
func (s *Stack) Modules() []Module { return s.modules }

// InputSize implements Module.
func (s *Stack) InputSize() int { return s.modules[0].InputSize() }

// OutputSize implements Module.
func (s *Stack) OutputSize() int { return s.modules[len(s.modules)-1].OutputSize() }

// Clone implements Module.
func (s *Stack) Clone() Module {
	clones := make([]Module, len(s.modules))
	for i, m := range s.modules {
		clones[i] = m.Clone()
	}
	c := &Stack{modules: clones}
	if s.inGrad != nil {
		c.inGrad = s.inGrad.Clone()
	}
	return c
}

// String returns a debug representation.
func (s *Stack) String() string {
	return fmt.Sprintf("Stack(%d modules, in=%d, out=%d)", len(s.modules), s.InputSize(), s.OutputSize())
}

// Split applies the same input to every sub-module independently and
// concatenates their outputs. Backward slices the incoming gradient per
// sub-module output and sums the branch input gradients.
type Split struct {
	modules []Module
	output  *array.Array
	inGrad  *array.Array
}

// NewSplit creates a fan-out container. Panics on an empty sequence and
// when the branches disagree on input size.
func NewSplit(modules ...Module) *Split {
	if len(modules) == 0 {
		panic("split: empty module sequence")
	}
	in := modules[0].InputSize()
	for i, m := range modules {
		if m.InputSize() != in {
			panic(fmt.Sprintf("split: module %d input size %d does not match %d", i, m.InputSize(), in))
		}
	}
	return &Split{modules: modules}
}

// Calc implements Module.
func (s *Split) Calc(input *array.Array) {
	for _, m := range s.modules {
		m.Calc(input)
	}
	s.gather()
}

// Forward implements Module.
func (s *Split) Forward(input *array.Array) {
	for _, m := range s.modules {
		m.Forward(input)
	}
	s.gather()
}

// gather concatenates the branch outputs.
func (s *Split) gather() {
	if s.output == nil {
		s.output = array.New(s.OutputSize())
	}
	out := s.output.Data()
	offset := 0
	for _, m := range s.modules {
		src := m.Output().Data()
		copy(out[offset:], src)
		offset += len(src)
	}
}

// Backward implements Module. Every slice of the output gradient reaches
// its branch; no contribution is discarded.
func (s *Split) Backward(input, outputGrad *array.Array) {
	checkInput("split", input, s.InputSize())
	checkInput("split", outputGrad, s.OutputSize())
	if s.inGrad == nil {
		s.inGrad = array.New(s.InputSize())
	}
	s.inGrad.Zero()
	og := outputGrad.Data()
	offset := 0
	for _, m := range s.modules {
		n := m.OutputSize()
		slice := array.FromSlice(og[offset:offset+n], n)
		m.Backward(input, slice)
		s.inGrad.Add(m.InputGradient())
		offset += n
	}
}

// Output implements Module: the concatenated branch outputs.
func (s *Split) Output() *array.Array {
	if s.output == nil {
		panic("nn: no output available")
	}
	return s.output
}

// InputGradient implements Module.
func (s *Split) InputGradient() *array.Array {
	if s.inGrad == nil {
		panic("nn: no input gradient available")
	}
	return s.inGrad
}

// Parameters implements Module.
func (s *Split) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Modules returns the branch modules.
func (s *Split) Modules() []Module { return s.modules }

// InputSize implements Module.
func (s *Split) InputSize() int { return s.modules[0].InputSize() }

// OutputSize implements Module.
func (s *Split) OutputSize() int {
	total := 0
	for _, m := range s.modules {
		total += m.OutputSize()
	}
	return total
}

// Clone implements Module.
func (s *Split) Clone() Module {
	clones := make([]Module, len(s.modules))
	for i, m := range s.modules {
		clones[i] = m.Clone()
	}
	c := &Split{modules: clones}
	if s.output != nil {
		c.output = s.output.Clone()
	}
	if s.inGrad != nil {
		c.inGrad = s.inGrad.Clone()
	}
	return c
}

// String returns a debug representation.
func (s *Split) String() string {
	return fmt.Sprintf("Split(%d modules, in=%d, out=%d)", len(s.modules), s.InputSize(), s.OutputSize())
}

// CombineConfig configures a Combine container.
type CombineConfig struct {
	// OutputSize is the length of the combined output.
	OutputSize int
	// Combine maps the branch outputs to the combined output. Required.
	Combine func(outputs []*array.Array) *array.Array
	// Gradient maps the branch outputs and the output gradient to one
	// gradient per branch. Optional; see the Combine type caveat.
	Gradient func(outputs []*array.Array, outputGrad *array.Array) []*array.Array
}

// Combine feeds the same input to every branch and reduces the branch
// outputs with a caller-supplied pure function.
//
// Caveat: without a Gradient function the input gradient is zero and the
// branches receive no backward pass, which breaks gradient correctness for
// any training pipeline routing gradients through this module. This
// fallback is part of the contract; supply a Gradient function when the
// module sits on a training path.
type Combine struct {
	modules []Module
	cfg     CombineConfig
	outputs []*array.Array
	output  *array.Array
	inGrad  *array.Array
}

// NewCombine creates a fan-in container. Panics on an empty sequence, a
// nil Combine function, a non-positive OutputSize, or branches that
// disagree on input size.
func NewCombine(cfg CombineConfig, modules ...Module) *Combine {
	if len(modules) == 0 {
		panic("combine: empty module sequence")
	}
	if cfg.Combine == nil {
		panic("combine: nil combine function")
	}
	if cfg.OutputSize <= 0 {
		panic(fmt.Sprintf("combine: invalid output size %d", cfg.OutputSize))
	}
	in := modules[0].InputSize()
	for i, m := range modules {
		if m.InputSize() != in {
			panic(fmt.Sprintf("combine: module %d input size %d does not match %d", i, m.InputSize(), in))
		}
	}
	return &Combine{modules: modules, cfg: cfg, outputs: make([]*array.Array, len(modules))}
}

// Calc implements Module.
func (c *Combine) Calc(input *array.Array) {
	for _, m := range c.modules {
		m.Calc(input)
	}
	c.reduce()
}

// Forward implements Module.
func (c *Combine) Forward(input *array.Array) {
	for _, m := range c.modules {
		m.Forward(input)
	}
	c.reduce()
}

func (c *Combine) reduce() {
	for i, m := range c.modules {
		c.outputs[i] = m.Output()
	}
	out := c.cfg.Combine(c.outputs)
	if out.Len() != c.cfg.OutputSize {
		panic(fmt.Sprintf("combine: combine function produced %d elements, declared %d",
			out.Len(), c.cfg.OutputSize))
	}
	c.output = out
}

// Backward implements Module. With no Gradient function the input gradient
// is zero (documented caveat); otherwise each branch gradient is routed
// into its branch and the branch input gradients are summed.
func (c *Combine) Backward(input, outputGrad *array.Array) {
	checkInput("combine", input, c.InputSize())
	checkInput("combine", outputGrad, c.OutputSize())
	if c.inGrad == nil {
		c.inGrad = array.New(c.InputSize())
	}
	if c.cfg.Gradient == nil {
		c.inGrad.Zero()
		return
	}
	grads := c.cfg.Gradient(c.outputs, outputGrad)
	if len(grads) != len(c.modules) {
		panic(fmt.Sprintf("combine: gradient function produced %d gradients for %d modules",
			len(grads), len(c.modules)))
	}
	c.inGrad.Zero()
	for i, m := range c.modules {
		m.Backward(input, grads[i])
		c.inGrad.Add(m.InputGradient())
	}
}

// Output implements Module.
func (c *Combine) Output() *array.Array {
	if c.output == nil {
		panic("nn: no output available")
	}
	return c.output
}

// InputGradient implements Module.
func (c *Combine) InputGradient() *array.Array {
	if c.inGrad == nil {
		panic("nn: no input gradient available")
	}
	return c.inGrad
}

// Parameters implements Module.
func (c *Combine) Parameters() []*Parameter {
	var params []*Parameter
	for _, m := range c.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Modules returns the branch modules.
func (c *Combine) Modules() []Module { return c.modules }

// InputSize implements Module.
func (c *Combine) InputSize() int { return c.modules[0].InputSize() }

// OutputSize implements Module.
func (c *Combine) OutputSize() int { return c.cfg.OutputSize }

// Clone implements Module.
func (c *Combine) Clone() Module {
	clones := make([]Module, len(c.modules))
	for i, m := range c.modules {
		clones[i] = m.Clone()
	}
	n := &Combine{modules: clones, cfg: c.cfg, outputs: make([]*array.Array, len(clones))}
	if c.output != nil {
		n.output = c.output.Clone()
	}
	if c.inGrad != nil {
		n.inGrad = c.inGrad.Clone()
	}
	return n
}

// String returns a debug representation.
func (c *Combine) String() string {
	return fmt.Sprintf("Combine(%d modules, in=%d, out=%d)", len(c.modules), c.InputSize(), c.OutputSize())
}

// FunctionConfig configures a Function module.
type FunctionConfig struct {
	InputSize  int
	OutputSize int
	// Fn maps an input vector to an output vector. Required.
	Fn func(input *array.Array) *array.Array
	// Gradient maps the input and the output gradient to the input
	// gradient. Optional; see the Function type caveat.
	Gradient func(input, outputGrad *array.Array) *array.Array
}

// Function wraps an arbitrary pure function as a parameterless module.
//
// Caveat: without a Gradient function the input gradient is zero, which
// breaks gradient correctness for any training pipeline routing gradients
// through this module. This fallback is part of the contract.
type Function struct {
	buffers
	cfg FunctionConfig
}

// NewFunction wraps fn as a module. Panics on a nil Fn or non-positive
// sizes.
func NewFunction(cfg FunctionConfig) *Function {
	if cfg.Fn == nil {
		panic("function: nil function")
	}
	if cfg.InputSize <= 0 || cfg.OutputSize <= 0 {
		panic(fmt.Sprintf("function: invalid sizes in=%d out=%d", cfg.InputSize, cfg.OutputSize))
	}
	return &Function{cfg: cfg}
}

// Calc implements Module.
func (f *Function) Calc(input *array.Array) {
	checkInput("function", input, f.cfg.InputSize)
	if f.cached(input) {
		return
	}
	f.compute(input)
}

// Forward implements Module.
func (f *Function) Forward(input *array.Array) {
	checkInput("function", input, f.cfg.InputSize)
	f.compute(input)
}

func (f *Function) compute(input *array.Array) {
	out := f.cfg.Fn(input)
	if out.Len() != f.cfg.OutputSize {
		panic(fmt.Sprintf("function: produced %d elements, declared %d", out.Len(), f.cfg.OutputSize))
	}
	f.output = out
	f.remember(input)
}

// Backward implements Module.
func (f *Function) Backward(input, outputGrad *array.Array) {
	checkInput("function", input, f.cfg.InputSize)
	checkInput("function", outputGrad, f.cfg.OutputSize)
	if f.inGrad == nil {
		f.inGrad = array.New(f.cfg.InputSize)
	}
	if f.cfg.Gradient == nil {
		f.inGrad.Zero()
		return
	}
	f.inGrad.CopyFrom(f.cfg.Gradient(input, outputGrad))
}

// Parameters implements Module.
func (f *Function) Parameters() []*Parameter { return nil }

// InputSize implements Module.
func (f *Function) InputSize() int { return f.cfg.InputSize }

// OutputSize implements Module.
func (f *Function) OutputSize() int { return f.cfg.OutputSize }

// Clone implements Module.
func (f *Function) Clone() Module {
	c := *f
	c.buffers = f.buffers.clone()
	return &c
}

// String returns a debug representation.
func (f *Function) String() string {
	return fmt.Sprintf("Function(in=%d, out=%d)", f.cfg.InputSize, f.cfg.OutputSize)
}
