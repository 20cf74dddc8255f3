package nn

import (
	"fmt"
	"math/rand"

	"github.com/synapse-ml/synapse/internal/array"
	"github.com/synapse-ml/synapse/internal/parallel"
)

// parCfg controls the optional window-level parallelism in the convolution
// and pooling layers. Bodies write disjoint buffer regions, so results are
// identical to the sequential loops.
var parCfg = parallel.DefaultConfig()

// geometry is the shared windowing configuration of the convolution and
// pooling layers. Inputs and outputs are channel-major (CHW) flattened
// vectors.
type geometry struct {
	inW, inH, channels int
	kW, kH             int
	padX, padY         int
	strideX, strideY   int
	outW, outH         int
}

func newGeometry(name string, inW, inH, channels, kW, kH, padX, padY, strideX, strideY int) geometry {
	if inW <= 0 || inH <= 0 || channels <= 0 {
		panic(fmt.Sprintf("%s: invalid input dimensions %dx%dx%d", name, inW, inH, channels))
	}
	if kW <= 0 || kH <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %dx%d", name, kW, kH))
	}
	if strideX <= 0 || strideY <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %dx%d", name, strideX, strideY))
	}
	if padX < 0 || padY < 0 {
		panic(fmt.Sprintf("%s: invalid padding %dx%d", name, padX, padY))
	}
	g := geometry{
		inW: inW, inH: inH, channels: channels,
		kW: kW, kH: kH,
		padX: padX, padY: padY,
		strideX: strideX, strideY: strideY,
	}
	g.outW = (inW+2*padX-kW)/strideX + 1
	g.outH = (inH+2*padY-kH)/strideY + 1
	if g.outW < 1 || g.outH < 1 {
		panic(fmt.Sprintf("%s: output window count %dx%d below 1", name, g.outW, g.outH))
	}
	return g
}

func (g geometry) windows() int   { return g.outW * g.outH }
func (g geometry) patchSize() int { return g.kW * g.kH * g.channels }
func (g geometry) inputSize() int { return g.inW * g.inH * g.channels }

// windowOrigin returns the top-left input coordinate of window w, which may
// lie in the zero padding.
func (g geometry) windowOrigin(w int) (x0, y0 int) {
	ox := w % g.outW
	oy := w / g.outW
	return ox*g.strideX - g.padX, oy*g.strideY - g.padY
}

// Conv2DConfig configures a Conv2D layer.
type Conv2DConfig struct {
	InputWidth    int
	InputHeight   int
	InputChannels int
	KernelWidth   int
	KernelHeight  int
	PadX, PadY    int
	StrideX       int // 0 means 1
	StrideY       int // 0 means 1
	NumKernels    int
	WeightScale   float64    // multiplies the initial random weights; 0 means 1.0
	Rand          *rand.Rand // random source for initialization; nil uses a time-seeded source
}

// Conv2D is a windowed affine layer over a CHW-flattened input.
//
// For every kernel and every valid stride-stepped window position (with
// conceptual zero padding around the input), the kernel-sized patch is
// extracted, flattened, and dotted with the kernel's flattened weight row
// plus bias. The implementation materializes the im2col patch matrix
// [windows, patchSize] and runs the linear layer's matrix multiply over it.
//
// Backward distributes the output gradient through the same weight matrix
// and patch mapping; gradients from overlapping windows accumulate into the
// same input location.
type Conv2D struct {
	buffers
	geom    geometry
	kernels int
	weight  *Parameter   // [kernels, patchSize]
	bias    *Parameter   // [kernels]
	patches *array.Array // [windows, patchSize], from the last compute
}

// NewConv2D creates a convolution layer. Construction panics when any
// dimension is non-positive (padding may be zero) or when the derived
// output window count falls below 1.
func NewConv2D(cfg Conv2DConfig) *Conv2D {
	if cfg.NumKernels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel count %d", cfg.NumKernels))
	}
	strideX, strideY := cfg.StrideX, cfg.StrideY
	if strideX == 0 {
		strideX = 1
	}
	if strideY == 0 {
		strideY = 1
	}
	geom := newGeometry("conv2d",
		cfg.InputWidth, cfg.InputHeight, cfg.InputChannels,
		cfg.KernelWidth, cfg.KernelHeight,
		cfg.PadX, cfg.PadY, strideX, strideY)

	scale := cfg.WeightScale
	if scale == 0 {
		scale = 1.0
	}
	rng := cfg.Rand
	if rng == nil {
		rng = newRand()
	}
	patchSize := geom.patchSize()
	weight := xavier(patchSize, cfg.NumKernels, scale, rng, cfg.NumKernels, patchSize)

	return &Conv2D{
		geom:    geom,
		kernels: cfg.NumKernels,
		weight:  NewParameter("weight", weight),
		bias:    NewParameter("bias", array.New(cfg.NumKernels)),
	}
}

// Calc implements Module.
func (c *Conv2D) Calc(input *array.Array) {
	checkInput("conv2d", input, c.geom.inputSize())
	if c.cached(input) {
		return
	}
	c.compute(input)
}

// Forward implements Module.
func (c *Conv2D) Forward(input *array.Array) {
	checkInput("conv2d", input, c.geom.inputSize())
	c.compute(input)
}

func (c *Conv2D) compute(input *array.Array) {
	windows := c.geom.windows()
	if c.output == nil {
		c.output = array.New(c.kernels, windows)
	}
	if c.patches == nil {
		c.patches = array.New(windows, c.geom.patchSize())
	}
	c.im2col(input)

	// output = W·patchesᵗ, then bias per kernel row.
	array.Gemm(false, true, 1.0, c.weight.Data, c.patches, 0.0, c.output)
	for k := 0; k < c.kernels; k++ {
		c.output.Row(k).AddScalar(c.bias.Data.At(k))
	}
	c.remember(input)
}

// im2col fills the patch matrix from a CHW input, zero-filling padding.
func (c *Conv2D) im2col(input *array.Array) {
	g := c.geom
	in := input.Data()
	patches := c.patches.Data()
	patchSize := g.patchSize()
	plane := g.inW * g.inH

	parallel.For(g.windows(), func(w int) {
		x0, y0 := g.windowOrigin(w)
		row := patches[w*patchSize : (w+1)*patchSize]
		i := 0
		for ch := 0; ch < g.channels; ch++ {
			base := ch * plane
			for ky := 0; ky < g.kH; ky++ {
				y := y0 + ky
				for kx := 0; kx < g.kW; kx++ {
					x := x0 + kx
					if x < 0 || x >= g.inW || y < 0 || y >= g.inH {
						row[i] = 0
					} else {
						row[i] = in[base+y*g.inW+x]
					}
					i++
				}
			}
		}
	}, parCfg)
}

// Backward implements Module.
func (c *Conv2D) Backward(input, outputGrad *array.Array) {
	g := c.geom
	checkInput("conv2d", input, g.inputSize())
	checkInput("conv2d", outputGrad, c.kernels*g.windows())
	windows := g.windows()
	patchSize := g.patchSize()

	if c.patches == nil {
		// No stored patch matrix (e.g. a fresh clone); rebuild it from the
		// input, which the contract guarantees matches the last forward.
		c.patches = array.New(windows, patchSize)
		c.im2col(input)
	}
	ogMat := outputGrad.Reshape(c.kernels, windows)

	// weightGrad += outputGrad·patches
	array.Gemm(false, false, 1.0, ogMat, c.patches, 1.0, c.weight.Grad)

	// biasGrad[k] += sum over windows of outputGrad row k
	for k := 0; k < c.kernels; k++ {
		c.bias.Grad.Set(k, c.bias.Grad.At(k)+ogMat.Row(k).Sum())
	}

	// patchGrad = outputGradᵗ·W, then scatter-add back through the patch
	// mapping (col2im). Overlapping windows accumulate.
	patchGrad := array.New(windows, patchSize)
	array.Gemm(true, false, 1.0, ogMat, c.weight.Data, 0.0, patchGrad)

	if c.inGrad == nil {
		c.inGrad = array.New(g.inputSize())
	}
	c.inGrad.Zero()
	ig := c.inGrad.Data()
	pg := patchGrad.Data()
	plane := g.inW * g.inH
	for w := 0; w < windows; w++ {
		x0, y0 := g.windowOrigin(w)
		row := pg[w*patchSize : (w+1)*patchSize]
		i := 0
		for ch := 0; ch < g.channels; ch++ {
			base := ch * plane
			for ky := 0; ky < g.kH; ky++ {
				y := y0 + ky
				for kx := 0; kx < g.kW; kx++ {
					x := x0 + kx
					if x >= 0 && x < g.inW && y >= 0 && y < g.inH {
						ig[base+y*g.inW+x] += row[i]
					}
					i++
				}
			}
		}
	}
}

// Parameters implements Module.
func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

// InputSize implements Module.
func (c *Conv2D) InputSize() int { return c.geom.inputSize() }

// OutputSize implements Module.
func (c *Conv2D) OutputSize() int { return c.kernels * c.geom.windows() }

// Weight returns the weight parameter ([kernels, patchSize]).
func (c *Conv2D) Weight() *Parameter { return c.weight }

// Bias returns the bias parameter.
func (c *Conv2D) Bias() *Parameter { return c.bias }

// OutputWidth returns the derived output width in windows.
func (c *Conv2D) OutputWidth() int { return c.geom.outW }

// OutputHeight returns the derived output height in windows.
func (c *Conv2D) OutputHeight() int { return c.geom.outH }

// Clone implements Module.
func (c *Conv2D) Clone() Module {
	n := *c
	n.buffers = c.buffers.clone()
	n.weight = c.weight.Clone()
	n.bias = c.bias.Clone()
	if c.patches != nil {
		n.patches = c.patches.Clone()
	}
	return &n
}

// String returns a debug representation.
func (c *Conv2D) String() string {
	g := c.geom
	return fmt.Sprintf("Conv2D(input=%dx%dx%d, kernel=%dx%d, stride=%dx%d, pad=%dx%d, kernels=%d)",
		g.inW, g.inH, g.channels, g.kW, g.kH, g.strideX, g.strideY, g.padX, g.padY, c.kernels)
}
