package nn

import (
	"fmt"
	"math"

	"github.com/synapse-ml/synapse/internal/array"
	"github.com/synapse-ml/synapse/internal/parallel"
)

// MaxPool2DConfig configures a MaxPool2D layer.
type MaxPool2DConfig struct {
	InputWidth    int
	InputHeight   int
	InputChannels int
	KernelWidth   int
	KernelHeight  int
	PadX, PadY    int
	StrideX       int // 0 means 1
	StrideY       int // 0 means 1
}

// MaxPool2D reduces each channel's stride-stepped windows to their maximum
// element. It shares the Conv2D windowing geometry and has no parameters.
//
// The forward pass records, per output element, the flat input index that
// attained the maximum (ties go to the lowest index); backward routes the
// whole window gradient to exactly that element, so forward and backward
// stay consistent.
type MaxPool2D struct {
	buffers
	geom   geometry
	argmax []int // input index of each output element's max, -1 for all-padding windows
}

// NewMaxPool2D creates a max pooling layer. Construction panics when any
// dimension is non-positive (padding may be zero) or when the derived
// output window count falls below 1.
func NewMaxPool2D(cfg MaxPool2DConfig) *MaxPool2D {
	strideX, strideY := cfg.StrideX, cfg.StrideY
	if strideX == 0 {
		strideX = 1
	}
	if strideY == 0 {
		strideY = 1
	}
	geom := newGeometry("maxpool2d",
		cfg.InputWidth, cfg.InputHeight, cfg.InputChannels,
		cfg.KernelWidth, cfg.KernelHeight,
		cfg.PadX, cfg.PadY, strideX, strideY)
	return &MaxPool2D{geom: geom}
}

// Calc implements Module.
func (m *MaxPool2D) Calc(input *array.Array) {
	checkInput("maxpool2d", input, m.geom.inputSize())
	if m.cached(input) {
		return
	}
	m.compute(input)
}

// Forward implements Module.
func (m *MaxPool2D) Forward(input *array.Array) {
	checkInput("maxpool2d", input, m.geom.inputSize())
	m.compute(input)
}

func (m *MaxPool2D) compute(input *array.Array) {
	g := m.geom
	windows := g.windows()
	outSize := g.channels * windows
	if m.output == nil {
		m.output = array.New(outSize)
	}
	if m.argmax == nil {
		m.argmax = make([]int, outSize)
	}
	in := input.Data()
	out := m.output.Data()
	plane := g.inW * g.inH

	parallel.ForWindows(g.channels, windows, func(ch, w int) {
		x0, y0 := g.windowOrigin(w)
		base := ch * plane
		best := math.Inf(-1)
		bestIdx := -1
		for ky := 0; ky < g.kH; ky++ {
			y := y0 + ky
			if y < 0 || y >= g.inH {
				continue
			}
			for kx := 0; kx < g.kW; kx++ {
				x := x0 + kx
				if x < 0 || x >= g.inW {
					continue
				}
				idx := base + y*g.inW + x
				if in[idx] > best {
					best = in[idx]
					bestIdx = idx
				}
			}
		}
		o := ch*windows + w
		if bestIdx < 0 {
			// Window fell entirely in the padding.
			out[o] = 0
		} else {
			out[o] = best
		}
		m.argmax[o] = bestIdx
	}, parCfg)
	m.remember(input)
}

// Backward implements Module.
func (m *MaxPool2D) Backward(input, outputGrad *array.Array) {
	g := m.geom
	checkInput("maxpool2d", input, g.inputSize())
	checkInput("maxpool2d", outputGrad, g.channels*g.windows())
	if m.argmax == nil {
		panic("maxpool2d: Backward requires a prior Forward or Calc")
	}
	if m.inGrad == nil {
		m.inGrad = array.New(g.inputSize())
	}
	m.inGrad.Zero()
	ig := m.inGrad.Data()
	og := outputGrad.Data()
	for o, idx := range m.argmax {
		if idx >= 0 {
			ig[idx] += og[o]
		}
	}
}

// Parameters implements Module.
func (m *MaxPool2D) Parameters() []*Parameter { return nil }

// InputSize implements Module.
func (m *MaxPool2D) InputSize() int { return m.geom.inputSize() }

// OutputSize implements Module.
func (m *MaxPool2D) OutputSize() int { return m.geom.channels * m.geom.windows() }

// OutputWidth returns the derived output width in windows.
func (m *MaxPool2D) OutputWidth() int { return m.geom.outW }

// OutputHeight returns the derived output height in windows.
func (m *MaxPool2D) OutputHeight() int { return m.geom.outH }

// Clone implements Module.
func (m *MaxPool2D) Clone() Module {
	n := *m
	n.buffers = m.buffers.clone()
	if m.argmax != nil {
		n.argmax = append([]int(nil), m.argmax...)
	}
	return &n
}

// String returns a debug representation.
func (m *MaxPool2D) String() string {
	g := m.geom
	return fmt.Sprintf("MaxPool2D(input=%dx%dx%d, kernel=%dx%d, stride=%dx%d, pad=%dx%d)",
		g.inW, g.inH, g.channels, g.kW, g.kH, g.strideX, g.strideY, g.padX, g.padY)
}
