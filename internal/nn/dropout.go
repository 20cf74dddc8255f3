package nn

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/synapse-ml/synapse/internal/array"
)

// newRand returns the default random source for stochastic layers.
// Tests inject a seeded *rand.Rand through the layer configs instead.
func newRand() *rand.Rand {
	//nolint:gosec // Training-time randomness is not security-critical.
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// stochastic is the shared core of the randomized training-time layers.
// Forward draws a fresh multiplicative mask; Calc is a pure pass-through;
// Backward reapplies the mask drawn by the last Forward.
type stochastic struct {
	buffers
	name string
	size int
	draw func(rng *rand.Rand) float64 // one mask element
	mask *array.Array                 // mask drawn by the last Forward, nil before
	rng  *rand.Rand
}

// Calc implements Module. The inference path never masks: the layer is an
// exact pass-through.
func (s *stochastic) Calc(input *array.Array) {
	checkInput(s.name, input, s.size)
	if s.cached(input) {
		return
	}
	if s.output == nil {
		s.output = array.New(s.size)
	}
	s.output.CopyFrom(input)
	s.remember(input)
}

// Forward implements Module. A fresh mask is drawn on every call.
func (s *stochastic) Forward(input *array.Array) {
	checkInput(s.name, input, s.size)
	if s.output == nil {
		s.output = array.New(s.size)
	}
	if s.mask == nil {
		s.mask = array.New(s.size)
	}
	m := s.mask.Data()
	for i := range m {
		m[i] = s.draw(s.rng)
	}
	s.output.CopyFrom(input)
	s.output.MulElem(s.mask)
	// The masked output must never satisfy a later Calc: the inference
	// path is an exact pass-through, so only Calc feeds the cache.
	s.lastInput = nil
}

// Backward implements Module. Elements the mask zeroed in Forward are
// zeroed in the gradient; surviving elements carry the mask's scaling. If
// the last pass was Calc (no mask drawn), the gradient passes through
// unchanged.
func (s *stochastic) Backward(input, outputGrad *array.Array) {
	checkInput(s.name, input, s.size)
	checkInput(s.name, outputGrad, s.size)
	if s.inGrad == nil {
		s.inGrad = array.New(s.size)
	}
	s.inGrad.CopyFrom(outputGrad)
	if s.mask != nil {
		s.inGrad.MulElem(s.mask)
	}
}

// Parameters implements Module.
func (s *stochastic) Parameters() []*Parameter { return nil }

// InputSize implements Module.
func (s *stochastic) InputSize() int { return s.size }

// OutputSize implements Module.
func (s *stochastic) OutputSize() int { return s.size }

// DropoutConfig configures a Dropout layer.
type DropoutConfig struct {
	Rand *rand.Rand // random source; nil uses a time-seeded source
}

// Dropout randomly silences elements during training.
//
// On Forward each element is kept independently with probability p and
// scaled by 1/p (inverse-probability scaling preserves the expected
// value); dropped elements become 0. Calc never masks, so inference sees
// the raw input. Backward applies the mask drawn by the last Forward.
type Dropout struct {
	stochastic
	p float64
}

// NewDropout creates a dropout layer over vectors of the given size with
// inclusion probability p in (0, 1].
func NewDropout(size int, p float64, cfg DropoutConfig) *Dropout {
	if size <= 0 {
		panic(fmt.Sprintf("dropout: invalid size %d", size))
	}
	if p <= 0 || p > 1 {
		panic(fmt.Sprintf("dropout: inclusion probability %v out of (0, 1]", p))
	}
	rng := cfg.Rand
	if rng == nil {
		rng = newRand()
	}
	d := &Dropout{p: p}
	d.stochastic = stochastic{
		name: "dropout",
		size: size,
		rng:  rng,
		draw: func(rng *rand.Rand) float64 {
			if rng.Float64() < p {
				return 1.0 / p
			}
			return 0.0
		},
	}
	return d
}

// Clone implements Module. The clone keeps its own mask buffer but shares
// the random source.
func (d *Dropout) Clone() Module {
	c := *d
	c.buffers = d.buffers.clone()
	if d.mask != nil {
		c.mask = d.mask.Clone()
	}
	return &c
}

// String returns a debug representation.
func (d *Dropout) String() string {
	return fmt.Sprintf("Dropout(size=%d, p=%v)", d.size, d.p)
}

// GaussianNoiseConfig configures a GaussianNoise layer.
type GaussianNoiseConfig struct {
	Rand *rand.Rand // random source; nil uses a time-seeded source
}

// GaussianNoise applies multiplicative Gaussian noise during training.
//
// On Forward each element is, independently with probability p, multiplied
// by a draw from N(1, sd); other elements pass unchanged. Calc never adds
// noise. Backward applies the multiplier mask drawn by the last Forward.
type GaussianNoise struct {
	stochastic
	p  float64
	sd float64
}

// NewGaussianNoise creates a multiplicative-noise layer over vectors of
// the given size.
func NewGaussianNoise(size int, p, sd float64, cfg GaussianNoiseConfig) *GaussianNoise {
	if size <= 0 {
		panic(fmt.Sprintf("gaussian-noise: invalid size %d", size))
	}
	if p < 0 || p > 1 {
		panic(fmt.Sprintf("gaussian-noise: probability %v out of [0, 1]", p))
	}
	if sd < 0 {
		panic(fmt.Sprintf("gaussian-noise: negative standard deviation %v", sd))
	}
	rng := cfg.Rand
	if rng == nil {
		rng = newRand()
	}
	g := &GaussianNoise{p: p, sd: sd}
	g.stochastic = stochastic{
		name: "gaussian-noise",
		size: size,
		rng:  rng,
		draw: func(rng *rand.Rand) float64 {
			if rng.Float64() < p {
				return 1.0 + rng.NormFloat64()*sd
			}
			return 1.0
		},
	}
	return g
}

// Clone implements Module. The clone keeps its own mask buffer but shares
// the random source.
func (g *GaussianNoise) Clone() Module {
	c := *g
	c.buffers = g.buffers.clone()
	if g.mask != nil {
		c.mask = g.mask.Clone()
	}
	return &c
}

// String returns a debug representation.
func (g *GaussianNoise) String() string {
	return fmt.Sprintf("GaussianNoise(size=%d, p=%v, sd=%v)", g.size, g.p, g.sd)
}
