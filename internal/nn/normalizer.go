package nn

import (
	"fmt"
	"math"

	"github.com/synapse-ml/synapse/internal/array"
)

// DefaultNormalizerLearnRate is the accumulator blend rate used when
// NormalizerConfig.LearnRate is zero.
const DefaultNormalizerLearnRate = 0.001

// normalizerEpsilon floors the standard deviation before division.
const normalizerEpsilon = 1e-8

// NormalizerConfig configures a Normalizer layer.
type NormalizerConfig struct {
	LearnRate float64 // accumulator blend rate per training forward; 0 means the default
}

// Normalizer tracks a running per-element mean and standard deviation and
// emits (input - mean) / sd.
//
// Training forwards blend the accumulators toward the sample's value and
// squared value with the configured learn rate, then refresh mean and sd
// from them. Calc normalizes with the current statistics without updating
// them. The standard deviation is seeded to 1.0 so an untrained layer is a
// centering pass-through.
//
// Backward divides the output gradient by sd, ignoring the negligible
// gradient through the running statistics.
type Normalizer struct {
	buffers
	size      int
	learnRate float64
	mean      *array.Array
	sd        *array.Array
	accMean   *array.Array // running mean accumulator
	accSS     *array.Array // running sum-of-squares accumulator
}

// NewNormalizer creates a normalizer layer over vectors of the given size.
func NewNormalizer(size int, cfg NormalizerConfig) *Normalizer {
	if size <= 0 {
		panic(fmt.Sprintf("normalizer: invalid size %d", size))
	}
	lr := cfg.LearnRate
	if lr == 0 {
		lr = DefaultNormalizerLearnRate
	}
	return &Normalizer{
		size:      size,
		learnRate: lr,
		mean:      array.New(size),
		sd:        array.Ones(size),
		accMean:   array.New(size),
		accSS:     array.Ones(size),
	}
}

// Calc implements Module. The inference path uses the current statistics
// without updating them.
func (n *Normalizer) Calc(input *array.Array) {
	checkInput("normalizer", input, n.size)
	if n.cached(input) {
		return
	}
	n.normalize(input)
}

// Forward implements Module. The accumulators are blended toward the
// sample before normalizing.
func (n *Normalizer) Forward(input *array.Array) {
	checkInput("normalizer", input, n.size)
	in := input.Data()
	accMean := n.accMean.Data()
	accSS := n.accSS.Data()
	mean := n.mean.Data()
	sd := n.sd.Data()
	lr := n.learnRate
	for i, x := range in {
		accMean[i] += lr * (x - accMean[i])
		accSS[i] += lr * (x*x - accSS[i])
		mean[i] = accMean[i]
		variance := accSS[i] - mean[i]*mean[i]
		if variance < 0 {
			variance = 0
		}
		sd[i] = math.Max(math.Sqrt(variance), normalizerEpsilon)
	}
	n.normalize(input)
}

func (n *Normalizer) normalize(input *array.Array) {
	if n.output == nil {
		n.output = array.New(n.size)
	}
	in := input.Data()
	out := n.output.Data()
	mean := n.mean.Data()
	sd := n.sd.Data()
	for i := range in {
		out[i] = (in[i] - mean[i]) / sd[i]
	}
	n.remember(input)
}

// Backward implements Module.
func (n *Normalizer) Backward(input, outputGrad *array.Array) {
	checkInput("normalizer", input, n.size)
	checkInput("normalizer", outputGrad, n.size)
	if n.inGrad == nil {
		n.inGrad = array.New(n.size)
	}
	og := outputGrad.Data()
	ig := n.inGrad.Data()
	sd := n.sd.Data()
	for i := range og {
		ig[i] = og[i] / sd[i]
	}
}

// Parameters implements Module. The running statistics are state, not
// trainable parameters, so the normalizer packs nothing.
func (n *Normalizer) Parameters() []*Parameter { return nil }

// InputSize implements Module.
func (n *Normalizer) InputSize() int { return n.size }

// OutputSize implements Module.
func (n *Normalizer) OutputSize() int { return n.size }

// Mean returns the current per-element mean. Read-only.
func (n *Normalizer) Mean() *array.Array { return n.mean }

// SD returns the current per-element standard deviation. Read-only.
func (n *Normalizer) SD() *array.Array { return n.sd }

// Clone implements Module.
func (n *Normalizer) Clone() Module {
	c := *n
	c.buffers = n.buffers.clone()
	c.mean = n.mean.Clone()
	c.sd = n.sd.Clone()
	c.accMean = n.accMean.Clone()
	c.accSS = n.accSS.Clone()
	return &c
}

// String returns a debug representation.
func (n *Normalizer) String() string {
	return fmt.Sprintf("Normalizer(size=%d, learn_rate=%v)", n.size, n.learnRate)
}
