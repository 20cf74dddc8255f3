package nn

import (
	"math"
	"math/rand"

	"github.com/synapse-ml/synapse/internal/array"
)

// xavier returns a weight array initialized from the Xavier/Glorot uniform
// distribution U(-sqrt(6/(fanIn+fanOut)), +sqrt(6/(fanIn+fanOut))), scaled
// by scale. This keeps activation variance roughly constant across layers.
func xavier(fanIn, fanOut int, scale float64, rng *rand.Rand, shape ...int) *array.Array {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	a := array.New(shape...)
	data := a.Data()
	for i := range data {
		data[i] = (rng.Float64()*2.0 - 1.0) * bound * scale
	}
	return a
}
