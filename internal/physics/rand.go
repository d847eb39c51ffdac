package physics

import "math/rand"

// Rand is the per-session source for scatter. A fixed seed makes runs repeatable.
type Rand struct {
	r *rand.Rand
}

func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// Scatter returns a uniform angle in [-scatter, scatter].
func (r *Rand) Scatter(scatter float64) float64 {
	if r == nil || scatter == 0 {
		return 0
	}
	return (r.r.Float64()*2 - 1) * scatter
}
