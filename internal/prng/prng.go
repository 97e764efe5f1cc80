package prng

import (
	"math"
	"strconv"
	"strings"
)

// Rand is a mulberry32 generator. It is not safe for concurrent use and is
// not suitable for anything security related; one instance is created per
// school and threaded through every generator call in a fixed order.
type Rand struct {
	state uint32
}

// New returns a generator seeded with seed.
func New(seed uint32) *Rand {
	return &Rand{state: seed}
}

// SeedFor derives the generator seed for a school. The URN is parsed as a
// base-10 integer; a non-numeric URN falls back to the sequential id.
func SeedFor(urn string, id int) uint32 {
	if n, err := strconv.ParseInt(strings.TrimSpace(urn), 10, 64); err == nil {
		return uint32(n)
	}
	return uint32(id)
}

// Next returns a float in [0, 1).
func (r *Rand) Next() float64 {
	r.state += 0x6D2B79F5
	t := (r.state ^ r.state>>15) * (r.state | 1)
	t = (t + (t^t>>7)*(t|61)) ^ t
	return float64(t^t>>14) / 4294967296.0
}

// Int returns an integer in [min, max], both inclusive.
func (r *Rand) Int(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return int(math.Floor(r.Next()*float64(max-min+1))) + min
}

// Float interpolates between min and max and rounds to decimals places.
func (r *Rand) Float(min, max float64, decimals int) float64 {
	return Round(min+r.Next()*(max-min), decimals)
}

// PickIndex returns a uniform index in [0, n). n must be positive.
func (r *Rand) PickIndex(n int) int {
	return int(math.Floor(r.Next() * float64(n)))
}

// Pick returns a uniformly chosen element of list.
func (r *Rand) Pick(list []string) string {
	return list[r.PickIndex(len(list))]
}

// Weighted returns an index into weights chosen with probability
// proportional to its weight. It consumes exactly one draw.
func (r *Rand) Weighted(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	target := r.Next() * float64(total)
	acc := 0.0
	for i, w := range weights {
		acc += float64(w)
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}

// Round rounds v half away from zero to decimals places.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
