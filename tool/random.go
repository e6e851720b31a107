package tool

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is a goroutine-safe random source shared by the mock tools.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func defaultRand() *Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

// Between returns an int in [lo, hi].
func (r *Rand) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.r.IntN(hi-lo+1)
}

// Float returns a float64 in [lo, hi).
func (r *Rand) Float(lo, hi float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.r.Float64()*(hi-lo)
}

// Pick returns a random element of choices.
func (r *Rand) Pick(choices []string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[r.Between(0, len(choices)-1)]
}

// Clock returns the current time.
type Clock func() time.Time
