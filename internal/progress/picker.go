package progress

import (
	"math/rand/v2"
	"sync"
)

// Picker selects messages from pools using an injectable random source, so a
// fixed seed gives a reproducible sequence.
type Picker struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewPicker returns a Picker seeded with seed.
func NewPicker(seed uint64) *Picker {
	return NewPickerFrom(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewPickerFrom wraps an existing random source.
func NewPickerFrom(src rand.Source) *Picker {
	return &Picker{r: rand.New(src)}
}

// Pick returns one element of pool, or "" for an empty pool.
func (p *Picker) Pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return pool[p.r.IntN(len(pool))]
}
