// Package randx provides the injectable random source used for every
// randomized branch in the engine (platform shuffle, probabilistic ticks,
// account picks, trait sampling). Tests inject a seeded source and assert
// exact branch outcomes.
package randx

import (
	"math/rand"
	"sync"
	"time"
)

// Source is the subset of math/rand the engine relies on.
type Source interface {
	Intn(n int) int
	Float64() float64
	Perm(n int) []int
}

// lockedSource wraps *rand.Rand with a mutex so concurrently firing campaign
// timers can share one source.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *lockedSource) Perm(n int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Perm(n)
}

// New returns a goroutine-safe source seeded with the given seed.
func New(seed int64) Source {
	return &lockedSource{r: rand.New(rand.NewSource(seed))}
}

// Default returns a goroutine-safe source seeded from the clock.
func Default() Source {
	return New(time.Now().UnixNano())
}
