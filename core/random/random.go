// Package random owns the process-wide seeded generator. Every helper that
// shuffles, splits or samples derives its randomness from the configured
// seed so that reruns with the same seed reproduce the same folds.
package random

import (
	"math/rand/v2"
	"sync"

	"github.com/YuminosukeSato/pml/core/model"
	"github.com/YuminosukeSato/pml/pkg/config"
)

var (
	mu     sync.Mutex
	shared = newRand(config.Seed(), 0)
)

func newRand(seed int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), stream))
}

// Seed stores seed in the configuration and reseeds the shared generator.
func Seed(seed int64) {
	config.Set(func(c *config.Config) { c.Seed = seed })
	Reseed(nil)
}

// Reseed resets the shared generator from the configured seed and, when est
// accepts one, sets est's random state to the same seed. It returns est.
func Reseed(est model.Estimator) model.Estimator {
	seed := config.Seed()
	if s, ok := est.(model.RandomStateSetter); ok {
		s.SetRandomState(seed)
	}
	mu.Lock()
	shared = newRand(seed, 0)
	mu.Unlock()
	return est
}

// Rand returns the shared generator. It is not safe for concurrent use;
// goroutines should call New.
func Rand() *rand.Rand {
	mu.Lock()
	defer mu.Unlock()
	return shared
}

// New returns an independent generator for stream, seeded from the
// configured seed. Equal (seed, stream) pairs produce equal sequences.
func New(stream uint64) *rand.Rand {
	return newRand(config.Seed(), stream)
}

// FromSeed returns a generator for an explicit seed, matching the splitters'
// random_state parameter.
func FromSeed(seed int64) *rand.Rand {
	return newRand(seed, uint64(seed))
}
