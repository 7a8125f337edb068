// Package policy provides the decision strategies for GitWars tanks.
package policy

import (
	"math/rand"

	"github.com/cartridge/gitwars/internal/arena"
)

// Rand is the random source a decision draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Policy interface for action selection
type Policy interface {
	// Decide chooses the action for one frame. It must not keep state between
	// calls; all randomness comes from rng.
	Decide(obs arena.Observation, rng Rand) arena.Action
}

// Explainer is implemented by policies that can name the rule behind a decision.
type Explainer interface {
	Explain(obs arena.Observation, rng Rand) (arena.Action, string)
}

// NewRand returns the seeded generator used for a single frame. The harness and
// replay verification both go through here so a recorded seed reproduces the
// same draws.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// uniform draws from [lo, hi).
func uniform(rng Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
