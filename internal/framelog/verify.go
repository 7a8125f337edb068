package framelog

import (
	"github.com/cartridge/gitwars/internal/arena"
	"github.com/cartridge/gitwars/internal/events"
	"github.com/cartridge/gitwars/internal/policy"
)

// Mismatch is a recorded frame the policy no longer reproduces.
type Mismatch struct {
	Frame *Frame
	Got   arena.Action
	Rule  string
}

// Verify re-decides every completed frame with its recorded seed. Frozen and
// cancelled frames are skipped since the policy never produced their action.
func Verify(p policy.Policy, frames []*Frame) []Mismatch {
	var mismatches []Mismatch
	for _, f := range frames {
		if f.Outcome != "" && f.Outcome != events.OutcomeOK {
			continue
		}
		got, rule := decide(p, f)
		if got != f.Action {
			mismatches = append(mismatches, Mismatch{Frame: f, Got: got, Rule: rule})
		}
	}
	return mismatches
}

func decide(p policy.Policy, f *Frame) (arena.Action, string) {
	rng := policy.NewRand(f.Seed)
	if e, ok := p.(policy.Explainer); ok {
		return e.Explain(f.Observation.Clone(), rng)
	}
	return p.Decide(f.Observation.Clone(), rng), ""
}
