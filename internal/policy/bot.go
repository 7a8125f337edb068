package policy

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cartridge/gitwars/internal/arena"
)

// LabyrinthStyle selects the mode-2 combat behaviour.
type LabyrinthStyle string

const (
	// LabyrinthCenter heads for the arena centre when alone and fires with
	// jitter at medium range.
	LabyrinthCenter LabyrinthStyle = "center"
	// LabyrinthDirect only reacts to enemies: shoot inside DirectShotRange,
	// otherwise close in.
	LabyrinthDirect LabyrinthStyle = "direct"
)

// Options parameterises a Bot.
type Options struct {
	Threat      ThreatPolicy
	Engagement  EngagementPolicy
	AimSpread   float64 // duel aim jitter, +/- degrees
	CoinContest bool
	Labyrinth   LabyrinthStyle
}

// Rule is one step of the decision cascade. Apply reports false to let the
// next rule run.
type Rule struct {
	Name  string
	Apply func(f *frame) (arena.Action, bool)
}

// frame is the scratch state of a single decision. It never outlives Explain.
type frame struct {
	obs    arena.Observation
	rng    Rand
	origin r2.Vec
	opts   *Options
}

// cascade is evaluated in order; wander always matches so it must stay last.
var cascade = []Rule{
	{Name: "obstacle", Apply: obstacleReflex},
	{Name: "duel", Apply: duel},
	{Name: "dodge", Apply: dodgeBullet},
	{Name: "scramble", Apply: scramble},
	{Name: "labyrinth", Apply: labyrinth},
	{Name: "wander", Apply: wander},
}

// Bot is a stateless rule-based tank strategy.
type Bot struct {
	name  string
	opts  Options
	rules []Rule
}

// New builds a Bot. Missing policies fall back to the smart defaults.
func New(name string, opts Options) *Bot {
	if opts.Threat == nil {
		opts.Threat = ApproachVector{Radius: DefaultApproachRadius}
	}
	if opts.Engagement == nil {
		opts.Engagement = DefaultZones()
	}
	if opts.Labyrinth == "" {
		opts.Labyrinth = LabyrinthCenter
	}
	return &Bot{name: name, opts: opts, rules: cascade}
}

func (b *Bot) Name() string { return b.name }

func (b *Bot) Options() Options { return b.opts }

// Rules lists the cascade in evaluation order.
func (b *Bot) Rules() []string {
	names := make([]string, len(b.rules))
	for i, r := range b.rules {
		names[i] = r.Name
	}
	return names
}

// Decide implements Policy.
func (b *Bot) Decide(obs arena.Observation, rng Rand) arena.Action {
	action, _ := b.Explain(obs, rng)
	return action
}

// Explain implements Explainer.
func (b *Bot) Explain(obs arena.Observation, rng Rand) (arena.Action, string) {
	f := &frame{obs: obs, rng: rng, origin: obs.Self.Pos(), opts: &b.opts}
	for _, r := range b.rules {
		if action, ok := r.Apply(f); ok {
			return action, r.Name
		}
	}
	return arena.Stop(), ""
}
