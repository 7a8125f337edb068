package harness

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cartridge/gitwars/internal/arena"
	"github.com/cartridge/gitwars/internal/events"
	"github.com/cartridge/gitwars/internal/metrics"
	"github.com/cartridge/gitwars/internal/policy"
)

var (
	ErrPolicyPanic    = errors.New("policy panicked")
	ErrBudgetExceeded = errors.New("decision budget exceeded")
)

// Outcome says how a single decision ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeFrozenPanic
	OutcomeFrozenTimeout
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return events.OutcomeOK
	case OutcomeFrozenPanic:
		return events.OutcomeFrozenPanic
	case OutcomeFrozenTimeout:
		return events.OutcomeFrozenTimeout
	case OutcomeCanceled:
		return events.OutcomeCanceled
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Frozen reports whether the tank loses its turn.
func (o Outcome) Frozen() bool {
	return o == OutcomeFrozenPanic || o == OutcomeFrozenTimeout
}

// Entry is one tank's view of a frame.
type Entry struct {
	Tank        string
	Observation arena.Observation
}

// Turn groups every tank that acts on the same frame.
type Turn struct {
	Frame   int64
	Entries []Entry
}

// Result is what the engine applies for one tank on one frame.
type Result struct {
	Tank    string
	Frame   int64
	Seed    int64
	Action  arena.Action
	Rule    string
	Outcome Outcome
	Latency time.Duration
	Err     error
}

// Options configures a Runner.
type Options struct {
	MatchID string
	Seed    int64
	Budget  time.Duration
	Workers int
}

// Runner drives a policy the way the engine does: one call per tank per
// frame, a hard time budget, and a frozen turn instead of a crash.
type Runner struct {
	policy    policy.Policy
	name      string
	opts      Options
	publisher events.Publisher
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// New creates a runner. Zero Budget and Workers fall back to 100ms and 1.
func New(p policy.Policy, opts Options, logger zerolog.Logger) *Runner {
	if opts.Budget <= 0 {
		opts.Budget = 100 * time.Millisecond
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	name := "custom"
	if n, ok := p.(interface{ Name() string }); ok {
		name = n.Name()
	}
	return &Runner{
		policy:    p,
		name:      name,
		opts:      opts,
		publisher: events.NoopPublisher{},
		metrics:   metrics.NewCollector(logger),
		logger:    logger,
	}
}

// WithPublisher sets where frame events go.
func (r *Runner) WithPublisher(p events.Publisher) *Runner {
	r.publisher = p
	return r
}

func (r *Runner) Metrics() *metrics.Collector { return r.metrics }

func (r *Runner) MatchID() string { return r.opts.MatchID }

func (r *Runner) PolicyName() string { return r.name }

// FrameSeed derives the rng seed for one tank on one frame. The same match
// seed always reproduces the same decisions.
func FrameSeed(base int64, tank string, frame int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(tank))
	s := uint64(base) ^ h.Sum64()
	s ^= uint64(frame+1) * 0x9e3779b97f4a7c15
	return int64(s)
}

type decision struct {
	action arena.Action
	rule   string
	err    error
}

// Step asks the policy for one tank's action. It never fails: a panic or an
// overrun freezes the tank for this frame.
func (r *Runner) Step(ctx context.Context, tank string, obs arena.Observation, frame int64) Result {
	seed := FrameSeed(r.opts.Seed, tank, frame)
	res := Result{Tank: tank, Frame: frame, Seed: seed}

	// the policy gets its own copy; an abandoned call may still be reading it
	view := obs.Clone()
	done := make(chan decision, 1)
	start := time.Now()

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- decision{err: fmt.Errorf("%w: %v", ErrPolicyPanic, p)}
			}
		}()
		action, rule := r.decide(view, policy.NewRand(seed))
		done <- decision{action: action, rule: rule}
	}()

	timer := time.NewTimer(r.opts.Budget)
	defer timer.Stop()

	select {
	case d := <-done:
		res.Latency = time.Since(start)
		if d.err != nil {
			res.Action = arena.Stop()
			res.Outcome = OutcomeFrozenPanic
			res.Err = d.err
		} else {
			res.Action = d.action
			res.Rule = d.rule
		}
	case <-timer.C:
		res.Latency = time.Since(start)
		res.Action = arena.Stop()
		res.Outcome = OutcomeFrozenTimeout
		res.Err = ErrBudgetExceeded
	case <-ctx.Done():
		res.Latency = time.Since(start)
		res.Action = arena.Stop()
		res.Outcome = OutcomeCanceled
		res.Err = ctx.Err()
	}

	r.record(ctx, obs, res)
	return res
}

func (r *Runner) decide(obs arena.Observation, rng policy.Rand) (arena.Action, string) {
	if e, ok := r.policy.(policy.Explainer); ok {
		return e.Explain(obs, rng)
	}
	return r.policy.Decide(obs, rng), ""
}

func (r *Runner) record(ctx context.Context, obs arena.Observation, res Result) {
	switch {
	case res.Outcome.Frozen():
		r.metrics.FrozenFrame(res.Tank, res.Outcome.String(), res.Frame, res.Latency)
	case res.Outcome == OutcomeCanceled:
		r.metrics.DecisionCanceled(res.Tank, res.Frame)
		return
	default:
		r.metrics.DecisionRecorded(res.Tank, res.Rule, res.Latency)
	}

	event := events.FrameEvent{
		MatchID:     r.opts.MatchID,
		Tank:        res.Tank,
		Policy:      r.name,
		Frame:       res.Frame,
		Seed:        res.Seed,
		Observation: obs,
		Action:      res.Action,
		Rule:        res.Rule,
		Outcome:     res.Outcome.String(),
		Latency:     res.Latency,
		Timestamp:   time.Now().UTC(),
	}
	if err := r.publisher.PublishFrame(ctx, event); err != nil {
		r.logger.Error().Err(err).
			Str("tank", res.Tank).
			Int64("frame", res.Frame).
			Msg("Failed to publish frame")
	}
}

// StepAll evaluates independent tanks in parallel. Results keep the order of
// entries.
func (r *Runner) StepAll(ctx context.Context, frame int64, entries []Entry) ([]Result, error) {
	results := make([]Result, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			results[i] = r.Step(gctx, e.Tank, e.Observation, frame)
			if results[i].Outcome == OutcomeCanceled {
				return results[i].Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Run plays turns in order until they run out or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, turns []Turn) error {
	r.logger.Info().
		Str("match_id", r.opts.MatchID).
		Str("policy", r.name).
		Int("turns", len(turns)).
		Dur("budget", r.opts.Budget).
		Msg("Match started")

	for _, t := range turns {
		if _, err := r.StepAll(ctx, t.Frame, t.Entries); err != nil {
			r.logger.Warn().Err(err).Int64("frame", t.Frame).Msg("Match stopped")
			return err
		}
	}

	r.metrics.LogSummary()
	return nil
}
