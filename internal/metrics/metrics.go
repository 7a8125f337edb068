package metrics

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Collector logs per-decision metrics and keeps running totals for the
// end-of-match summary.
type Collector struct {
	logger zerolog.Logger

	mu       sync.Mutex
	decided  int64
	frozen   int64
	canceled int64
	total    time.Duration
	slowest  time.Duration
	rules    map[string]int64
}

// Snapshot is a point-in-time copy of the totals.
type Snapshot struct {
	Decisions   int64            `json:"decisions"`
	Frozen      int64            `json:"frozen"`
	Canceled    int64            `json:"canceled"`
	MeanLatency time.Duration    `json:"mean_latency"`
	MaxLatency  time.Duration    `json:"max_latency"`
	Rules       map[string]int64 `json:"rules"`
}

func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{
		logger: logger,
		rules:  make(map[string]int64),
	}
}

// Track a decision that came back within budget
func (c *Collector) DecisionRecorded(tank, rule string, latency time.Duration) {
	c.mu.Lock()
	c.decided++
	c.total += latency
	if latency > c.slowest {
		c.slowest = latency
	}
	if rule != "" {
		c.rules[rule]++
	}
	c.mu.Unlock()

	c.logger.Debug().
		Str("metric", "decision").
		Str("tank", tank).
		Str("rule", rule).
		Dur("latency", latency).
		Msg("Decision metric")
}

// Track a tank losing its turn
func (c *Collector) FrozenFrame(tank, reason string, frame int64, latency time.Duration) {
	c.mu.Lock()
	c.frozen++
	c.mu.Unlock()

	c.logger.Warn().
		Str("metric", "frozen_frame").
		Str("tank", tank).
		Str("reason", reason).
		Int64("frame", frame).
		Dur("latency", latency).
		Msg("Tank frozen")
}

// Track a decision abandoned because the match was cancelled
func (c *Collector) DecisionCanceled(tank string, frame int64) {
	c.mu.Lock()
	c.canceled++
	c.mu.Unlock()

	c.logger.Debug().
		Str("metric", "decision_canceled").
		Str("tank", tank).
		Int64("frame", frame).
		Msg("Decision canceled")
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Decisions:  c.decided,
		Frozen:     c.frozen,
		Canceled:   c.canceled,
		MaxLatency: c.slowest,
		Rules:      make(map[string]int64, len(c.rules)),
	}
	if c.decided > 0 {
		s.MeanLatency = c.total / time.Duration(c.decided)
	}
	for k, v := range c.rules {
		s.Rules[k] = v
	}
	return s
}

// LogSummary writes the totals as a single info line.
func (c *Collector) LogSummary() {
	s := c.Snapshot()
	rules := zerolog.Dict()
	for k, v := range s.Rules {
		rules.Int64(k, v)
	}
	c.logger.Info().
		Str("metric", "match_summary").
		Int64("decisions", s.Decisions).
		Int64("frozen", s.Frozen).
		Int64("canceled", s.Canceled).
		Dur("mean_latency", s.MeanLatency).
		Dur("max_latency", s.MaxLatency).
		Dict("rules", rules).
		Msg("Match summary")
}
