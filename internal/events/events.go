package events

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartridge/gitwars/internal/arena"
)

// Outcome values carried by FrameEvent.
const (
	OutcomeOK            = "ok"
	OutcomeFrozenPanic   = "frozen_panic"
	OutcomeFrozenTimeout = "frozen_timeout"
	OutcomeCanceled      = "canceled"
)

// Publisher is implemented by downstream fan-out mechanisms.
type Publisher interface {
	PublishFrame(ctx context.Context, event FrameEvent) error
}

// FrameEvent is emitted once per tank per frame.
type FrameEvent struct {
	MatchID     string            `json:"match_id"`
	Tank        string            `json:"tank"`
	Policy      string            `json:"policy"`
	Frame       int64             `json:"frame"`
	Seed        int64             `json:"seed"`
	Observation arena.Observation `json:"observation"`
	Action      arena.Action      `json:"action"`
	Rule        string            `json:"rule,omitempty"`
	Outcome     string            `json:"outcome"`
	Latency     time.Duration     `json:"latency"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Frozen reports whether the tank lost its turn.
func (e FrameEvent) Frozen() bool {
	return e.Outcome == OutcomeFrozenPanic || e.Outcome == OutcomeFrozenTimeout
}

// NoopPublisher logs nothing; useful for tests.
type NoopPublisher struct{}

// PublishFrame satisfies Publisher.
func (NoopPublisher) PublishFrame(context.Context, FrameEvent) error { return nil }

// LogPublisher writes one log line per frame. Frozen frames log at warn.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishFrame satisfies Publisher.
func (l *LogPublisher) PublishFrame(_ context.Context, e FrameEvent) error {
	ev := l.logger.Debug()
	if e.Frozen() {
		ev = l.logger.Warn()
	}
	ev.Str("match_id", e.MatchID).
		Str("tank", e.Tank).
		Int64("frame", e.Frame).
		Str("action", e.Action.String()).
		Str("rule", e.Rule).
		Str("outcome", e.Outcome).
		Dur("latency", e.Latency).
		Msg("Frame decided")
	return nil
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

// PublishFrame satisfies Publisher.
func (m Multi) PublishFrame(ctx context.Context, e FrameEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishFrame(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
