package framelog

import (
	"context"
	"fmt"

	"github.com/cartridge/gitwars/internal/events"
)

// Recorder turns frame events into stored frames.
type Recorder struct {
	backend Backend
}

func NewRecorder(backend Backend) *Recorder {
	return &Recorder{backend: backend}
}

// PublishFrame satisfies events.Publisher.
func (r *Recorder) PublishFrame(ctx context.Context, e events.FrameEvent) error {
	f := &Frame{
		MatchID:     e.MatchID,
		Tank:        e.Tank,
		Policy:      e.Policy,
		Number:      e.Frame,
		Seed:        e.Seed,
		Observation: e.Observation.Clone(),
		Action:      e.Action,
		Rule:        e.Rule,
		Outcome:     e.Outcome,
		Latency:     e.Latency,
		Timestamp:   e.Timestamp,
	}
	if err := r.backend.Store(ctx, f); err != nil {
		return fmt.Errorf("record frame %d of %s: %w", e.Frame, e.Tank, err)
	}
	return nil
}
