package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSPublisher streams frame events to spectators over NATS.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher creates a new NATS-backed publisher
func NewNATSPublisher(natsURL, subject string, logger zerolog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}

	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}, nil
}

// Close drains pending messages and closes the connection.
func (n *NATSPublisher) Close() {
	if n.conn != nil {
		if err := n.conn.Drain(); err != nil {
			n.conn.Close()
		}
	}
}

// Subject returns the subject an event is published on.
func (n *NATSPublisher) Subject(e FrameEvent) string {
	return n.subject + "." + e.MatchID
}

// PublishFrame publishes the event under <subject>.<match>. Frozen frames are
// also copied to <subject>.frozen for alerting.
func (n *NATSPublisher) PublishFrame(ctx context.Context, e FrameEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	subject := n.Subject(e)
	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Error().Err(err).Str("subject", subject).Msg("Failed to publish frame")
		return err
	}

	if e.Frozen() {
		frozen := n.subject + ".frozen"
		if err := n.conn.Publish(frozen, data); err != nil {
			n.logger.Error().Err(err).Str("subject", frozen).Msg("Failed to publish frozen frame")
		}
	}

	n.logger.Debug().
		Str("match_id", e.MatchID).
		Str("tank", e.Tank).
		Int64("frame", e.Frame).
		Str("subject", subject).
		Msg("Published frame event")

	return nil
}
