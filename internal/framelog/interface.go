// Package framelog stores what every tank saw and did, frame by frame, so a
// match can be replayed and checked for determinism.
package framelog

import (
	"context"
	"errors"
	"time"

	"github.com/cartridge/gitwars/internal/arena"
)

var ErrNotFound = errors.New("frames not found")

// Frame is one tank's decision on one frame.
type Frame struct {
	ID          string            `json:"id"`
	MatchID     string            `json:"match_id"`
	Tank        string            `json:"tank"`
	Policy      string            `json:"policy"`
	Number      int64             `json:"number"`
	Seed        int64             `json:"seed"`
	Observation arena.Observation `json:"observation"`
	Action      arena.Action      `json:"action"`
	Rule        string            `json:"rule,omitempty"`
	Outcome     string            `json:"outcome"`
	Latency     time.Duration     `json:"latency"`
	Timestamp   time.Time         `json:"timestamp"`
}

// SampleConfig defines parameters for sampling frames
type SampleConfig struct {
	Size       int
	MatchID    string
	Tank       string
	FrozenOnly bool
}

// Stats summarises what a backend holds.
type Stats struct {
	TotalFrames     uint64
	TotalMatches    uint64
	FramesByTank    map[string]uint64
	FramesByOutcome map[string]uint64
	OldestTimestamp *time.Time
	NewestTimestamp *time.Time
}

// Backend defines the interface for frame log storage implementations
type Backend interface {
	// Store a single frame
	Store(ctx context.Context, frame *Frame) error

	// Store multiple frames in a batch
	StoreBatch(ctx context.Context, frames []*Frame) ([]string, error)

	// Match returns every frame of a match ordered by frame number, then tank
	Match(ctx context.Context, matchID string) ([]*Frame, error)

	// Sample picks frames uniformly at random
	Sample(ctx context.Context, config *SampleConfig) ([]*Frame, error)

	// Get log statistics, optionally for a single match
	GetStats(ctx context.Context, matchID string) (*Stats, error)

	// Clear frames older than beforeTimestamp, keeping at least the newest keepLastN
	Clear(ctx context.Context, matchID string, beforeTimestamp *time.Time, keepLastN uint32) (uint64, error)

	// Close the backend and cleanup resources
	Close() error
}
