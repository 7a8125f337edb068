package framelog

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cartridge/gitwars/internal/events"
)

// MemoryBackend implements an in-memory frame log
type MemoryBackend struct {
	mu        sync.RWMutex
	frames    map[string]*Frame   // ID -> Frame
	matches   map[string][]string // MatchID -> FrameIDs
	tankIndex map[string][]string // Tank -> FrameIDs
	timeIndex []string            // FrameIDs sorted by timestamp
	maxSize   uint64              // Maximum number of frames to store
	rng       *rand.Rand
}

// NewMemoryBackend creates a new in-memory storage backend. A zero maxSize
// keeps everything.
func NewMemoryBackend(maxSize uint64) *MemoryBackend {
	return &MemoryBackend{
		frames:    make(map[string]*Frame),
		matches:   make(map[string][]string),
		tankIndex: make(map[string][]string),
		timeIndex: make([]string, 0),
		maxSize:   maxSize,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Store implements Backend.Store
func (m *MemoryBackend) Store(ctx context.Context, frame *Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frames == nil {
		return fmt.Errorf("store frame: backend closed")
	}

	if frame.ID == "" {
		frame.ID = uuid.New().String()
	}
	if frame.Timestamp.IsZero() {
		frame.Timestamp = time.Now().UTC()
	}
	if frame.Outcome == "" {
		frame.Outcome = events.OutcomeOK
	}

	if _, exists := m.frames[frame.ID]; exists {
		m.deleteFrame(frame.ID)
	}
	m.frames[frame.ID] = frame

	if frame.MatchID != "" {
		m.matches[frame.MatchID] = append(m.matches[frame.MatchID], frame.ID)
	}
	if frame.Tank != "" {
		m.tankIndex[frame.Tank] = append(m.tankIndex[frame.Tank], frame.ID)
	}

	m.insertInTimeIndex(frame.ID, frame.Timestamp)
	m.evictIfNeeded()

	return nil
}

// StoreBatch implements Backend.StoreBatch
func (m *MemoryBackend) StoreBatch(ctx context.Context, frames []*Frame) ([]string, error) {
	ids := make([]string, len(frames))

	for i, frame := range frames {
		if err := m.Store(ctx, frame); err != nil {
			return ids[:i], err
		}
		ids[i] = frame.ID
	}

	return ids, nil
}

// Match implements Backend.Match
func (m *MemoryBackend) Match(ctx context.Context, matchID string) ([]*Frame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, exists := m.matches[matchID]
	if !exists {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}

	frames := make([]*Frame, 0, len(ids))
	for _, id := range ids {
		frames = append(frames, m.frames[id])
	}
	sortFrames(frames)
	return frames, nil
}

// Sample implements Backend.Sample
func (m *MemoryBackend) Sample(ctx context.Context, config *SampleConfig) ([]*Frame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := m.getCandidates(config)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("sample: %w", ErrNotFound)
	}

	size := config.Size
	if size <= 0 || size > len(candidates) {
		size = len(candidates)
	}
	sampled := m.uniformSample(candidates, size)
	sortFrames(sampled)
	return sampled, nil
}

// GetStats implements Backend.GetStats
func (m *MemoryBackend) GetStats(ctx context.Context, matchID string) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{
		FramesByTank:    make(map[string]uint64),
		FramesByOutcome: make(map[string]uint64),
	}

	var oldest, newest *Frame
	for _, f := range m.frames {
		if matchID != "" && f.MatchID != matchID {
			continue
		}
		stats.TotalFrames++
		stats.FramesByTank[f.Tank]++
		stats.FramesByOutcome[f.Outcome]++
		if oldest == nil || f.Timestamp.Before(oldest.Timestamp) {
			oldest = f
		}
		if newest == nil || f.Timestamp.After(newest.Timestamp) {
			newest = f
		}
	}

	if matchID == "" {
		stats.TotalMatches = uint64(len(m.matches))
	} else if _, exists := m.matches[matchID]; exists {
		stats.TotalMatches = 1
	}

	if oldest != nil {
		o, n := oldest.Timestamp, newest.Timestamp
		stats.OldestTimestamp = &o
		stats.NewestTimestamp = &n
	}

	return stats, nil
}

// Clear implements Backend.Clear
func (m *MemoryBackend) Clear(ctx context.Context, matchID string, beforeTimestamp *time.Time, keepLastN uint32) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var relevant []string
	for _, id := range m.timeIndex {
		if matchID == "" || m.frames[id].MatchID == matchID {
			relevant = append(relevant, id)
		}
	}

	// relevant is oldest first; the newest keepLastN are protected
	limit := len(relevant)
	if keepLastN > 0 {
		limit = max(len(relevant)-int(keepLastN), 0)
	}

	var toDelete []string
	for i, id := range relevant {
		if i >= limit {
			break
		}
		if beforeTimestamp == nil || m.frames[id].Timestamp.Before(*beforeTimestamp) {
			toDelete = append(toDelete, id)
		}
	}

	for _, id := range toDelete {
		m.deleteFrame(id)
	}

	return uint64(len(toDelete)), nil
}

// Close implements Backend.Close
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames = nil
	m.matches = nil
	m.tankIndex = nil
	m.timeIndex = nil

	return nil
}

// Helper methods

func (m *MemoryBackend) insertInTimeIndex(id string, timestamp time.Time) {
	idx := sort.Search(len(m.timeIndex), func(i int) bool {
		return m.frames[m.timeIndex[i]].Timestamp.After(timestamp)
	})

	m.timeIndex = slices.Insert(m.timeIndex, idx, id)
}

func (m *MemoryBackend) evictIfNeeded() {
	for m.maxSize > 0 && uint64(len(m.frames)) > m.maxSize && len(m.timeIndex) > 0 {
		m.deleteFrame(m.timeIndex[0])
	}
}

func (m *MemoryBackend) deleteFrame(id string) {
	frame, exists := m.frames[id]
	if !exists {
		return
	}

	delete(m.frames, id)

	if frame.MatchID != "" {
		m.matches[frame.MatchID] = removeString(m.matches[frame.MatchID], id)
		if len(m.matches[frame.MatchID]) == 0 {
			delete(m.matches, frame.MatchID)
		}
	}

	if frame.Tank != "" {
		m.tankIndex[frame.Tank] = removeString(m.tankIndex[frame.Tank], id)
		if len(m.tankIndex[frame.Tank]) == 0 {
			delete(m.tankIndex, frame.Tank)
		}
	}

	m.timeIndex = removeString(m.timeIndex, id)
}

func (m *MemoryBackend) getCandidates(config *SampleConfig) []*Frame {
	var ids []string
	switch {
	case config.Tank != "":
		ids = m.tankIndex[config.Tank]
	case config.MatchID != "":
		ids = m.matches[config.MatchID]
	default:
		ids = m.timeIndex
	}

	var candidates []*Frame
	for _, id := range ids {
		f := m.frames[id]
		if config.MatchID != "" && f.MatchID != config.MatchID {
			continue
		}
		if config.FrozenOnly && f.Outcome != events.OutcomeFrozenPanic && f.Outcome != events.OutcomeFrozenTimeout {
			continue
		}
		candidates = append(candidates, f)
	}
	return candidates
}

func (m *MemoryBackend) uniformSample(candidates []*Frame, size int) []*Frame {
	if size >= len(candidates) {
		return slices.Clone(candidates)
	}

	indices := m.rng.Perm(len(candidates))
	sampled := make([]*Frame, size)
	for i := range sampled {
		sampled[i] = candidates[indices[i]]
	}
	return sampled
}

func sortFrames(frames []*Frame) {
	sort.SliceStable(frames, func(i, j int) bool {
		if frames[i].Number != frames[j].Number {
			return frames[i].Number < frames[j].Number
		}
		return frames[i].Tank < frames[j].Tank
	})
}

func removeString(slice []string, item string) []string {
	if i := slices.Index(slice, item); i >= 0 {
		return slices.Delete(slice, i, i+1)
	}
	return slice
}
