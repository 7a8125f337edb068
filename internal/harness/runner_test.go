package harness

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cartridge/gitwars/internal/arena"
	"github.com/cartridge/gitwars/internal/events"
	"github.com/cartridge/gitwars/internal/policy"
)

type mockPolicy struct {
	mock.Mock
}

func (m *mockPolicy) Decide(obs arena.Observation, rng policy.Rand) arena.Action {
	args := m.Called(obs, rng)
	return args.Get(0).(arena.Action)
}

// capture keeps every published event.
type capture struct {
	mu     sync.Mutex
	events []events.FrameEvent
}

func (c *capture) PublishFrame(_ context.Context, e events.FrameEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func observation() arena.Observation {
	return arena.Observation{
		Self:    arena.Tank{X: 100, Y: 100, Ammo: 5},
		Sensors: arena.Sensors{Front: 300, Left: 300, Right: 300},
		Mode:    arena.ModeScramble,
		Coins:   []arena.Coin{{X: 200, Y: 100}},
	}
}

func TestStepOK(t *testing.T) {
	sink := &capture{}
	r := New(policy.Smart(), Options{MatchID: "m1", Seed: 7, Budget: time.Second}, zerolog.Nop()).
		WithPublisher(sink)

	res := r.Step(context.Background(), "red", observation(), 3)
	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeOK, res.Outcome)
	assert.Equal(t, arena.Move(100, 0), res.Action)
	assert.Equal(t, "scramble", res.Rule)
	assert.Equal(t, FrameSeed(7, "red", 3), res.Seed)

	require.Len(t, sink.events, 1)
	e := sink.events[0]
	assert.Equal(t, "m1", e.MatchID)
	assert.Equal(t, policy.PresetSmart, e.Policy)
	assert.Equal(t, events.OutcomeOK, e.Outcome)
	assert.Equal(t, observation(), e.Observation)

	assert.Equal(t, int64(1), r.Metrics().Snapshot().Decisions)
}

func TestStepPanicFreezes(t *testing.T) {
	p := &mockPolicy{}
	p.On("Decide", mock.Anything, mock.Anything).Panic("boom")

	sink := &capture{}
	r := New(p, Options{Budget: time.Second}, zerolog.Nop()).WithPublisher(sink)

	res := r.Step(context.Background(), "red", observation(), 1)
	assert.Equal(t, OutcomeFrozenPanic, res.Outcome)
	assert.Equal(t, arena.Stop(), res.Action)
	assert.ErrorIs(t, res.Err, ErrPolicyPanic)
	assert.Contains(t, res.Err.Error(), "boom")

	require.Len(t, sink.events, 1)
	assert.True(t, sink.events[0].Frozen())
	assert.Equal(t, "custom", sink.events[0].Policy)
	assert.Equal(t, int64(1), r.Metrics().Snapshot().Frozen)
	p.AssertExpectations(t)
}

func TestStepTimeoutFreezes(t *testing.T) {
	p := &mockPolicy{}
	p.On("Decide", mock.Anything, mock.Anything).
		After(200 * time.Millisecond).
		Return(arena.Move(1, 0))

	r := New(p, Options{Budget: 10 * time.Millisecond}, zerolog.Nop())

	res := r.Step(context.Background(), "red", observation(), 1)
	assert.Equal(t, OutcomeFrozenTimeout, res.Outcome)
	assert.Equal(t, arena.Stop(), res.Action)
	assert.ErrorIs(t, res.Err, ErrBudgetExceeded)
	assert.Less(t, res.Latency, 200*time.Millisecond)
}

func TestStepCanceled(t *testing.T) {
	p := &mockPolicy{}
	p.On("Decide", mock.Anything, mock.Anything).
		After(200 * time.Millisecond).
		Return(arena.Move(1, 0))

	sink := &capture{}
	r := New(p, Options{Budget: time.Second}, zerolog.Nop()).WithPublisher(sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := r.Step(ctx, "red", observation(), 1)
	assert.Equal(t, OutcomeCanceled, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, sink.events)
}

func TestStepPolicyCannotMutateCaller(t *testing.T) {
	p := &mockPolicy{}
	p.On("Decide", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			obs := args.Get(0).(arena.Observation)
			obs.Coins[0].X = -1
		}).
		Return(arena.Stop())

	obs := observation()
	New(p, Options{}, zerolog.Nop()).Step(context.Background(), "red", obs, 0)
	assert.Equal(t, 200.0, obs.Coins[0].X)
}

func TestStepIsDeterministic(t *testing.T) {
	obs := observation()
	obs.Coins = nil
	obs.Mode = arena.ModeLabyrinth
	obs.Enemies = []arena.Enemy{{X: 100, Y: 250}} // medium range, jittered shot

	r := New(policy.Smart(), Options{Seed: 99}, zerolog.Nop())
	a := r.Step(context.Background(), "red", obs, 12)
	b := r.Step(context.Background(), "red", obs, 12)
	assert.Equal(t, a.Action, b.Action)
	assert.Equal(t, a.Seed, b.Seed)
}

func TestFrameSeed(t *testing.T) {
	assert.Equal(t, FrameSeed(1, "red", 5), FrameSeed(1, "red", 5))
	assert.NotEqual(t, FrameSeed(1, "red", 5), FrameSeed(1, "blue", 5))
	assert.NotEqual(t, FrameSeed(1, "red", 5), FrameSeed(1, "red", 6))
	assert.NotEqual(t, FrameSeed(1, "red", 5), FrameSeed(2, "red", 5))
}

func TestStepAllKeepsOrder(t *testing.T) {
	r := New(policy.Smart(), Options{Workers: 3, Budget: time.Second}, zerolog.Nop())

	var entries []Entry
	for i, x := range []float64{150, 300, 450, 600, 750} {
		obs := observation()
		obs.Coins = []arena.Coin{{X: x, Y: 100}}
		entries = append(entries, Entry{Tank: string(rune('a' + i)), Observation: obs})
	}

	results, err := r.StepAll(context.Background(), 4, entries)
	require.NoError(t, err)
	require.Len(t, results, len(entries))
	for i, res := range results {
		assert.Equal(t, entries[i].Tank, res.Tank)
		assert.Equal(t, int64(4), res.Frame)
		assert.Equal(t, arena.Move(entries[i].Observation.Coins[0].X-100, 0), res.Action)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &mockPolicy{}
	p.On("Decide", mock.Anything, mock.Anything).
		After(100 * time.Millisecond).
		Return(arena.Stop())

	r := New(p, Options{}, zerolog.Nop())
	err := r.Run(ctx, []Turn{{Frame: 0, Entries: []Entry{{Tank: "red", Observation: observation()}}}})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "ok", OutcomeOK.String())
	assert.Equal(t, "frozen_panic", OutcomeFrozenPanic.String())
	assert.Equal(t, "frozen_timeout", OutcomeFrozenTimeout.String())
	assert.Equal(t, "canceled", OutcomeCanceled.String())
	assert.True(t, OutcomeFrozenTimeout.Frozen())
	assert.False(t, OutcomeCanceled.Frozen())
}
