package policy

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cartridge/gitwars/internal/arena"
	"github.com/cartridge/gitwars/internal/geom"
)

func openField(mode arena.GameMode) arena.Observation {
	return arena.Observation{
		Self:    arena.Tank{X: 100, Y: 100, Angle: 0, Health: 100, Ammo: 20},
		Sensors: arena.Sensors{Front: arena.SensorRange, Left: arena.SensorRange, Right: arena.SensorRange},
		Mode:    mode,
	}
}

func TestRulesOrder(t *testing.T) {
	assert.Equal(t, []string{"obstacle", "duel", "dodge", "scramble", "labyrinth", "wander"}, Smart().Rules())
}

func TestObstacleReflex(t *testing.T) {
	tests := []struct {
		name    string
		sensors arena.Sensors
		want    float64
	}{
		{"face planted", arena.Sensors{Front: 5, Left: 300, Right: 300}, 180 + 30},
		{"turn left toward space", arena.Sensors{Front: 40, Left: 200, Right: 100}, 30 - 90},
		{"turn right on tie", arena.Sensors{Front: 40, Left: 100, Right: 100}, 30 + 90},
		{"left whisker", arena.Sensors{Front: 300, Left: 20, Right: 300}, 30 + 45},
		{"right whisker", arena.Sensors{Front: 300, Left: 300, Right: 20}, 30 - 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := openField(arena.ModeLabyrinth)
			obs.Self.Angle = 30
			obs.Sensors = tt.sensors

			action, rule := Smart().Explain(obs, fixedRand(0))
			assert.Equal(t, "obstacle", rule)
			assert.Equal(t, arena.KindMove, action.Kind)
			assertVec(t, geom.FromAngle(tt.want), action.Direction)
		})
	}
}

func TestReflexBeatsEverything(t *testing.T) {
	obs := openField(arena.ModeDuel)
	obs.Sensors.Front = 3
	obs.Enemies = []arena.Enemy{{X: 120, Y: 100, ID: 1}}
	obs.Juggernaut = &arena.Juggernaut{X: 101, Y: 100}

	action, rule := Smart().Explain(obs, fixedRand(0.5))
	assert.Equal(t, "obstacle", rule)
	assertVec(t, r2.Vec{X: -1, Y: 0}, action.Direction)
}

func TestBulletDodge(t *testing.T) {
	obs := openField(arena.ModeScramble)
	obs.Coins = []arena.Coin{{X: 200, Y: 100}}
	obs.Bullets = []arena.Bullet{
		{X: 300, Y: 300, VX: -5, VY: -5}, // far away
		{X: 110, Y: 100, VX: -5, VY: 0},
		{X: 100, Y: 90, VX: 0, VY: 5},
	}

	action, rule := Smart().Explain(obs, fixedRand(0))
	assert.Equal(t, "dodge", rule)
	assertVec(t, r2.Vec{X: 0, Y: -1}, action.Direction)
}

func TestBulletMovingAwayIsIgnored(t *testing.T) {
	obs := openField(arena.ModeScramble)
	obs.Coins = []arena.Coin{{X: 200, Y: 100}}
	obs.Bullets = []arena.Bullet{{X: 110, Y: 100, VX: 5, VY: 0}}

	_, rule := Smart().Explain(obs, fixedRand(0))
	assert.Equal(t, "scramble", rule)
}

func TestScrambleMovesToNearestCoin(t *testing.T) {
	for _, bot := range []*Bot{Smart(), Template()} {
		t.Run(bot.Name(), func(t *testing.T) {
			obs := openField(arena.ModeScramble)
			obs.Coins = []arena.Coin{{X: 200, Y: 100}}

			action, rule := bot.Explain(obs, fixedRand(0))
			assert.Equal(t, "scramble", rule)
			assert.Equal(t, arena.Move(100, 0), action)
		})
	}
}

func TestScrambleContest(t *testing.T) {
	obs := openField(arena.ModeScramble)
	obs.Coins = []arena.Coin{{X: 400, Y: 100}, {X: 200, Y: 100}}
	obs.Enemies = []arena.Enemy{
		{X: 100, Y: 500, ID: 1}, // closer to nothing
		{X: 190, Y: 100, ID: 2},
	}

	action, rule := Smart().Explain(obs, fixedRand(0))
	assert.Equal(t, "scramble", rule)
	assert.Equal(t, arena.Shoot(0), action)

	// not enough ammo to spare
	obs.Self.Ammo = ContestAmmo
	action, _ = Smart().Explain(obs, fixedRand(0))
	assert.Equal(t, arena.Move(100, 0), action)

	// the starter bot never contests
	obs.Self.Ammo = 50
	action, _ = Template().Explain(obs, fixedRand(0))
	assert.Equal(t, arena.Move(100, 0), action)
}

func TestLabyrinthCenter(t *testing.T) {
	bot := Smart()

	obs := openField(arena.ModeLabyrinth)
	action, rule := bot.Explain(obs, fixedRand(0))
	assert.Equal(t, "labyrinth", rule)
	assert.Equal(t, arena.Move(540, 260), action)

	obs.Enemies = []arena.Enemy{{X: 100, Y: 150, ID: 1}}
	action, _ = bot.Explain(obs, fixedRand(0))
	assert.Equal(t, arena.KindShoot, action.Kind)
	assert.InDelta(t, 90.0, action.Angle, 1e-9)

	// medium range: jitter spans +/- LabyrinthSpread
	obs.Enemies = []arena.Enemy{{X: 250, Y: 100, ID: 1}}
	action, _ = bot.Explain(obs, fixedRand(0))
	assert.InDelta(t, -LabyrinthSpread, action.Angle, 1e-9)
	action, _ = bot.Explain(obs, fixedRand(0.5))
	assert.InDelta(t, 0.0, action.Angle, 1e-9)

	obs.Enemies = []arena.Enemy{{X: 500, Y: 100, ID: 1}}
	action, _ = bot.Explain(obs, fixedRand(0))
	assert.Equal(t, arena.Move(400, 0), action)
}

func TestLabyrinthCenterOutOfAmmoWanders(t *testing.T) {
	obs := openField(arena.ModeLabyrinth)
	obs.Self.Ammo = 0
	obs.Enemies = []arena.Enemy{{X: 120, Y: 100, ID: 1}}

	action, rule := Smart().Explain(obs, fixedRand(0.25))
	assert.Equal(t, "wander", rule)
	assertVec(t, r2.Vec{X: 0, Y: 1}, action.Direction)
}

func TestLabyrinthDirect(t *testing.T) {
	bot := Template()

	obs := openField(arena.ModeLabyrinth)
	_, rule := bot.Explain(obs, fixedRand(0))
	assert.Equal(t, "wander", rule)

	obs.Enemies = []arena.Enemy{{X: 100, Y: 250, ID: 1}}
	action, rule := bot.Explain(obs, fixedRand(0))
	assert.Equal(t, "labyrinth", rule)
	assert.Equal(t, arena.KindShoot, action.Kind)
	assert.InDelta(t, 90.0, action.Angle, 1e-9)

	obs.Enemies = []arena.Enemy{{X: 100, Y: 400, ID: 1}}
	action, _ = bot.Explain(obs, fixedRand(0))
	assert.Equal(t, arena.Move(0, 300), action)
}

func TestEmptyFieldWanders(t *testing.T) {
	for _, mode := range []arena.GameMode{arena.ModeScramble, arena.ModeLabyrinth} {
		for _, bot := range []*Bot{Smart(), Template()} {
			obs := openField(mode)
			if mode == arena.ModeLabyrinth && bot.Name() == PresetSmart {
				// the smart bot heads for the centre instead
				continue
			}
			action, rule := bot.Explain(obs, NewRand(7))
			assert.Equal(t, "wander", rule)
			assert.Equal(t, arena.KindMove, action.Kind)
			assert.InDelta(t, 1.0, r2.Norm(action.Direction), 1e-9)
		}
	}
}

func TestDuelIdleDriftsTowardAnchor(t *testing.T) {
	obs := openField(arena.ModeDuel)
	obs.Self.Ammo = 0

	action, rule := Smart().Explain(obs, fixedRand(0))
	assert.Equal(t, "duel", rule)
	assert.Equal(t, arena.KindMove, action.Kind)
	assertVec(t, geom.Normalize(r2.Vec{X: 300, Y: 200}, 0), action.Direction)

	// the drift rotates with the clock
	obs.TimeLeft = math.Pi / 2
	action, _ = Smart().Explain(obs, fixedRand(0))
	theta := math.Atan2(200, 300) + math.Pi/2
	assertVec(t, r2.Vec{X: math.Cos(theta), Y: math.Sin(theta)}, action.Direction)
}

func TestDuelChaseAndShoot(t *testing.T) {
	obs := openField(arena.ModeDuel)
	obs.Enemies = []arena.Enemy{{X: 100, Y: 500, ID: 3}}

	action, _ := Smart().Explain(obs, fixedRand(0.5))
	assert.Equal(t, arena.KindMoveAndShoot, action.Kind)
	assertVec(t, r2.Vec{X: 0, Y: 1}, action.Direction)
	assert.InDelta(t, 90.0, action.Angle, 1e-9)

	// aim jitter is bounded by the spread
	action, _ = Smart().Explain(obs, fixedRand(0))
	assert.InDelta(t, 87.0, action.Angle, 1e-9)
	action, _ = Template().Explain(obs, fixedRand(0))
	assert.InDelta(t, 85.0, action.Angle, 1e-9)
}

func TestDuelJuggernautDominates(t *testing.T) {
	obs := openField(arena.ModeDuel)
	obs.Self.Ammo = 0
	obs.Juggernaut = &arena.Juggernaut{X: 150, Y: 100}
	obs.Enemies = []arena.Enemy{{X: 100, Y: 700, ID: 3}}

	action, _ := Smart().Explain(obs, fixedRand(0))
	// flee term is 2*(250/300) > BusyDodgeMag, so the chase is skipped
	assertVec(t, r2.Vec{X: -1, Y: 0}, action.Direction)
}

func TestDuelDodgesBullets(t *testing.T) {
	obs := openField(arena.ModeDuel)
	obs.Self.Ammo = 0
	obs.Enemies = []arena.Enemy{{X: 600, Y: 100, ID: 3}}
	obs.Bullets = []arena.Bullet{{X: 110, Y: 100, VX: -5, VY: 0}}

	action, _ := Smart().Explain(obs, fixedRand(0))
	assertVec(t, r2.Vec{X: 0, Y: -1}, action.Direction)
}

func TestDecideDoesNotMutateObservation(t *testing.T) {
	obs := openField(arena.ModeDuel)
	obs.Enemies = []arena.Enemy{{X: 300, Y: 100, ID: 1}, {X: 90, Y: 80, ID: 2}}
	obs.Bullets = []arena.Bullet{{X: 110, Y: 100, VX: -5, VY: 0}}
	obs.Juggernaut = &arena.Juggernaut{X: 200, Y: 200}
	before := obs.Clone()

	Smart().Decide(obs, NewRand(1))
	Template().Decide(obs, NewRand(1))
	assert.Equal(t, before, obs)
}

func TestDecideIsDeterministicPerSeed(t *testing.T) {
	obs := openField(arena.ModeDuel)
	obs.Enemies = []arena.Enemy{{X: 250, Y: 100, ID: 1}}

	first := Smart().Decide(obs, NewRand(42))
	second := Smart().Decide(obs, NewRand(42))
	assert.Equal(t, first, second)
}

func TestPresetOptions(t *testing.T) {
	opts, err := PresetOptions(PresetTemplate)
	require.NoError(t, err)
	assert.Equal(t, "closing", opts.Threat.Name())
	assert.Equal(t, LabyrinthDirect, opts.Labyrinth)

	_, err = PresetOptions("berserk")
	assert.True(t, errors.Is(err, ErrUnknownPreset))
}

func TestNewFillsDefaults(t *testing.T) {
	opts := New("bare", Options{}).Options()
	assert.Equal(t, "approach", opts.Threat.Name())
	assert.Equal(t, "zones", opts.Engagement.Name())
	assert.Equal(t, LabyrinthCenter, opts.Labyrinth)
}
