// Package arena defines what the engine hands a bot each frame and what the
// bot hands back.
package arena

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// SensorRange is the ray-cast cap; a sensor that sees no wall reads this value.
const SensorRange = 300.0

// GameMode enumerates the tournament rounds.
type GameMode int

const (
	ModeScramble  GameMode = 1
	ModeLabyrinth GameMode = 2
	ModeDuel      GameMode = 3
)

func (m GameMode) String() string {
	switch m {
	case ModeScramble:
		return "scramble"
	case ModeLabyrinth:
		return "labyrinth"
	case ModeDuel:
		return "duel"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Tank is the bot's own tank.
type Tank struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
	Health int     `json:"health"`
	Ammo   int     `json:"ammo"`
	Coins  int     `json:"coins"`
}

func (t Tank) Pos() r2.Vec { return r2.Vec{X: t.X, Y: t.Y} }

type Enemy struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	ID int     `json:"id"`
}

func (e Enemy) Pos() r2.Vec { return r2.Vec{X: e.X, Y: e.Y} }

type Coin struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (c Coin) Pos() r2.Vec { return r2.Vec{X: c.X, Y: c.Y} }

// Wall is an axis-aligned rectangle anchored at its top-left corner.
type Wall struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bullet is an enemy projectile.
type Bullet struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

func (b Bullet) Pos() r2.Vec      { return r2.Vec{X: b.X, Y: b.Y} }
func (b Bullet) Velocity() r2.Vec { return r2.Vec{X: b.VX, Y: b.VY} }

// Sensors are whisker distances to the nearest wall at 0, -30 and +30 degrees
// from the tank's facing.
type Sensors struct {
	Front float64 `json:"front"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Juggernaut is the duel-round hazard.
type Juggernaut struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (j Juggernaut) Pos() r2.Vec { return r2.Vec{X: j.X, Y: j.Y} }

// Observation is the per-frame snapshot. Bots treat it as read-only.
type Observation struct {
	Self       Tank        `json:"me"`
	Enemies    []Enemy     `json:"enemies"`
	Coins      []Coin      `json:"coins"`
	Walls      []Wall      `json:"walls"`
	Bullets    []Bullet    `json:"bullets"`
	Sensors    Sensors     `json:"sensors"`
	Mode       GameMode    `json:"game_mode"`
	TimeLeft   float64     `json:"time_left"`
	Juggernaut *Juggernaut `json:"juggernaut,omitempty"`
}

// DecodeObservation parses the engine's context dictionary. Sensors missing
// from the payload read as SensorRange; everything else absent is zero or nil.
func DecodeObservation(data []byte) (Observation, error) {
	obs := Observation{
		Sensors: Sensors{Front: SensorRange, Left: SensorRange, Right: SensorRange},
	}
	if err := json.Unmarshal(data, &obs); err != nil {
		return Observation{}, fmt.Errorf("decode observation: %w", err)
	}
	return obs, nil
}

// Clone returns a deep copy, so a strategy that writes to its input cannot
// reach the caller's snapshot.
func (o Observation) Clone() Observation {
	c := o
	c.Enemies = append([]Enemy(nil), o.Enemies...)
	c.Coins = append([]Coin(nil), o.Coins...)
	c.Walls = append([]Wall(nil), o.Walls...)
	c.Bullets = append([]Bullet(nil), o.Bullets...)
	if o.Juggernaut != nil {
		j := *o.Juggernaut
		c.Juggernaut = &j
	}
	return c
}
