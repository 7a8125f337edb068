package policy

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cartridge/gitwars/internal/arena"
	"github.com/cartridge/gitwars/internal/geom"
)

var pass = arena.Action{}

func obstacleReflex(f *frame) (arena.Action, bool) {
	s := f.obs.Sensors
	facing := f.obs.Self.Angle
	switch {
	case s.Front < ReverseDist:
		return arena.MoveVec(geom.FromAngle(facing + 180)), true
	case s.Front < AvoidDist:
		if s.Left > s.Right {
			return arena.MoveVec(geom.FromAngle(facing - TurnAngle)), true
		}
		return arena.MoveVec(geom.FromAngle(facing + TurnAngle)), true
	case s.Left < WhiskerDist:
		return arena.MoveVec(geom.FromAngle(facing + NudgeAngle)), true
	case s.Right < WhiskerDist:
		return arena.MoveVec(geom.FromAngle(facing - NudgeAngle)), true
	}
	return pass, false
}

// duel sums independent movement terms and aims separately, so the tank can
// dodge and fire in the same frame.
func duel(f *frame) (arena.Action, bool) {
	if f.obs.Mode != arena.ModeDuel {
		return pass, false
	}

	var move r2.Vec
	if j := f.obs.Juggernaut; j != nil {
		d := geom.Distance(f.origin, j.Pos())
		if d < JuggernautFear {
			strength := (JuggernautFear - d) / JuggernautFear
			flee := geom.Normalize(r2.Sub(f.origin, j.Pos()), 1)
			move = r2.Add(move, r2.Scale(strength*JuggernautBias, flee))
		}
	}

	for _, b := range f.obs.Bullets {
		if f.opts.Threat.Dangerous(f.origin, b) {
			move = r2.Add(move, dodge(b))
		}
	}

	idx, dist := geom.Nearest(f.origin, f.obs.Enemies, arena.Enemy.Pos)
	if idx >= 0 && r2.Norm(move) < BusyDodgeMag {
		enemy := f.obs.Enemies[idx].Pos()
		move = r2.Add(move, f.opts.Engagement.Engage(f.origin, enemy, dist, f.rng))
	}

	if r2.Norm(move) < IdleMag {
		// drift toward the anchor, rotating with the clock so we never park
		toAnchor := r2.Sub(WanderAnchor, f.origin)
		theta := math.Atan2(toAnchor.Y, toAnchor.X) + f.obs.TimeLeft
		move = r2.Add(move, r2.Vec{X: math.Cos(theta) * IdleWeight, Y: math.Sin(theta) * IdleWeight})
	}

	if mag := r2.Norm(move); mag > 0 {
		move = r2.Scale(1/mag, move)
	}

	if idx >= 0 && f.obs.Self.Ammo > 0 {
		aim := geom.AngleTo(f.origin, f.obs.Enemies[idx].Pos())
		aim += uniform(f.rng, -f.opts.AimSpread, f.opts.AimSpread)
		return arena.MoveAndShoot(move, aim), true
	}
	return arena.MoveVec(move), true
}

func dodgeBullet(f *frame) (arena.Action, bool) {
	for _, b := range f.obs.Bullets {
		if f.opts.Threat.Dangerous(f.origin, b) {
			return arena.MoveVec(dodge(b)), true
		}
	}
	return pass, false
}

func scramble(f *frame) (arena.Action, bool) {
	if f.obs.Mode != arena.ModeScramble || len(f.obs.Coins) == 0 {
		return pass, false
	}
	idx, coinDist := geom.Nearest(f.origin, f.obs.Coins, arena.Coin.Pos)
	coin := f.obs.Coins[idx].Pos()

	if f.opts.CoinContest && f.obs.Self.Ammo > ContestAmmo {
		for _, e := range f.obs.Enemies {
			if geom.Distance(e.Pos(), coin) < coinDist && geom.Distance(f.origin, e.Pos()) < ContestRange {
				return arena.Shoot(geom.AngleTo(f.origin, e.Pos())), true
			}
		}
	}

	// raw offset, the engine normalises
	return arena.MoveVec(r2.Sub(coin, f.origin)), true
}

func labyrinth(f *frame) (arena.Action, bool) {
	if f.obs.Mode != arena.ModeLabyrinth {
		return pass, false
	}
	if f.opts.Labyrinth == LabyrinthDirect {
		return labyrinthDirect(f)
	}
	return labyrinthCenter(f)
}

func labyrinthCenter(f *frame) (arena.Action, bool) {
	if len(f.obs.Enemies) == 0 {
		return arena.MoveVec(r2.Sub(ArenaCenter, f.origin)), true
	}
	idx, dist := geom.Nearest(f.origin, f.obs.Enemies, arena.Enemy.Pos)
	enemy := f.obs.Enemies[idx].Pos()
	bearing := geom.AngleTo(f.origin, enemy)
	armed := f.obs.Self.Ammo > 0

	switch {
	case dist < LabyrinthClose:
		if armed {
			return arena.Shoot(bearing), true
		}
	case dist < LabyrinthMid:
		if armed {
			return arena.Shoot(bearing + uniform(f.rng, -LabyrinthSpread, LabyrinthSpread)), true
		}
	default:
		return arena.MoveVec(r2.Sub(enemy, f.origin)), true
	}
	return pass, false
}

func labyrinthDirect(f *frame) (arena.Action, bool) {
	if len(f.obs.Enemies) == 0 || f.obs.Self.Ammo <= 0 {
		return pass, false
	}
	idx, dist := geom.Nearest(f.origin, f.obs.Enemies, arena.Enemy.Pos)
	enemy := f.obs.Enemies[idx].Pos()
	if dist < DirectShotRange {
		return arena.Shoot(geom.AngleTo(f.origin, enemy)), true
	}
	return arena.MoveVec(r2.Sub(enemy, f.origin)), true
}

func wander(f *frame) (arena.Action, bool) {
	return arena.MoveVec(geom.FromAngle(uniform(f.rng, 0, 360))), true
}
