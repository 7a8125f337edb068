package policy

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cartridge/gitwars/internal/geom"
)

// EngagementPolicy produces the duel movement contribution toward or around
// the targeted enemy. dist is the distance from self to enemy.
type EngagementPolicy interface {
	Name() string
	Engage(self, enemy r2.Vec, dist float64, rng Rand) r2.Vec
}

// Orbit chases until DesiredRange, then circles the target.
type Orbit struct {
	DesiredRange float64
	Weight       float64
}

func DefaultOrbit() Orbit {
	return Orbit{DesiredRange: 200, Weight: 0.6}
}

func (Orbit) Name() string { return "orbit" }

func (o Orbit) Engage(self, enemy r2.Vec, dist float64, _ Rand) r2.Vec {
	chase := geom.Normalize(r2.Sub(enemy, self), 1)
	if dist > o.DesiredRange {
		return r2.Scale(o.Weight, chase)
	}
	return r2.Scale(o.Weight, geom.Perpendicular(chase))
}

// Zones retreats inside Close, strafes to a random side inside Mid and
// chases beyond it.
type Zones struct {
	Close         float64
	Mid           float64
	RetreatWeight float64
	StrafeWeight  float64
	ChaseWeight   float64
}

func DefaultZones() Zones {
	return Zones{
		Close:         80,
		Mid:           250,
		RetreatWeight: 1.0,
		StrafeWeight:  0.5,
		ChaseWeight:   0.5,
	}
}

func (Zones) Name() string { return "zones" }

func (z Zones) Engage(self, enemy r2.Vec, dist float64, rng Rand) r2.Vec {
	bearing := geom.AngleTo(self, enemy)
	switch {
	case dist < z.Close:
		return r2.Scale(z.RetreatWeight, geom.FromAngle(bearing+180))
	case dist < z.Mid:
		side := -1.0
		if rng.Float64() > 0.5 {
			side = 1.0
		}
		return r2.Scale(z.StrafeWeight, geom.FromAngle(bearing+TurnAngle*side))
	default:
		return r2.Scale(z.ChaseWeight, geom.Normalize(r2.Sub(enemy, self), 1))
	}
}
