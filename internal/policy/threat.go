package policy

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cartridge/gitwars/internal/arena"
	"github.com/cartridge/gitwars/internal/geom"
)

// ThreatPolicy decides whether a bullet endangers a tank at origin right now.
type ThreatPolicy interface {
	Name() string
	Dangerous(origin r2.Vec, b arena.Bullet) bool
}

// ClosingDistance projects the bullet Horizon ticks ahead and flags it when
// that brings it closer while it is already within 2*Radius.
type ClosingDistance struct {
	Radius  float64
	Horizon float64
}

func (ClosingDistance) Name() string { return "closing" }

func (c ClosingDistance) Dangerous(origin r2.Vec, b arena.Bullet) bool {
	now := geom.Distance(origin, b.Pos())
	future := r2.Add(b.Pos(), r2.Scale(c.Horizon, b.Velocity()))
	return geom.Distance(origin, future) < now && now < 2*c.Radius
}

// ApproachVector flags bullets within Radius whose velocity has a positive
// component toward origin.
type ApproachVector struct {
	Radius float64
}

func (ApproachVector) Name() string { return "approach" }

func (a ApproachVector) Dangerous(origin r2.Vec, b arena.Bullet) bool {
	if geom.Distance(origin, b.Pos()) > a.Radius {
		return false
	}
	return r2.Dot(r2.Sub(origin, b.Pos()), b.Velocity()) > 0
}

// dodge is the unit vector at the bullet's heading plus 90 degrees.
func dodge(b arena.Bullet) r2.Vec {
	return geom.FromAngle(geom.Heading(b.Velocity()) + TurnAngle)
}
