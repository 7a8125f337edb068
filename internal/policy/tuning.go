package policy

import "gonum.org/v1/gonum/spatial/r2"

// Obstacle reflex thresholds, in sensor units.
const (
	ReverseDist = 10.0
	AvoidDist   = 50.0
	WhiskerDist = 30.0
	NudgeAngle  = 45.0
	TurnAngle   = 90.0
)

// Duel vector weights.
const (
	JuggernautFear = 300.0
	JuggernautBias = 2.0 // flee term dominates everything else
	BusyDodgeMag   = 0.5 // skip engagement while dodging this hard
	IdleMag        = 0.1
	IdleWeight     = 0.5
)

const (
	ContestRange    = 200.0
	ContestAmmo     = 10 // contest a coin only with more ammo than this
	LabyrinthClose  = 80.0
	LabyrinthMid    = 250.0
	LabyrinthSpread = 5.0
	DirectShotRange = 200.0

	DefaultApproachRadius = 120.0
	DefaultClosingRadius  = 50.0
	ClosingHorizon        = 10.0
)

var (
	// ArenaCenter is where a Labyrinth bot heads when it sees nobody.
	ArenaCenter = r2.Vec{X: 640, Y: 360}
	// WanderAnchor biases the idle duel drift.
	WanderAnchor = r2.Vec{X: 400, Y: 300}
)
