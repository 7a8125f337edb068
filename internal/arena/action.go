package arena

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrUnknownAction is returned when decoding an action name the engine does
// not understand.
var ErrUnknownAction = errors.New("unknown action")

// Kind tags an Action.
type Kind uint8

const (
	KindStop Kind = iota
	KindMove
	KindShoot
	KindMoveAndShoot
)

var kindNames = map[Kind]string{
	KindStop:         "STOP",
	KindMove:         "MOVE",
	KindShoot:        "SHOOT",
	KindMoveAndShoot: "MOVE_AND_SHOOT",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND(%d)", uint8(k))
}

// ParseKind maps a wire name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindStop, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Action is the single instruction a bot returns for a frame. Direction is
// only meaningful for moves and Angle only for shots.
type Action struct {
	Kind      Kind
	Direction r2.Vec
	Angle     float64
}

// Move heads in direction (dx, dy). The engine normalises it.
func Move(dx, dy float64) Action {
	return Action{Kind: KindMove, Direction: r2.Vec{X: dx, Y: dy}}
}

func MoveVec(v r2.Vec) Action {
	return Action{Kind: KindMove, Direction: v}
}

// Shoot fires at an absolute angle in degrees.
func Shoot(angle float64) Action {
	return Action{Kind: KindShoot, Angle: angle}
}

func MoveAndShoot(v r2.Vec, angle float64) Action {
	return Action{Kind: KindMoveAndShoot, Direction: v, Angle: angle}
}

func Stop() Action {
	return Action{Kind: KindStop}
}

// Tuple returns the (name, parameter) pair in the engine's calling convention:
// MOVE takes [dx, dy], SHOOT an angle, MOVE_AND_SHOOT [[dx, dy], angle] and
// STOP nil.
func (a Action) Tuple() (string, any) {
	switch a.Kind {
	case KindMove:
		return a.Kind.String(), [2]float64{a.Direction.X, a.Direction.Y}
	case KindShoot:
		return a.Kind.String(), a.Angle
	case KindMoveAndShoot:
		return a.Kind.String(), [2]any{[2]float64{a.Direction.X, a.Direction.Y}, a.Angle}
	default:
		return KindStop.String(), nil
	}
}

func (a Action) String() string {
	switch a.Kind {
	case KindMove:
		return fmt.Sprintf("MOVE(%.3f, %.3f)", a.Direction.X, a.Direction.Y)
	case KindShoot:
		return fmt.Sprintf("SHOOT(%.2f)", a.Angle)
	case KindMoveAndShoot:
		return fmt.Sprintf("MOVE_AND_SHOOT(%.3f, %.3f; %.2f)", a.Direction.X, a.Direction.Y, a.Angle)
	default:
		return a.Kind.String()
	}
}

type wireAction struct {
	Action string   `json:"action"`
	DX     *float64 `json:"dx,omitempty"`
	DY     *float64 `json:"dy,omitempty"`
	Angle  *float64 `json:"angle,omitempty"`
}

// MarshalJSON writes the flat wire form, e.g. {"action":"SHOOT","angle":90}.
func (a Action) MarshalJSON() ([]byte, error) {
	w := wireAction{Action: a.Kind.String()}
	if a.Kind == KindMove || a.Kind == KindMoveAndShoot {
		dx, dy := a.Direction.X, a.Direction.Y
		w.DX, w.DY = &dx, &dy
	}
	if a.Kind == KindShoot || a.Kind == KindMoveAndShoot {
		angle := a.Angle
		w.Angle = &angle
	}
	return json.Marshal(w)
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := ParseKind(w.Action)
	if err != nil {
		return err
	}
	*a = Action{Kind: kind}
	if w.DX != nil {
		a.Direction.X = *w.DX
	}
	if w.DY != nil {
		a.Direction.Y = *w.DY
	}
	if w.Angle != nil {
		a.Angle = *w.Angle
	}
	return nil
}
