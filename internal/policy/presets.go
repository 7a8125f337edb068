package policy

import (
	"errors"
	"fmt"
)

const (
	PresetSmart    = "smart"
	PresetTemplate = "template"
)

var ErrUnknownPreset = errors.New("unknown preset")

// SmartOptions is the default bot: dot-product threat test, three engagement
// zones, tight aim, contests coins and patrols the centre in the labyrinth.
func SmartOptions() Options {
	return Options{
		Threat:      ApproachVector{Radius: DefaultApproachRadius},
		Engagement:  DefaultZones(),
		AimSpread:   3,
		CoinContest: true,
		Labyrinth:   LabyrinthCenter,
	}
}

// TemplateOptions is the starter bot handed to new players.
func TemplateOptions() Options {
	return Options{
		Threat:      ClosingDistance{Radius: DefaultClosingRadius, Horizon: ClosingHorizon},
		Engagement:  DefaultOrbit(),
		AimSpread:   5,
		CoinContest: false,
		Labyrinth:   LabyrinthDirect,
	}
}

// PresetOptions returns the options of a named preset.
func PresetOptions(name string) (Options, error) {
	switch name {
	case PresetSmart:
		return SmartOptions(), nil
	case PresetTemplate:
		return TemplateOptions(), nil
	default:
		return Options{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
}

func Smart() *Bot { return New(PresetSmart, SmartOptions()) }

func Template() *Bot { return New(PresetTemplate, TemplateOptions()) }
