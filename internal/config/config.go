package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartridge/gitwars/internal/harness"
	"github.com/cartridge/gitwars/internal/policy"
)

// Config holds the bot and harness configuration. Zero values of the policy
// overrides mean "use the preset".
type Config struct {
	// Policy selection
	Preset       string  `mapstructure:"preset"`
	Threat       string  `mapstructure:"threat"`
	DangerRadius float64 `mapstructure:"danger_radius"`
	Engagement   string  `mapstructure:"engagement"`
	AimSpread    float64 `mapstructure:"aim_spread"` // negative keeps the preset spread
	CoinContest  string  `mapstructure:"coin_contest"`
	Labyrinth    string  `mapstructure:"labyrinth"`

	// Harness
	Seed    int64         `mapstructure:"seed"`
	Budget  time.Duration `mapstructure:"budget"`
	Workers int           `mapstructure:"workers"`

	// Frame log and spectator stream
	MaxFrames   int    `mapstructure:"max_frames"`
	NATSURL     string `mapstructure:"nats_url"` // empty disables streaming
	NATSSubject string `mapstructure:"nats_subject"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Default returns a config with sensible defaults
func Default() *Config {
	return &Config{
		Preset:      policy.PresetSmart,
		AimSpread:   -1,
		Seed:        1,
		Budget:      100 * time.Millisecond,
		Workers:     4,
		MaxFrames:   100000,
		NATSSubject: "gitwars.frames",
		LogLevel:    "info",
		LogFormat:   "console",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := policy.PresetOptions(c.Preset); err != nil {
		return err
	}
	switch c.Threat {
	case "", "approach", "closing":
	default:
		return fmt.Errorf("threat must be approach or closing, got %q", c.Threat)
	}
	switch c.Engagement {
	case "", "zones", "orbit":
	default:
		return fmt.Errorf("engagement must be zones or orbit, got %q", c.Engagement)
	}
	switch c.CoinContest {
	case "", "on", "off":
	default:
		return fmt.Errorf("coin_contest must be on or off, got %q", c.CoinContest)
	}
	switch policy.LabyrinthStyle(c.Labyrinth) {
	case "", policy.LabyrinthCenter, policy.LabyrinthDirect:
	default:
		return fmt.Errorf("labyrinth must be center or direct, got %q", c.Labyrinth)
	}
	if c.DangerRadius < 0 {
		return fmt.Errorf("danger_radius must not be negative")
	}
	if c.Budget <= 0 {
		return fmt.Errorf("budget must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.MaxFrames < 0 {
		return fmt.Errorf("max_frames must not be negative")
	}
	if c.NATSURL != "" && c.NATSSubject == "" {
		return fmt.Errorf("nats_subject is required when nats_url is set")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// BotOptions resolves the preset and applies the explicit overrides.
func (c *Config) BotOptions() (policy.Options, error) {
	opts, err := policy.PresetOptions(c.Preset)
	if err != nil {
		return policy.Options{}, err
	}

	switch c.Threat {
	case "approach":
		opts.Threat = policy.ApproachVector{Radius: policy.DefaultApproachRadius}
	case "closing":
		opts.Threat = policy.ClosingDistance{Radius: policy.DefaultClosingRadius, Horizon: policy.ClosingHorizon}
	}
	if c.DangerRadius > 0 {
		switch t := opts.Threat.(type) {
		case policy.ApproachVector:
			t.Radius = c.DangerRadius
			opts.Threat = t
		case policy.ClosingDistance:
			t.Radius = c.DangerRadius
			opts.Threat = t
		}
	}

	switch c.Engagement {
	case "zones":
		opts.Engagement = policy.DefaultZones()
	case "orbit":
		opts.Engagement = policy.DefaultOrbit()
	}
	if c.AimSpread >= 0 {
		opts.AimSpread = c.AimSpread
	}
	switch c.CoinContest {
	case "on":
		opts.CoinContest = true
	case "off":
		opts.CoinContest = false
	}
	if c.Labyrinth != "" {
		opts.Labyrinth = policy.LabyrinthStyle(c.Labyrinth)
	}
	return opts, nil
}

// Bot builds the configured policy.
func (c *Config) Bot() (*policy.Bot, error) {
	opts, err := c.BotOptions()
	if err != nil {
		return nil, err
	}
	return policy.New(c.Preset, opts), nil
}

// HarnessOptions returns the runner settings for one match.
func (c *Config) HarnessOptions(matchID string) harness.Options {
	return harness.Options{
		MatchID: matchID,
		Seed:    c.Seed,
		Budget:  c.Budget,
		Workers: c.Workers,
	}
}
