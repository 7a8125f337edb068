package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cartridge/gitwars/internal/config"
)

var (
	cfg        *config.Config
	configFile string
	logger     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gitwars",
	Short: "GitWars tank bot",
	Long: `Rule-based tank bot for the GitWars arena.

Each frame the engine hands the bot an observation of the arena and gets
back one action. The subcommands run that decision offline: a single
observation, a recorded stream, or a determinism check over a frame log.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	cfg = config.Default()
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&configFile, "config", "", "Config file (yaml, json or toml)")

	// Policy settings
	flags.StringVar(&cfg.Preset, "preset", cfg.Preset, "Bot preset (smart, template)")
	flags.StringVar(&cfg.Threat, "threat", cfg.Threat, "Bullet threat test override (approach, closing)")
	flags.Float64Var(&cfg.DangerRadius, "danger-radius", cfg.DangerRadius, "Bullet danger radius override (0 keeps the preset)")
	flags.StringVar(&cfg.Engagement, "engagement", cfg.Engagement, "Duel engagement override (zones, orbit)")
	flags.Float64Var(&cfg.AimSpread, "aim-spread", cfg.AimSpread, "Duel aim jitter in degrees (negative keeps the preset)")
	flags.StringVar(&cfg.CoinContest, "coin-contest", cfg.CoinContest, "Shoot enemies racing for our coin (on, off)")
	flags.StringVar(&cfg.Labyrinth, "labyrinth", cfg.Labyrinth, "Labyrinth behaviour override (center, direct)")

	// Harness settings
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Match seed")
	flags.DurationVar(&cfg.Budget, "budget", cfg.Budget, "Per-decision time budget")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Tanks evaluated in parallel")

	// Frame log
	flags.IntVar(&cfg.MaxFrames, "max-frames", cfg.MaxFrames, "Frames kept in memory while recording (0 for unlimited)")
	flags.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "Stream frame events to this NATS server")
	flags.StringVar(&cfg.NATSSubject, "nats-subject", cfg.NATSSubject, "NATS subject prefix for frame events")

	// Logging
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (console, json)")

	// Bind flags to viper for environment variable and config file support
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		viper.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	viper.SetEnvPrefix("GITWARS")
	viper.AutomaticEnv()

	rootCmd.AddCommand(decideCmd, recordCmd, replayCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
