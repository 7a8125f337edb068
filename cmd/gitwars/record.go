package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cartridge/gitwars/internal/events"
	"github.com/cartridge/gitwars/internal/framelog"
	"github.com/cartridge/gitwars/internal/harness"
)

var recordOpts struct {
	input   string
	out     string
	matchID string
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Play a recorded observation stream and write the frame log",
	Long: `Runs the bot over a JSON-lines observation stream, one observation per
line with optional "tank" and "frame" fields, and writes every decision to a
msgpack frame log that "gitwars replay" can verify.`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordOpts.input, "input", "i", "-", "Observation stream (JSON lines), - for stdin")
	recordCmd.Flags().StringVarP(&recordOpts.out, "out", "o", "", "Frame log to write")
	recordCmd.Flags().StringVar(&recordOpts.matchID, "match-id", "", "Match ID (random if empty)")
	recordCmd.MarkFlagRequired("out")
}

func runRecord(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd.InOrStdin(), recordOpts.input)
	if err != nil {
		return err
	}
	turns, err := readTurns(bytes.NewReader(data))
	if err != nil {
		return err
	}

	bot, err := cfg.Bot()
	if err != nil {
		return err
	}

	matchID := recordOpts.matchID
	if matchID == "" {
		matchID = uuid.New().String()
	}

	backend := framelog.NewMemoryBackend(uint64(cfg.MaxFrames))
	defer backend.Close()

	publishers := events.Multi{framelog.NewRecorder(backend), events.NewLogPublisher(logger)}
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			return fmt.Errorf("connect to nats at %s: %w", cfg.NATSURL, err)
		}
		defer nats.Close()
		publishers = append(publishers, nats)
	}

	runner := harness.New(bot, cfg.HarnessOptions(matchID), logger).WithPublisher(publishers)
	if err := runner.Run(cmd.Context(), turns); err != nil {
		return err
	}

	frames, err := backend.Match(cmd.Context(), matchID)
	if err != nil {
		return err
	}
	if err := writeFrames(recordOpts.out, frames); err != nil {
		return err
	}

	stats, err := backend.GetStats(cmd.Context(), matchID)
	if err != nil {
		return err
	}
	logger.Info().
		Str("match_id", matchID).
		Str("out", recordOpts.out).
		Uint64("frames", stats.TotalFrames).
		Uint64("frozen", stats.FramesByOutcome[events.OutcomeFrozenPanic]+stats.FramesByOutcome[events.OutcomeFrozenTimeout]).
		Msg("Frame log written")
	return nil
}

func writeFrames(path string, frames []*framelog.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := framelog.Encode(f, frames); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
