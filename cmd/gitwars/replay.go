package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cartridge/gitwars/internal/framelog"
)

var replayOpts struct {
	log    string
	sample int
	tank   string
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Check that a frame log replays to the same actions",
	Long: `Re-decides every frame in a frame log with its recorded seed using the
configured bot, and fails if any action differs. Frozen frames are skipped.`,
	Args: cobra.NoArgs,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayOpts.log, "log", "l", "", "Frame log to verify")
	replayCmd.Flags().IntVar(&replayOpts.sample, "sample", 0, "Verify a random sample of this many frames (0 for all)")
	replayCmd.Flags().StringVar(&replayOpts.tank, "tank", "", "Only verify this tank")
	replayCmd.MarkFlagRequired("log")
}

func runReplay(cmd *cobra.Command, args []string) error {
	frames, err := readFrames(replayOpts.log)
	if err != nil {
		return err
	}

	frames, err = selectFrames(cmd.Context(), frames, replayOpts.sample, replayOpts.tank)
	if err != nil {
		return err
	}

	bot, err := cfg.Bot()
	if err != nil {
		return err
	}

	mismatches := framelog.Verify(bot, frames)
	for _, m := range mismatches {
		logger.Error().
			Str("match_id", m.Frame.MatchID).
			Str("tank", m.Frame.Tank).
			Int64("frame", m.Frame.Number).
			Str("recorded", m.Frame.Action.String()).
			Str("replayed", m.Got.String()).
			Str("rule", m.Rule).
			Msg("Replay mismatch")
	}

	logger.Info().
		Str("log", replayOpts.log).
		Str("policy", bot.Name()).
		Int("frames", len(frames)).
		Int("mismatches", len(mismatches)).
		Msg("Replay finished")

	if len(mismatches) > 0 {
		return fmt.Errorf("%d of %d frames did not replay", len(mismatches), len(frames))
	}
	return nil
}

func readFrames(path string) ([]*framelog.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	frames, err := framelog.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return frames, nil
}

// selectFrames narrows the log through a memory backend so sampling and tank
// filtering share its indexes.
func selectFrames(ctx context.Context, frames []*framelog.Frame, sample int, tank string) ([]*framelog.Frame, error) {
	if sample <= 0 && tank == "" {
		return frames, nil
	}

	backend := framelog.NewMemoryBackend(0)
	defer backend.Close()

	if _, err := backend.StoreBatch(ctx, frames); err != nil {
		return nil, err
	}
	return backend.Sample(ctx, &framelog.SampleConfig{Size: sample, Tank: tank})
}
