package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cartridge/gitwars/internal/arena"
	"github.com/cartridge/gitwars/internal/harness"
)

var decideOpts struct {
	input string
	tank  string
	frame int64
}

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Decide one frame",
	Long: `Reads one observation as JSON (stdin by default) and prints the action
the bot takes, e.g. {"action":"MOVE","dx":1,"dy":0}.`,
	Args: cobra.NoArgs,
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().StringVarP(&decideOpts.input, "input", "i", "-", "Observation file, - for stdin")
	decideCmd.Flags().StringVar(&decideOpts.tank, "tank", "me", "Tank name used to derive the frame seed")
	decideCmd.Flags().Int64Var(&decideOpts.frame, "frame", 0, "Frame number used to derive the frame seed")
}

func runDecide(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd.InOrStdin(), decideOpts.input)
	if err != nil {
		return err
	}
	obs, err := arena.DecodeObservation(data)
	if err != nil {
		return err
	}

	bot, err := cfg.Bot()
	if err != nil {
		return err
	}
	runner := harness.New(bot, cfg.HarnessOptions(""), logger)

	res := runner.Step(cmd.Context(), decideOpts.tank, obs, decideOpts.frame)
	logger.Debug().
		Str("mode", obs.Mode.String()).
		Str("rule", res.Rule).
		Str("outcome", res.Outcome.String()).
		Dur("latency", res.Latency).
		Msg("Decided")
	if res.Outcome.Frozen() {
		logger.Warn().Err(res.Err).Msg("Tank frozen for this frame")
	}

	out, err := json.Marshal(res.Action)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
