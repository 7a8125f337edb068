package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartridge/gitwars/internal/arena"
	"github.com/cartridge/gitwars/internal/framelog"
)

func TestReadTurns(t *testing.T) {
	input := strings.Join([]string{
		`{"tank":"red","frame":1,"me":{"x":1,"y":1},"game_mode":1}`,
		`{"tank":"blue","frame":0,"me":{"x":2,"y":2},"game_mode":1}`,
		``,
		`{"tank":"red","frame":0,"me":{"x":3,"y":3},"game_mode":1}`,
		`{"me":{"x":4,"y":4},"game_mode":3}`,
		`{"me":{"x":5,"y":5},"game_mode":3}`,
		`{"tank":"blue","me":{"x":6,"y":6},"game_mode":1}`,
	}, "\n")

	turns, err := readTurns(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, turns, 2)

	assert.Equal(t, int64(0), turns[0].Frame)
	require.Len(t, turns[0].Entries, 3)
	assert.Equal(t, "blue", turns[0].Entries[0].Tank)
	assert.Equal(t, "red", turns[0].Entries[1].Tank)
	assert.Equal(t, defaultTank, turns[0].Entries[2].Tank)
	assert.Equal(t, arena.ModeDuel, turns[0].Entries[2].Observation.Mode)
	assert.Equal(t, arena.SensorRange, turns[0].Entries[2].Observation.Sensors.Front)

	assert.Equal(t, int64(1), turns[1].Frame)
	var tanks []string
	for _, e := range turns[1].Entries {
		tanks = append(tanks, e.Tank)
	}
	assert.Equal(t, []string{"red", defaultTank, "blue"}, tanks)
}

func TestReadTurnsBadLine(t *testing.T) {
	_, err := readTurns(strings.NewReader("{\"me\":{}}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn", "json")
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["message"])

	_, err = newLogger(&buf, "loud", "json")
	assert.Error(t, err)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDecideCommand(t *testing.T) {
	out, err := execute(t, `{"me":{"x":100,"y":100,"ammo":3},"game_mode":2}`, "decide", "--log-format", "json")
	require.NoError(t, err)

	var action arena.Action
	require.NoError(t, json.Unmarshal([]byte(out), &action))
	assert.Equal(t, arena.Move(540, 260), action)
}

func TestRecordAndReplay(t *testing.T) {
	dir := t.TempDir()
	obsPath := filepath.Join(dir, "obs.jsonl")
	logPath := filepath.Join(dir, "frames.msgpack")

	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines,
			`{"tank":"red","me":{"x":300,"y":300,"ammo":5},"enemies":[{"x":420,"y":300}],"game_mode":2}`,
			`{"tank":"blue","me":{"x":420,"y":300,"ammo":5},"enemies":[{"x":300,"y":300}],"game_mode":3,"time_left":30}`,
		)
	}
	require.NoError(t, os.WriteFile(obsPath, []byte(strings.Join(lines, "\n")), 0o644))

	_, err := execute(t, "", "record", "--input", obsPath, "--out", logPath, "--match-id", "m1", "--log-format", "json")
	require.NoError(t, err)

	f, err := os.Open(logPath)
	require.NoError(t, err)
	frames, err := framelog.Decode(f)
	f.Close()
	require.NoError(t, err)
	require.Len(t, frames, 20)
	assert.Equal(t, "m1", frames[0].MatchID)

	_, err = execute(t, "", "replay", "--log", logPath, "--log-format", "json")
	require.NoError(t, err)

	_, err = execute(t, "", "replay", "--log", logPath, "--sample", "5", "--tank", "red", "--log-format", "json")
	require.NoError(t, err)

	// a different bot must not reproduce the jittered shots
	_, err = execute(t, "", "replay", "--log", logPath, "--preset", "template", "--log-format", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not replay")
}
