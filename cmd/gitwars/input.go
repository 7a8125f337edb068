package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/cartridge/gitwars/internal/arena"
	"github.com/cartridge/gitwars/internal/harness"
)

// defaultTank names lines that carry no "tank" field.
const defaultTank = "me"

// lineHeader is the routing part of a recorded line; the rest of the line is
// the observation itself.
type lineHeader struct {
	Tank  string `json:"tank"`
	Frame *int64 `json:"frame"`
}

// readTurns parses a JSON-lines observation stream into turns ordered by
// frame. A line without "frame" follows the previous frame of the same tank.
func readTurns(r io.Reader) ([]harness.Turn, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	byFrame := make(map[int64]*harness.Turn)
	next := make(map[string]int64)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var hdr lineHeader
		if err := json.Unmarshal(line, &hdr); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		obs, err := arena.DecodeObservation(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		tank := hdr.Tank
		if tank == "" {
			tank = defaultTank
		}
		frame := next[tank]
		if hdr.Frame != nil {
			frame = *hdr.Frame
		}
		next[tank] = frame + 1

		turn, ok := byFrame[frame]
		if !ok {
			turn = &harness.Turn{Frame: frame}
			byFrame[frame] = turn
		}
		turn.Entries = append(turn.Entries, harness.Entry{Tank: tank, Observation: obs})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}

	turns := make([]harness.Turn, 0, len(byFrame))
	for _, t := range byFrame {
		turns = append(turns, *t)
	}
	sort.Slice(turns, func(i, j int) bool { return turns[i].Frame < turns[j].Frame })
	return turns, nil
}
