package framelog

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Encode writes frames as a stream of msgpack values, one per frame.
func Encode(w io.Writer, frames []*Frame) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	for _, f := range frames {
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode frame %s: %w", f.ID, err)
		}
	}
	return nil
}

// Decode reads a stream written by Encode until EOF.
func Decode(r io.Reader) ([]*Frame, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")

	var frames []*Frame
	for {
		f := new(Frame)
		if err := dec.Decode(f); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return frames, fmt.Errorf("decode frame %d: %w", len(frames), err)
		}
		frames = append(frames, f)
	}
}
