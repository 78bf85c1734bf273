package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxLineBytes bounds one encoded message.
const MaxLineBytes = 1 << 20

// ErrTooLong is returned for messages over MaxLineBytes.
var ErrTooLong = errors.New("message exceeds 1 MiB")

// Write encodes v as one JSON line.
func Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// Read decodes one JSON line from r into v.
func Read(r io.Reader, v any) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return ErrTooLong
			}
			return err
		}
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal(sc.Bytes(), v); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}
