// Package progress follows the server-sent progress stream of a generation
// request.
package progress

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tbxark/travelpilot/types"
)

const maxFrameSize = 1024 * 1024

// Decoder reads text/event-stream frames and decodes the data of each frame
// as one ProgressEvent. Frames that do not decode are skipped.
type Decoder struct {
	scanner *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next event, or io.EOF once the stream ends cleanly.
func (d *Decoder) Next() (types.ProgressEvent, error) {
	for {
		data, ok := d.nextFrame()
		if !ok {
			if err := d.scanner.Err(); err != nil {
				return types.ProgressEvent{}, err
			}
			return types.ProgressEvent{}, io.EOF
		}
		ev, ok := decodeEvent(data)
		if ok {
			return ev, nil
		}
	}
}

// nextFrame collects the data lines of one frame. A frame ends at a blank
// line or at the end of the stream.
func (d *Decoder) nextFrame() (string, bool) {
	var lines []string
	for d.scanner.Scan() {
		line := strings.TrimRight(d.scanner.Text(), "\r")
		if line == "" {
			if len(lines) > 0 {
				return strings.Join(lines, "\n"), true
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		if field == "data" {
			lines = append(lines, value)
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n"), true
	}
	return "", false
}

func decodeEvent(data string) (types.ProgressEvent, bool) {
	var ev types.ProgressEvent
	if err := sonic.UnmarshalString(data, &ev); err != nil {
		slog.Warn("Dropping malformed progress frame", "data", data, "error", err)
		return ev, false
	}
	if !ev.Type.Valid() {
		slog.Debug("Dropping progress frame of unknown type", "type", ev.Type)
		return ev, false
	}
	return ev, true
}
