package devicelink

import (
	"bytes"
	"strings"
)

// defaultMaxLineBytes bounds the reassembly buffer when no limit is configured.
const defaultMaxLineBytes = 4096

// Reassembler turns an arbitrarily fragmented byte stream into complete,
// trimmed logical lines. It owns the partial-line buffer between calls.
//
// Reassembler is not safe for concurrent use; each connection owns one.
type Reassembler struct {
	buf []byte
	max int
}

// NewReassembler creates a Reassembler with the given line length cap.
// A cap of zero or less falls back to defaultMaxLineBytes.
func NewReassembler(maxLineBytes int) *Reassembler {
	if maxLineBytes <= 0 {
		maxLineBytes = defaultMaxLineBytes
	}
	return &Reassembler{max: maxLineBytes}
}

// Feed appends a chunk to the buffer and extracts every complete line.
//
// Lines are split on \n, trimmed of surrounding whitespace (including \r),
// and empty lines are skipped. Any unterminated remainder is retained for
// the next call, so the yielded sequence is independent of how the stream
// was fragmented into chunks.
//
// Returns ErrLineTooLong when the unterminated remainder exceeds the cap;
// the buffer is discarded and the caller should drop the connection.
// Lines extracted before the overflow are still returned.
func (r *Reassembler) Feed(chunk []byte) ([]string, error) {
	r.buf = append(r.buf, chunk...)

	var lines []string
	for {
		idx := bytes.IndexByte(r.buf, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(string(r.buf[:idx]))
		r.buf = r.buf[idx+1:]
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(r.buf) > r.max {
		r.buf = nil
		return lines, ErrLineTooLong
	}

	return lines, nil
}

// Pending returns the number of buffered bytes awaiting a newline.
func (r *Reassembler) Pending() int {
	return len(r.buf)
}

// Reset discards any buffered partial line.
func (r *Reassembler) Reset() {
	r.buf = nil
}
