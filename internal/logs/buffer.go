// Package logs keeps a bounded in-memory tail of the process log so the
// dashboard can fetch recent lines without touching the filesystem.
package logs

import (
	"bytes"
	"strings"
	"sync"
)

// DefaultCapacity is the number of log lines retained.
const DefaultCapacity = 1000

// Buffer is a fixed-capacity ring of log lines. It implements
// zapcore.WriteSyncer so it can be teed into the logger core.
type Buffer struct {
	mu    sync.Mutex
	lines []string
	next  int
	full  bool

	// partial accumulates bytes of an unterminated line across writes
	partial bytes.Buffer
}

// NewBuffer creates a ring buffer holding up to capacity lines.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		lines: make([]string, capacity),
	}
}

// Write splits p into lines and appends them to the ring. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.partial.Write(p)
	for {
		data := b.partial.Bytes()
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimRight(string(data[:idx]), "\r")
		b.partial.Next(idx + 1)
		if line == "" {
			continue
		}
		b.lines[b.next] = line
		b.next = (b.next + 1) % len(b.lines)
		if b.next == 0 {
			b.full = true
		}
	}
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer.
func (b *Buffer) Sync() error {
	return nil
}

// Tail returns up to n of the most recent lines, oldest first.
func (b *Buffer) Tail(n int) []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := b.next
	if b.full {
		size = len(b.lines)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]string, 0, n)
	start := b.next - n
	if start < 0 {
		start += len(b.lines)
	}
	for i := 0; i < n; i++ {
		out = append(out, b.lines[(start+i)%len(b.lines)])
	}
	return out
}

// Len returns the number of lines currently held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.full {
		return len(b.lines)
	}
	return b.next
}
