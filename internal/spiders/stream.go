package spiders

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jonesrussell/tool-ingestor/internal/models"
)

// ErrMalformedRecord marks a lead line that does not parse. The pipeline
// counts it as a per-record failure and moves on; only stream-level I/O
// errors are fatal to a job.
var ErrMalformedRecord = errors.New("malformed lead record")

// maxLineBytes bounds a single lead line. Descriptions are short; a line
// past this size is malformed input, not data.
const maxLineBytes = 1 << 20

// LeadStream reads raw records from a spider's JSONL output: a lazy,
// finite, non-restartable sequence.
type LeadStream struct {
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

// OpenLeadStream opens a spider's lead file for reading.
func OpenLeadStream(path string) (*LeadStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lead file: %w", err)
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	return &LeadStream{
		file:    f,
		scanner: scanner,
	}, nil
}

// Next returns the next raw record. It returns io.EOF when the stream is
// exhausted, ErrMalformedRecord (wrapped, with the line number) for an
// unparsable line, and any other error for a fatal stream failure.
func (s *LeadStream) Next() (models.RawRecord, error) {
	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}

		var fields map[string]any
		if err := json.Unmarshal([]byte(text), &fields); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, s.line, err)
		}
		return flatten(fields), nil
	}

	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read lead stream: %w", err)
	}
	return nil, io.EOF
}

// Close releases the underlying file.
func (s *LeadStream) Close() error {
	return s.file.Close()
}

// flatten reduces a decoded JSON object to the flat string mapping the
// normalizer expects. Arrays (categories, tags) join with "|", which the
// normalizer splits back out.
func flatten(fields map[string]any) models.RawRecord {
	record := make(models.RawRecord, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			record[key] = v
		case float64:
			record[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			record[key] = strconv.FormatBool(v)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					parts = append(parts, s)
				}
			}
			record[key] = strings.Join(parts, "|")
		}
	}
	return record
}
