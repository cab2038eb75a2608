package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrTraceNotFound is returned when a trace file does not exist.
// Use errors.Is(err, ErrTraceNotFound) to check for this error.
var ErrTraceNotFound = errors.New("store: trace not found")

// TraceNotFoundError reports the missing trace path.
type TraceNotFoundError struct {
	Path string
}

func (e *TraceNotFoundError) Error() string {
	return fmt.Sprintf("trace not found: %s", e.Path)
}

func (e *TraceNotFoundError) Is(target error) bool {
	return target == ErrTraceNotFound
}

// TraceEntry is one verified point of a sweep.
// Each entry is serialized as a JSON line.
type TraceEntry struct {
	// RunID groups the entries written by one sweep
	RunID string `json:"run_id"`

	Method string `json:"method"`

	// N is the iteration count
	N int `json:"n"`

	// WorstCase is the verified worst-case value
	WorstCase float64 `json:"worst_case"`

	// Theoretical is the closed-form bound, present when HasTheory is set
	Theoretical float64 `json:"theoretical,omitempty"`
	HasTheory   bool    `json:"has_theory"`

	// L is the class constant the sweep ran with
	L float64 `json:"L"`

	Timestamp time.Time `json:"timestamp"`
}

// TraceWriter writes trace entries to a JSONL file.
// It uses buffered I/O and is safe for concurrent use.
type TraceWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	path   string
}

// NewTraceWriter creates a trace writer at path, creating parent
// directories. If append is true, new entries are appended to an existing
// file.
func NewTraceWriter(path string, append bool) (*TraceWriter, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}

	var file *os.File
	var err error
	if append {
		file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	} else {
		file, err = os.Create(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	return &TraceWriter{
		file:   file,
		writer: bufio.NewWriterSize(file, 64*1024),
		path:   path,
	}, nil
}

// Write appends a trace entry. The entry is buffered until Flush or Close.
func (tw *TraceWriter) Write(entry TraceEntry) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}
	if _, err := tw.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write trace entry: %w", err)
	}
	if err := tw.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	return nil
}

// Flush writes buffered entries and syncs the file.
func (tw *TraceWriter) Flush() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace writer: %w", err)
	}
	if err := tw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync trace file: %w", err)
	}
	return nil
}

// Close flushes buffered data and closes the trace file.
func (tw *TraceWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Flush(); err != nil {
		tw.file.Close()
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := tw.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the trace file.
func (tw *TraceWriter) Path() string {
	return tw.path
}

// TraceReader reads trace entries from a JSONL file.
type TraceReader struct {
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

// NewTraceReader opens the trace at path.
func NewTraceReader(path string) (*TraceReader, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &TraceNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &TraceReader{file: file, scanner: scanner}, nil
}

// Read returns the next entry, skipping blank lines.
// Returns io.EOF when no more entries are available.
func (tr *TraceReader) Read() (*TraceEntry, error) {
	for tr.scanner.Scan() {
		tr.line++
		line := tr.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry TraceEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace entry on line %d: %w", tr.line, err)
		}
		return &entry, nil
	}
	if err := tr.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan trace line: %w", err)
	}
	return nil, io.EOF
}

// ReadAll reads all remaining trace entries.
func (tr *TraceReader) ReadAll() ([]TraceEntry, error) {
	var entries []TraceEntry
	for {
		entry, err := tr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

// Close closes the trace reader.
func (tr *TraceReader) Close() error {
	if err := tr.file.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}
	return nil
}

// LatestRun returns the entries of the last run recorded in entries, in
// file order.
func LatestRun(entries []TraceEntry) []TraceEntry {
	if len(entries) == 0 {
		return nil
	}
	id := entries[len(entries)-1].RunID
	var out []TraceEntry
	for _, e := range entries {
		if e.RunID == id {
			out = append(out, e)
		}
	}
	return out
}
