package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweeps", "trace.jsonl")

	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	entries := []TraceEntry{
		{RunID: "run-1", Method: "gd-decreasing", N: 1, WorstCase: 0.25, Theoretical: 0.25, HasTheory: true, L: 1, Timestamp: time.Now()},
		{RunID: "run-1", Method: "gd-decreasing", N: 2, WorstCase: 0.19, Theoretical: 0.19, HasTheory: true, L: 1, Timestamp: time.Now()},
		{RunID: "run-1", Method: "gd", N: 3, WorstCase: 0.5, L: 1, Timestamp: time.Now()},
	}
	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}
	if writer.Path() != path {
		t.Errorf("Expected path %s, got %s", path, writer.Path())
	}

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	readEntries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(readEntries) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(readEntries))
	}
	for i, entry := range readEntries {
		if entry.N != entries[i].N || entry.Method != entries[i].Method {
			t.Errorf("Entry %d: expected %s n=%d, got %s n=%d", i, entries[i].Method, entries[i].N, entry.Method, entry.N)
		}
		if entry.WorstCase != entries[i].WorstCase {
			t.Errorf("Entry %d: expected worst case %f, got %f", i, entries[i].WorstCase, entry.WorstCase)
		}
		if entry.HasTheory != entries[i].HasTheory {
			t.Errorf("Entry %d: expected has_theory %v, got %v", i, entries[i].HasTheory, entry.HasTheory)
		}
	}
}

func TestTraceWriter_Append(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	if err := writer.Write(TraceEntry{RunID: "a", N: 1, WorstCase: 1.0, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	writer, err = NewTraceWriter(path, true)
	if err != nil {
		t.Fatalf("Failed to create trace writer in append mode: %v", err)
	}
	if err := writer.Write(TraceEntry{RunID: "b", N: 2, WorstCase: 0.8, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	latest := LatestRun(entries)
	if len(latest) != 1 || latest[0].RunID != "b" {
		t.Errorf("Expected only run b, got %+v", latest)
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Write(TraceEntry{N: 0, WorstCase: 1.0, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	// Data should be on disk now (even without closing)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Trace file is empty after flush")
	}
}

func TestTraceReader_ReadIteratively(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := writer.Write(TraceEntry{N: i, WorstCase: 1.0 - float64(i)*0.1, Timestamp: time.Now()}); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	writer.Close()

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		entry, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read entry: %v", err)
		}
		if entry.N != count {
			t.Errorf("Entry %d: expected n %d, got %d", count, count, entry.N)
		}
		count++
	}
	if count != 5 {
		t.Errorf("Expected to read 5 entries, got %d", count)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err == nil {
		t.Fatal("Expected error for nonexistent trace file")
	}
	if !errors.Is(err, ErrTraceNotFound) {
		t.Errorf("Expected ErrTraceNotFound, got: %v", err)
	}
	var nf *TraceNotFoundError
	if !errors.As(err, &nf) || nf.Path == "" {
		t.Errorf("Expected TraceNotFoundError with path, got: %v", err)
	}
}

func TestTraceReader_MalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	if err := os.WriteFile(path, []byte("{\"n\":1}\n\nnot json\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Read(); err != nil {
		t.Fatalf("First entry should parse: %v", err)
	}
	if _, err := reader.Read(); err == nil {
		t.Error("Expected error for malformed line")
	}
}

func TestTraceWriter_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	writer, err := NewTraceWriter(path, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(n int) {
			if err := writer.Write(TraceEntry{N: n, WorstCase: float64(n), Timestamp: time.Now()}); err != nil {
				t.Errorf("Concurrent write failed: %v", err)
			}
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	writer.Flush()

	reader, err := NewTraceReader(path)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("Expected 10 entries, got %d", len(entries))
	}
}

func TestLatestRun_Empty(t *testing.T) {
	if got := LatestRun(nil); got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}
