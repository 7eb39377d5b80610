package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

var (
	_ Sink    = (*FileSink)(nil)
	_ Browser = (*FileSink)(nil)
)

// FileSink appends entries to a local JSONL file, one JSON document per line.
type FileSink struct {
	mu   sync.Mutex
	path string
}

// NewFileSink creates a FileSink writing to the given path. The file is
// created on first append.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Append writes the entry as one JSONL line.
func (s *FileSink) Append(_ context.Context, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return f.Sync()
}

// List returns up to limit entry IDs, newest first.
func (s *FileSink) List(_ context.Context, limit int) ([]string, error) {
	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0 && (limit <= 0 || len(keys) < limit); i-- {
		keys = append(keys, entries[i].ID)
	}

	return keys, nil
}

// Get returns the entry with the given ID.
func (s *FileSink) Get(_ context.Context, key string) (*Entry, error) {
	entries, err := s.readAll()
	if err != nil {
		return nil, err
	}

	// Scan newest first; re-recorded IDs resolve to the latest write.
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].ID == key {
			return &entries[i], nil
		}
	}

	return nil, fmt.Errorf("audit entry %q not found", key)
}

func (s *FileSink) readAll() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("corrupt audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}
