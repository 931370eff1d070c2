package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"xykpool/internal/model"
)

// JsonlStorage writes event and reject records to JSONL files.
type JsonlStorage struct {
	eventsPath  string
	rejectsPath string
	mu          sync.Mutex
}

func NewJsonlStorage(eventsPath, rejectsPath string) *JsonlStorage {
	return &JsonlStorage{eventsPath: eventsPath, rejectsPath: rejectsPath}
}

// PutEventBatch appends a batch of event records as JSON lines.
func (s *JsonlStorage) PutEventBatch(events []model.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	lines := make([]any, len(events))
	for i, event := range events {
		lines[i] = event
	}
	return s.appendLines(s.eventsPath, lines)
}

// PutRejectBatch appends a batch of reject records as JSON lines.
func (s *JsonlStorage) PutRejectBatch(rejects []model.RejectRecord) error {
	if len(rejects) == 0 {
		return nil
	}
	lines := make([]any, len(rejects))
	for i, reject := range rejects {
		lines[i] = reject
	}
	return s.appendLines(s.rejectsPath, lines)
}

func (s *JsonlStorage) appendLines(path string, records []any) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
