// Package sink writes the aggregate record sequence to the output artifact.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/wikirefs/internal/harvest"
)

// FileName is the fixed name of the output artifact.
const FileName = "wikipedia_references.json"

// FileSystemSink saves the record sequence as one JSON document.
type FileSystemSink struct {
	root   string
	logger *zap.Logger
}

// NewFileSystemSink returns a sink rooted at dir. The directory is created
// lazily by Save.
func NewFileSystemSink(root string, logger *zap.Logger) (*FileSystemSink, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemSink{
		root:   root,
		logger: logger,
	}, nil
}

// Path returns the artifact location.
func (s *FileSystemSink) Path() string {
	return filepath.Join(s.root, FileName)
}

// Save creates the directory (and parents) if needed and writes the whole
// document in one go. Records already in memory are written even when ctx is
// canceled.
func (s *FileSystemSink) Save(_ context.Context, records []harvest.Record) (string, error) {
	target := s.Path()
	payload, err := Encode(records)
	if err != nil {
		return target, err
	}
	if err := os.MkdirAll(s.root, 0o750); err != nil {
		return target, fmt.Errorf("creating output dir %s: %w", s.root, err)
	}
	if err := os.WriteFile(target, payload, 0o600); err != nil {
		return target, fmt.Errorf("writing results to %s: %w", target, err)
	}
	s.logger.Info("results saved", zap.String("path", target), zap.Int("records", len(records)))
	return target, nil
}

// Encode renders records as an indented JSON array without HTML escaping.
func Encode(records []harvest.Record) ([]byte, error) {
	if records == nil {
		records = []harvest.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads an artifact back into records.
func Load(path string) ([]harvest.Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller supplied by design
	if err != nil {
		return nil, fmt.Errorf("read results %s: %w", path, err)
	}
	var records []harvest.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode results %s: %w", path, err)
	}
	return records, nil
}
