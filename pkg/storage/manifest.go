package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ManifestFileName is the append-only manifest log at the output root
const ManifestFileName = "download_manifest.jsonl"

// ManifestRecord is one line of the manifest: a successfully processed
// item with the files written for it. Records are never rewritten.
type ManifestRecord struct {
	Date             string   `json:"date"`
	AwemeID          string   `json:"aweme_id"`
	AuthorName       string   `json:"author_name"`
	Desc             string   `json:"desc"`
	MediaType        string   `json:"media_type"`
	Tags             []string `json:"tags,omitempty"`
	FileNames        []string `json:"file_names"`
	FilePaths        []string `json:"file_paths"`
	PublishTimestamp int64    `json:"publish_timestamp,omitempty"`
}

// ManifestWriter appends records to the per-run manifest log. Appends are
// serialized so concurrent item jobs never interleave partial lines.
type ManifestWriter struct {
	path string
	mu   sync.Mutex
}

// NewManifestWriter creates a manifest writer keyed by the output root
func NewManifestWriter(baseDir string) *ManifestWriter {
	return &ManifestWriter{
		path: filepath.Join(baseDir, ManifestFileName),
	}
}

// Path returns the manifest file location
func (w *ManifestWriter) Path() string {
	return w.path
}

// Append writes one record as a single JSON line
func (w *ManifestWriter) Append(record ManifestRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest record: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("failed to append manifest record: %w", err)
	}

	return nil
}
