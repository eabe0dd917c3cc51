package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxNameBytes bounds sanitized path components in bytes, leaving headroom
// under the common 255-byte filesystem name limit for asset suffixes such as
// "_data.json" plus the ".tmp" used during atomic writes.
const maxNameBytes = 200

// FileManager handles the on-disk layout of downloaded assets
type FileManager struct {
	basePath string
}

// NewFileManager creates a file manager rooted at basePath, creating the
// directory if needed
func NewFileManager(basePath string) (*FileManager, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	return &FileManager{basePath: abs}, nil
}

// BasePath returns the output root
func (m *FileManager) BasePath() string {
	return m.basePath
}

// SavePath returns (and creates) the directory for one item's assets.
// Layout: <base>/<author>/<mode>/ plus a per-item subdirectory named from
// the file stem when folderStyle is set.
func (m *FileManager) SavePath(authorName, mode, stem string, folderStyle bool) (string, error) {
	dir := filepath.Join(m.basePath, SanitizeFilename(authorName))
	if mode != "" {
		dir = filepath.Join(dir, mode)
	}
	if folderStyle {
		dir = filepath.Join(dir, stem)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create save directory: %w", err)
	}
	return dir, nil
}

// SaveFile writes the reader's content to path atomically (temp file plus
// rename), so a partially fetched asset never looks complete to the
// dedup scan.
func (m *FileManager) SaveFile(r io.Reader, path string) error {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save file data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// RelPath converts an absolute asset path to a path relative to the output
// root for manifest records; paths outside the root are returned as-is.
func (m *FileManager) RelPath(path string) string {
	rel, err := filepath.Rel(m.basePath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// FileStem builds the per-item file stem <date>_<description>_<identifier>.
// The description is shortened first so the trailing identifier survives the
// length bound; the dedup scan depends on it being present in saved names.
func FileStem(date, desc, awemeID string) string {
	desc = strings.TrimSpace(filenameReplacer.Replace(desc))
	budget := maxNameBytes - len(date) - len(awemeID) - 2
	desc = strings.TrimSpace(truncateBytes(desc, budget))
	if desc == "" {
		desc = "unnamed"
	}
	return fmt.Sprintf("%s_%s_%s", date, desc, awemeID)
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	"\n", " ",
	"\r", " ",
	"\t", " ",
)

// SanitizeFilename removes characters that are unsafe in file names and
// bounds the result length
func SanitizeFilename(name string) string {
	cleaned := strings.TrimSpace(filenameReplacer.Replace(name))
	if cleaned == "" {
		return "unnamed"
	}
	if len(cleaned) > maxNameBytes {
		cleaned = strings.TrimSpace(truncateBytes(cleaned, maxNameBytes))
	}
	return cleaned
}

// truncateBytes shortens s to at most max bytes without splitting a rune.
func truncateBytes(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	cut := 0
	for i := range s {
		if i > max {
			break
		}
		cut = i
	}
	return s[:cut]
}
