package dedup

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/since25/douyin-downloader/pkg/logger"
)

// mediaSuffixes are the file extensions the local scan accepts as
// evidence of a completed download
var mediaSuffixes = map[string]bool{
	".mp4":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".mp3":  true,
	".m4a":  true,
}

// Store is the persistent-store membership query. A nil Store means the
// index decides from the filesystem alone.
type Store interface {
	IsDownloaded(ctx context.Context, awemeID string) (bool, error)
}

// Index decides whether an item was already fully downloaded, combining a
// lazily built filesystem scan with persistent-store membership. The local
// set only grows during a run; MarkDownloaded records fresh successes so
// reposted identifiers later in the same batch are skipped.
type Index struct {
	basePath string
	store    Store
	logger   logger.Logger

	mu    sync.RWMutex
	local map[string]struct{}
	built bool
}

// NewIndex creates a dedup index over the given output root
func NewIndex(basePath string, store Store, log logger.Logger) *Index {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Index{
		basePath: basePath,
		store:    store,
		logger:   log,
	}
}

// ShouldDownload implements the dedup decision matrix:
//
//	store  local  decision
//	yes    yes    skip
//	yes    no     download (row exists but file missing, incomplete)
//	no     yes    skip (trust filesystem)
//	no     no     download
func (i *Index) ShouldDownload(ctx context.Context, awemeID string) bool {
	if awemeID == "" {
		return false
	}

	inLocal := i.isLocal(awemeID)
	inStore := false
	if i.store != nil {
		var err error
		inStore, err = i.store.IsDownloaded(ctx, awemeID)
		if err != nil {
			i.logger.WarnWithFields("store dedup query failed, relying on filesystem", map[string]interface{}{
				"aweme_id": awemeID,
				"error":    err.Error(),
			})
			inStore = false
		}
	}

	if inStore && inLocal {
		return false
	}
	if inStore && !inLocal {
		i.logger.InfoWithFields("store row exists but media file missing locally, re-downloading", map[string]interface{}{
			"aweme_id": awemeID,
		})
		return true
	}
	if inLocal {
		return false
	}
	return true
}

// MarkDownloaded records a fresh success in the local set
func (i *Index) MarkDownloaded(awemeID string) {
	if awemeID == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.local == nil {
		i.local = make(map[string]struct{})
	}
	i.local[awemeID] = struct{}{}
}

func (i *Index) isLocal(awemeID string) bool {
	i.mu.RLock()
	if i.built {
		_, ok := i.local[awemeID]
		i.mu.RUnlock()
		return ok
	}
	i.mu.RUnlock()

	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.built {
		i.buildLocked()
	}
	_, ok := i.local[awemeID]
	return ok
}

// buildLocked scans the output tree once for media files whose name embeds
// a standalone 15-20 digit identifier. Caller holds the write lock.
func (i *Index) buildLocked() {
	ids := make(map[string]struct{})

	err := filepath.WalkDir(i.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree; skip rather than fail the scan
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !mediaSuffixes[strings.ToLower(filepath.Ext(entry.Name()))] {
			return nil
		}
		info, err := entry.Info()
		if err != nil || info.Size() <= 0 {
			return nil
		}
		for _, id := range identifierRuns(entry.Name()) {
			ids[id] = struct{}{}
		}
		return nil
	})
	if err != nil {
		i.logger.WarnWithFields("local dedup scan incomplete", map[string]interface{}{
			"path":  i.basePath,
			"error": err.Error(),
		})
	}

	if i.local == nil {
		i.local = ids
	} else {
		for id := range ids {
			i.local[id] = struct{}{}
		}
	}
	i.built = true

	i.logger.DebugWithFields("local dedup index built", map[string]interface{}{
		"path":  i.basePath,
		"count": len(i.local),
	})
}

// identifierRuns returns the maximal digit runs of length 15-20 in name
func identifierRuns(name string) []string {
	var ids []string
	start := -1
	for idx, r := range name {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = idx
			}
			continue
		}
		if start >= 0 {
			if run := name[start:idx]; len(run) >= 15 && len(run) <= 20 {
				ids = append(ids, run)
			}
			start = -1
		}
	}
	if start >= 0 {
		if run := name[start:]; len(run) >= 15 && len(run) <= 20 {
			ids = append(ids, run)
		}
	}
	return ids
}
