package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/since25/douyin-downloader/pkg/douyin"
	"github.com/since25/douyin-downloader/pkg/retry"
	"github.com/since25/douyin-downloader/pkg/storage"
)

// errorLogLimit bounds per-file download error logs per Downloader
// instance so a failing batch does not drown the progress display
const errorLogLimit = 5

// downloadAwemeAssets resolves and fetches every asset of one item, then
// records it in the manifest and the store. A required-asset failure fails
// the whole item; optional-asset failures only omit that file.
func (d *Downloader) downloadAwemeAssets(ctx context.Context, aweme *douyin.Aweme, authorName, mode string) error {
	if aweme.AwemeID == "" {
		return fmt.Errorf("missing aweme_id in item data")
	}

	desc := descOrDefault(aweme.Desc)
	publishTS, publishDate := resolvePublishTime(aweme.CreateTime)
	if publishDate == "" {
		publishDate = time.Now().Format("2006-01-02")
		d.logger.WarnWithFields("missing or invalid create_time, using current date", map[string]interface{}{
			"aweme_id": aweme.AwemeID,
			"date":     publishDate,
		})
	}

	fileStem := storage.FileStem(publishDate, desc, aweme.AwemeID)
	saveDir, err := d.files.SavePath(authorName, mode, fileStem, d.cfg.FolderStyle)
	if err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}

	kind, assets, err := d.resolver.Resolve(aweme, douyin.ResolveOptions{
		Cover:  d.cfg.Cover,
		Music:  d.cfg.Music,
		Avatar: d.cfg.Avatar,
	})
	if err != nil {
		d.logDownloadError(false, fmt.Sprintf("no downloadable media for aweme %s: %v", aweme.AwemeID, err))
		return err
	}

	var downloaded []string
	for _, asset := range assets {
		path := filepath.Join(saveDir, fileStem+asset.Suffix)
		if err := d.fetchAsset(ctx, asset, path); err != nil {
			if asset.Required {
				return err
			}
			continue
		}
		downloaded = append(downloaded, path)
	}

	if d.cfg.JSON {
		if path, err := d.saveMetadataJSON(aweme, saveDir, fileStem); err != nil {
			d.logger.WithError(err).Warn("failed to save metadata json")
		} else {
			downloaded = append(downloaded, path)
		}
	}

	recordAuthor := aweme.Author.Nickname
	if recordAuthor == "" {
		recordAuthor = authorName
	}

	if d.store != nil {
		metadata, _ := json.Marshal(aweme)
		err := d.store.UpsertAweme(ctx, storage.AwemeRecord{
			AwemeID:    aweme.AwemeID,
			AwemeType:  string(kind),
			Title:      desc,
			AuthorID:   aweme.Author.UID,
			AuthorName: recordAuthor,
			CreateTime: aweme.CreateTime,
			FilePath:   saveDir,
			Metadata:   string(metadata),
		})
		if err != nil {
			d.logger.WithError(err).Warn("failed to upsert aweme record")
		}
	}

	record := storage.ManifestRecord{
		Date:             publishDate,
		AwemeID:          aweme.AwemeID,
		AuthorName:       recordAuthor,
		Desc:             desc,
		MediaType:        string(kind),
		Tags:             aweme.Tags(),
		FileNames:        baseNames(downloaded),
		FilePaths:        d.relPaths(downloaded),
		PublishTimestamp: publishTS,
	}
	if err := d.manifest.Append(record); err != nil {
		// files are already on disk, so a manifest failure does not fail
		// the item
		d.logger.WithError(err).Error("failed to append manifest record")
	}

	d.dedup.MarkDownloaded(aweme.AwemeID)
	d.logger.InfoWithFields("downloaded item", map[string]interface{}{
		"aweme_id":   aweme.AwemeID,
		"media_type": string(kind),
		"files":      len(downloaded),
	})
	return nil
}

// fetchAsset downloads one resolved asset to disk under the retry policy
func (d *Downloader) fetchAsset(ctx context.Context, asset douyin.Asset, path string) error {
	retryCfg := &retry.Config{
		MaxAttempts: d.cfg.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    d.cfg.Retry.BaseDelay,
			MaxDelay:     d.cfg.Retry.MaxDelay,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: ctx,
		Logger:  d.logger,
	}

	err := retry.Do(func() error {
		body, err := d.client.Download(ctx, asset.URL, asset.Headers)
		if err != nil {
			return err
		}
		defer body.Close()
		return d.files.SaveFile(body, path)
	}, retryCfg)

	if err != nil {
		d.logDownloadError(!asset.Required, fmt.Sprintf("download error for %s: %v", filepath.Base(path), err))
		return err
	}
	return nil
}

// saveMetadataJSON writes the item's raw metadata next to its media files
func (d *Downloader) saveMetadataJSON(aweme *douyin.Aweme, saveDir, fileStem string) (string, error) {
	data, err := json.MarshalIndent(aweme, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(saveDir, fileStem+"_data.json")
	if err := d.files.SaveFile(bytes.NewReader(data), path); err != nil {
		return "", err
	}
	return path, nil
}

// logDownloadError logs through the bounded per-instance budget, still
// counting suppressed occurrences
func (d *Downloader) logDownloadError(optional bool, message string) {
	d.errLogMu.Lock()
	count := d.errLogCount
	d.errLogCount++
	d.errLogMu.Unlock()

	if count < errorLogLimit {
		if optional {
			d.logger.Warn(message)
		} else {
			d.logger.Error(message)
		}
	} else if count == errorLogLimit {
		d.logger.Error("too many download errors, suppressing further per-file logs")
	}
}

func baseNames(paths []string) []string {
	names := make([]string, 0, len(paths))
	for _, path := range paths {
		names = append(names, filepath.Base(path))
	}
	return names
}

func (d *Downloader) relPaths(paths []string) []string {
	rel := make([]string, 0, len(paths))
	for _, path := range paths {
		rel = append(rel, d.files.RelPath(path))
	}
	return rel
}
