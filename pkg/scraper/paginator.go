package scraper

import (
	"context"

	"github.com/since25/douyin-downloader/pkg/douyin"
)

// pageOptions controls one listing traversal
type pageOptions struct {
	// maxItems caps the collected total (0 means unlimited)
	maxItems int
	// latestTime enables incremental mode: only items strictly newer are
	// kept and pagination halts at the first older item (0 disables)
	latestTime int64
}

// defaultRestrictedPage is the observed throttling signature: a nominally
// successful empty page mid-pagination. It is inferred behavior rather than
// a documented contract, so the predicate stays replaceable on the
// Downloader.
func defaultRestrictedPage(page *douyin.UserPostResponse, cursor int64) bool {
	return len(page.AwemeList) == 0 && cursor != 0 && page.StatusCode == 0
}

// fetchAllPosts walks the post listing cursor loop and returns the items in
// server order plus whether pagination looked restricted. Restriction is a
// signal, not an error.
func (d *Downloader) fetchAllPosts(ctx context.Context, secUID string, opts pageOptions) ([]douyin.Aweme, bool, error) {
	var items []douyin.Aweme
	var cursor int64
	restricted := false

	for {
		if err := d.limiter.Wait(ctx); err != nil {
			return items, restricted, err
		}

		requestCursor := cursor
		page, err := d.client.GetUserPost(ctx, secUID, requestCursor)
		if err != nil {
			d.logger.ErrorWithFields("listing page request failed", map[string]interface{}{
				"cursor": requestCursor,
				"error":  err.Error(),
			})
			break
		}

		if page.NotLoginModule != nil && page.NotLoginModule.GuideLoginTipExist {
			d.logger.Warn("login tip present in listing response, pagination may be restricted")
		}

		if len(page.AwemeList) == 0 {
			if d.restrictedPage(page, requestCursor) {
				restricted = true
				d.logger.WarnWithFields("pagination likely blocked, will try browser fallback", map[string]interface{}{
					"cursor": requestCursor,
				})
			}
			break
		}

		if opts.latestTime > 0 {
			newCount := 0
			for _, item := range page.AwemeList {
				if item.CreateTime > opts.latestTime {
					items = append(items, item)
					newCount++
				}
			}
			// crossing the incremental boundary ends the traversal
			if newCount < len(page.AwemeList) {
				break
			}
		} else {
			items = append(items, page.AwemeList...)
		}

		d.logger.DebugWithFields("listing page collected", map[string]interface{}{
			"cursor": requestCursor,
			"total":  len(items),
		})

		cursor = page.MaxCursor
		if page.HasMore != 0 && cursor == requestCursor {
			d.logger.WarnWithFields("cursor did not advance, stop paging to avoid loop", map[string]interface{}{
				"cursor": cursor,
			})
			break
		}
		if page.HasMore == 0 {
			break
		}

		if opts.maxItems > 0 && len(items) >= opts.maxItems {
			items = items[:opts.maxItems]
			break
		}
	}

	return items, restricted, nil
}
