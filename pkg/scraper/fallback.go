package scraper

import (
	"context"
	"time"

	"github.com/since25/douyin-downloader/pkg/browser"
	"github.com/since25/douyin-downloader/pkg/douyin"
)

// recoverWithBrowser reconciles the API-derived list with identifiers the
// browser collector observed. The API prefix is never reordered or
// deduplicated; validated missing items are appended in collector order.
// Any collector failure aborts only this step.
func (d *Downloader) recoverWithBrowser(ctx context.Context, secUID string, items []douyin.Aweme, mode string) []douyin.Aweme {
	browserCfg := d.cfg.BrowserFallback
	if !browserCfg.Enabled {
		return items
	}

	// under restricted pagination the author's reported aweme_count is
	// unreliable, so only an explicit number limit bounds the collection
	limit := d.cfg.Number[mode]
	if limit > 0 && len(items) >= limit {
		return items
	}

	browserIDs, err := d.collector.CollectPostIDs(ctx, secUID, browser.Options{
		ExpectedCount: limit,
		Headless:      browserCfg.Headless,
		MaxScrolls:    browserCfg.MaxScrolls,
		IdleRounds:    browserCfg.IdleRounds,
		WaitTimeout:   time.Duration(browserCfg.WaitTimeoutSeconds) * time.Second,
	})
	if err != nil {
		d.logger.WithError(err).Error("browser fallback failed")
		return items
	}

	inlineItems := d.collector.PopItems()
	stats := d.collector.PopStats()

	if len(browserIDs) == 0 {
		d.logger.Warn("browser fallback returned no identifiers")
		return items
	}

	existing := make(map[string]struct{}, len(items))
	for _, item := range items {
		if item.AwemeID != "" {
			existing[item.AwemeID] = struct{}{}
		}
	}

	var missing []string
	for _, id := range browserIDs {
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return items
	}

	d.logger.WarnWithFields("recovering item details from browser list", map[string]interface{}{
		"missing": len(missing),
	})

	var detailFailed, detailSuccess, reused int
	for _, id := range missing {
		if limit > 0 && len(items) >= limit {
			break
		}

		detail := inlineItems[id]
		if detail == nil {
			if err := d.limiter.Wait(ctx); err != nil {
				break
			}
			fetched, err := d.client.GetAwemeDetail(ctx, id)
			if err != nil || fetched == nil {
				detailFailed++
				continue
			}
			detail = fetched
			detailSuccess++
		} else {
			reused++
		}

		// cross-author leakage guard
		if detail.Author.SecUID != "" && detail.Author.SecUID != secUID {
			d.logger.WarnWithFields("skipping item with mismatched sec_uid", map[string]interface{}{
				"aweme_id": id,
				"sec_uid":  detail.Author.SecUID,
			})
			continue
		}

		items = append(items, *detail)
	}

	d.logger.WarnWithFields("browser fallback summary", map[string]interface{}{
		"merged_ids":     stats.MergedIDs,
		"selected_ids":   stats.SelectedIDs,
		"post_items":     stats.Items,
		"post_pages":     stats.Pages,
		"reused":         reused,
		"detail_success": detailSuccess,
		"detail_failed":  detailFailed,
	})

	return items
}
