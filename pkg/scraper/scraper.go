package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/since25/douyin-downloader/pkg/browser"
	"github.com/since25/douyin-downloader/pkg/config"
	"github.com/since25/douyin-downloader/pkg/dedup"
	"github.com/since25/douyin-downloader/pkg/douyin"
	"github.com/since25/douyin-downloader/pkg/logger"
	"github.com/since25/douyin-downloader/pkg/ratelimit"
	"github.com/since25/douyin-downloader/pkg/storage"

	pool "github.com/since25/douyin-downloader/internal/downloader"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Options wires a Downloader together. Config and Client are required;
// everything else has a working default (nil Store skips persistence, nil
// Collector disables the browser fallback path, nil Reporter is silent).
type Options struct {
	Config    *config.Config
	Client    Client
	Signer    douyin.Signer
	UserAgent string
	Collector browser.Collector
	Store     Store
	Reporter  ProgressReporter
	Logger    logger.Logger
}

// Result aggregates per-item outcomes of one Download call
type Result struct {
	Total   int
	Success int
	Failed  int
	Skipped int
}

func (r Result) String() string {
	return fmt.Sprintf("Total: %d, Success: %d, Failed: %d, Skipped: %d",
		r.Total, r.Success, r.Failed, r.Skipped)
}

func (r *Result) add(other Result) {
	r.Total += other.Total
	r.Success += other.Success
	r.Failed += other.Failed
	r.Skipped += other.Skipped
}

// Downloader acquires one author's catalog: it paginates the listing API,
// recovers identifiers through the browser collector when pagination is
// restricted, deduplicates against prior downloads and fetches assets under
// shared rate and concurrency limits.
type Downloader struct {
	cfg       *config.Config
	client    Client
	resolver  *douyin.Resolver
	collector browser.Collector
	store     Store
	files     *storage.FileManager
	manifest  *storage.ManifestWriter
	dedup     *dedup.Index
	limiter   ratelimit.Limiter
	workers   *pool.Pool
	reporter  ProgressReporter
	logger    logger.Logger

	// restrictedPage decides whether a listing page looks like throttled
	// pagination; the signature is a heuristic, not a platform contract
	restrictedPage func(page *douyin.UserPostResponse, cursor int64) bool

	// bounded per-instance error logging so worker failures do not flood
	// interactive progress output
	errLogMu    sync.Mutex
	errLogCount int
}

// NewDownloader builds a Downloader from Options, creating the output
// directory tree eagerly
func NewDownloader(opts Options) (*Downloader, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("client is required")
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	files, err := storage.NewFileManager(opts.Config.Output.BaseDirectory)
	if err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	collector := opts.Collector
	if collector == nil {
		collector = browser.Noop{}
	}

	reporter := opts.Reporter
	if reporter == nil {
		reporter = NoopReporter{}
	}

	var dedupStore dedup.Store
	if opts.Store != nil {
		dedupStore = opts.Store
	}

	return &Downloader{
		cfg:            opts.Config,
		client:         opts.Client,
		resolver:       douyin.NewResolver(opts.Signer, userAgent),
		collector:      collector,
		store:          opts.Store,
		files:          files,
		manifest:       storage.NewManifestWriter(files.BasePath()),
		dedup:          dedup.NewIndex(files.BasePath(), dedupStore, log),
		limiter:        ratelimit.NewPerSecond(opts.Config.RateLimit),
		workers:        pool.NewPool(opts.Config.Thread, log),
		reporter:       reporter,
		logger:         log,
		restrictedPage: defaultRestrictedPage,
	}, nil
}

// Download runs the full pipeline for one author and always returns an
// aggregate result; per-item failures never abort the run.
func (d *Downloader) Download(ctx context.Context, secUID string) (Result, error) {
	var result Result

	if secUID == "" {
		return result, fmt.Errorf("sec_uid is required")
	}

	d.reporter.UpdateStep("resolving author")
	if err := d.limiter.Wait(ctx); err != nil {
		return result, err
	}
	userInfo, err := d.client.GetUserInfo(ctx, secUID)
	if err != nil {
		return result, fmt.Errorf("resolving author %s: %w", secUID, err)
	}

	d.logger.InfoWithFields("author resolved", map[string]interface{}{
		"nickname":    userInfo.Nickname,
		"aweme_count": userInfo.AwemeCount,
	})

	for _, mode := range d.cfg.Mode {
		if mode != "post" {
			d.logger.WarnWithFields("unsupported mode, skipping", map[string]interface{}{
				"mode": mode,
			})
			continue
		}
		modeResult, err := d.downloadUserPost(ctx, secUID, userInfo, mode)
		result.add(modeResult)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// downloadUserPost handles one listing category end to end: listing must
// fully resolve (including the fallback) before per-item fan-out starts.
func (d *Downloader) downloadUserPost(ctx context.Context, secUID string, userInfo *douyin.UserInfo, mode string) (Result, error) {
	var result Result

	var latestTime int64
	if d.cfg.Increase[mode] && d.store != nil {
		var err error
		latestTime, err = d.store.LatestAwemeTime(ctx, userInfo.UID)
		if err != nil {
			d.logger.WithError(err).Warn("failed to read latest aweme time, full listing")
			latestTime = 0
		}
	}

	d.reporter.UpdateStep("fetching post listing")
	items, restricted, err := d.fetchAllPosts(ctx, secUID, pageOptions{
		maxItems:   d.cfg.Number[mode],
		latestTime: latestTime,
	})
	if err != nil {
		return result, err
	}

	if restricted {
		d.reporter.UpdateStep("pagination restricted, browser fallback")
		items = d.recoverWithBrowser(ctx, secUID, items, mode)
	}

	items = d.filterByTime(items)
	items = limitCount(items, d.cfg.Number[mode])

	result.Total = len(items)
	d.reporter.SetItemTotal(result.Total)
	d.reporter.UpdateStep(fmt.Sprintf("downloading %d items", result.Total))

	authorName := userInfo.Nickname
	if authorName == "" {
		authorName = "unknown"
	}

	outcomes := d.workers.Run(ctx, items, func(ctx context.Context, item douyin.Aweme) pool.Result {
		return d.processItem(ctx, item, authorName, mode)
	})

	for _, outcome := range outcomes {
		switch outcome.Outcome {
		case pool.OutcomeSuccess:
			result.Success++
		case pool.OutcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	return result, nil
}

// processItem is one worker job: dedup re-check, shared limiter permit,
// asset acquisition
func (d *Downloader) processItem(ctx context.Context, item douyin.Aweme, authorName, mode string) pool.Result {
	if !d.dedup.ShouldDownload(ctx, item.AwemeID) {
		d.reporter.AdvanceItem("skipped")
		return pool.Result{AwemeID: item.AwemeID, Outcome: pool.OutcomeSkipped}
	}

	if err := d.limiter.Wait(ctx); err != nil {
		d.reporter.AdvanceItem("failed")
		return pool.Result{AwemeID: item.AwemeID, Outcome: pool.OutcomeFailed, Err: err}
	}

	if err := d.downloadAwemeAssets(ctx, &item, authorName, mode); err != nil {
		d.reporter.AdvanceItem("failed")
		return pool.Result{AwemeID: item.AwemeID, Outcome: pool.OutcomeFailed, Err: err}
	}

	d.reporter.AdvanceItem("success")
	return pool.Result{AwemeID: item.AwemeID, Outcome: pool.OutcomeSuccess}
}

// filterByTime drops items outside the inclusive YYYY-MM-DD config bounds
func (d *Downloader) filterByTime(items []douyin.Aweme) []douyin.Aweme {
	if d.cfg.StartTime == "" && d.cfg.EndTime == "" {
		return items
	}

	var startTS, endTS int64
	if d.cfg.StartTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", d.cfg.StartTime, time.Local); err == nil {
			startTS = t.Unix()
		} else {
			d.logger.WithError(err).Warn("invalid start_time, ignoring")
		}
	}
	if d.cfg.EndTime != "" {
		if t, err := time.ParseInLocation("2006-01-02", d.cfg.EndTime, time.Local); err == nil {
			// inclusive through the end of the day
			endTS = t.Add(24*time.Hour - time.Second).Unix()
		} else {
			d.logger.WithError(err).Warn("invalid end_time, ignoring")
		}
	}

	filtered := items[:0:0]
	for _, item := range items {
		if startTS > 0 && item.CreateTime < startTS {
			continue
		}
		if endTS > 0 && item.CreateTime > endTS {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

// limitCount truncates to the configured hard cap (0 means unlimited)
func limitCount(items []douyin.Aweme, limit int) []douyin.Aweme {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// resolvePublishTime converts an item's create_time into a timestamp and a
// YYYY-MM-DD date, returning zero values when it is missing or invalid
func resolvePublishTime(createTime int64) (int64, string) {
	if createTime <= 0 {
		return 0, ""
	}
	return createTime, time.Unix(createTime, 0).Format("2006-01-02")
}

func descOrDefault(desc string) string {
	cleaned := strings.TrimSpace(desc)
	if cleaned == "" {
		return "no_title"
	}
	return cleaned
}
