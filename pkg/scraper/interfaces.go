package scraper

import (
	"context"
	"io"

	"github.com/since25/douyin-downloader/pkg/douyin"
	"github.com/since25/douyin-downloader/pkg/storage"
)

// Client is the platform API surface the downloader depends on. The
// concrete transport and URL signing live in pkg/douyin.
type Client interface {
	// GetUserInfo resolves the author profile for a sec_uid
	GetUserInfo(ctx context.Context, secUID string) (*douyin.UserInfo, error)

	// GetUserPost returns one page of the author's post listing
	GetUserPost(ctx context.Context, secUID string, cursor int64) (*douyin.UserPostResponse, error)

	// GetAwemeDetail fetches one item's full detail, returning nil when the
	// platform has no payload for it
	GetAwemeDetail(ctx context.Context, awemeID string) (*douyin.Aweme, error)

	// Download opens a streaming response body for an asset URL
	Download(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error)
}

// Store is the optional persistent record of downloaded items. A nil Store
// means dedup falls back to the filesystem scan alone and no rows are
// written.
type Store interface {
	IsDownloaded(ctx context.Context, awemeID string) (bool, error)
	LatestAwemeTime(ctx context.Context, authorID string) (int64, error)
	UpsertAweme(ctx context.Context, rec storage.AwemeRecord) error
}

// ProgressReporter receives run progress. Implementations must be safe for
// concurrent AdvanceItem calls from download workers.
type ProgressReporter interface {
	UpdateStep(step string)
	SetItemTotal(total int)
	AdvanceItem(outcome string)
}

// NoopReporter discards all progress events
type NoopReporter struct{}

func (NoopReporter) UpdateStep(step string)     {}
func (NoopReporter) SetItemTotal(total int)     {}
func (NoopReporter) AdvanceItem(outcome string) {}
