package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/since25/douyin-downloader/pkg/browser"
	"github.com/since25/douyin-downloader/pkg/config"
	"github.com/since25/douyin-downloader/pkg/douyin"
)

// fakeClient implements Client with canned responses
type fakeClient struct {
	mu sync.Mutex

	userInfo  *douyin.UserInfo
	pages     map[int64]*douyin.UserPostResponse
	details   map[string]*douyin.Aweme
	detailErr map[string]error
	downloads map[string][]byte

	postCalls     []int64
	detailCalls   []string
	downloadCalls []string
}

func (f *fakeClient) GetUserInfo(ctx context.Context, secUID string) (*douyin.UserInfo, error) {
	if f.userInfo == nil {
		return nil, fmt.Errorf("no user info configured")
	}
	return f.userInfo, nil
}

func (f *fakeClient) GetUserPost(ctx context.Context, secUID string, cursor int64) (*douyin.UserPostResponse, error) {
	f.mu.Lock()
	f.postCalls = append(f.postCalls, cursor)
	f.mu.Unlock()

	page, ok := f.pages[cursor]
	if !ok {
		return nil, fmt.Errorf("no page at cursor %d", cursor)
	}
	return page, nil
}

func (f *fakeClient) GetAwemeDetail(ctx context.Context, awemeID string) (*douyin.Aweme, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, awemeID)
	f.mu.Unlock()

	if err, ok := f.detailErr[awemeID]; ok {
		return nil, err
	}
	return f.details[awemeID], nil
}

func (f *fakeClient) Download(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	f.mu.Lock()
	f.downloadCalls = append(f.downloadCalls, rawURL)
	f.mu.Unlock()

	content, ok := f.downloads[rawURL]
	if !ok {
		return nil, fmt.Errorf("no content at %s", rawURL)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// stubSigner signs by appending a fixed token
type stubSigner struct{}

func (stubSigner) SignURL(rawURL string) (string, string, error) {
	return rawURL + "&X-Bogus=stub", "stub-agent", nil
}

func (stubSigner) BuildSignedPath(path string, params url.Values) (string, string, error) {
	return douyin.BaseURL + path + "?" + params.Encode() + "&X-Bogus=stub", "stub-agent", nil
}

// fakeCollector implements browser.Collector with a canned result
type fakeCollector struct {
	ids   []string
	err   error
	items map[string]*douyin.Aweme
	stats browser.Stats

	collectCalls int
}

func (f *fakeCollector) CollectPostIDs(ctx context.Context, secUID string, opts browser.Options) ([]string, error) {
	f.collectCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

func (f *fakeCollector) PopItems() map[string]*douyin.Aweme {
	items := f.items
	f.items = nil
	return items
}

func (f *fakeCollector) PopStats() browser.Stats {
	stats := f.stats
	f.stats = browser.Stats{}
	return stats
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = t.TempDir()
	cfg.RateLimit = 0 // unlimited, keeps tests fast
	cfg.Thread = 2
	cfg.Cover = false
	cfg.JSON = false
	cfg.FolderStyle = false
	cfg.Database.Enabled = false
	cfg.BrowserFallback.Enabled = true
	return cfg
}

func newTestDownloader(t *testing.T, cfg *config.Config, client Client, collector browser.Collector, store Store) *Downloader {
	t.Helper()
	d, err := NewDownloader(Options{
		Config:    cfg,
		Client:    client,
		Signer:    stubSigner{},
		Collector: collector,
		Store:     store,
	})
	require.NoError(t, err)
	return d
}
