package browser

import (
	"context"
	"time"

	"github.com/since25/douyin-downloader/pkg/douyin"
	errs "github.com/since25/douyin-downloader/pkg/errors"
)

// Options parameterizes one collection run
type Options struct {
	// ExpectedCount stops scrolling once this many identifiers are seen
	// (0 means unbounded)
	ExpectedCount int
	// Headless runs the browser without a visible window
	Headless bool
	// MaxScrolls caps the total scroll iterations
	MaxScrolls int
	// IdleRounds is the number of consecutive scrolls yielding no new
	// identifiers before giving up
	IdleRounds int
	// WaitTimeout bounds the whole collection run
	WaitTimeout time.Duration
}

// Stats describes the collector's merge outcome. Diagnostic only.
type Stats struct {
	MergedIDs   int `json:"merged_ids"`
	SelectedIDs int `json:"selected_ids"`
	Items       int `json:"post_items"`
	Pages       int `json:"post_pages"`
}

// Collector recovers item identifiers by scrolling the author's web
// listing when API pagination is restricted. The scrolling and DOM
// scraping internals live outside this module.
type Collector interface {
	// CollectPostIDs returns the identifiers observed for the author, in
	// on-page order
	CollectPostIDs(ctx context.Context, secUID string, opts Options) ([]string, error)

	// PopItems drains the item details the collector scraped inline, keyed
	// by identifier. Safe to call once per collection run; later calls
	// return nil.
	PopItems() map[string]*douyin.Aweme

	// PopStats drains the merge statistics of the last run
	PopStats() Stats
}

// Noop is the default collector when no browser engine is configured. Its
// collect call fails, which makes the fallback path degrade gracefully.
type Noop struct{}

// CollectPostIDs always reports the collector as unavailable
func (Noop) CollectPostIDs(ctx context.Context, secUID string, opts Options) ([]string, error) {
	return nil, errs.New(errs.ErrorTypeUnknown, "no browser collector configured")
}

// PopItems returns nothing
func (Noop) PopItems() map[string]*douyin.Aweme { return nil }

// PopStats returns zero statistics
func (Noop) PopStats() Stats { return Stats{} }
