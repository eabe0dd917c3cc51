package scraper

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/since25/douyin-downloader/pkg/douyin"
)

const targetSecUID = "MS4wLjABAAAAtarget"

func ownAweme(id string) *douyin.Aweme {
	return &douyin.Aweme{
		AwemeID: id,
		Author:  douyin.Author{SecUID: targetSecUID},
	}
}

func idsOf(items []douyin.Aweme) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.AwemeID)
	}
	return ids
}

func TestRecoverWithBrowserMergesMissingInOrder(t *testing.T) {
	client := &fakeClient{
		details: map[string]*douyin.Aweme{
			"C": ownAweme("C"),
			"D": ownAweme("D"),
		},
	}
	collector := &fakeCollector{ids: []string{"A", "C", "D"}}
	d := newTestDownloader(t, testConfig(t), client, collector, nil)

	existing := []douyin.Aweme{*ownAweme("A"), *ownAweme("B")}
	merged := d.recoverWithBrowser(context.Background(), targetSecUID, existing, "post")

	// API prefix untouched, missing ids appended in collector order
	assert.Equal(t, []string{"A", "B", "C", "D"}, idsOf(merged))
	assert.Equal(t, []string{"C", "D"}, client.detailCalls)
}

func TestRecoverWithBrowserExcludesMismatchedAuthor(t *testing.T) {
	foreign := ownAweme("D")
	foreign.Author.SecUID = "MS4wLjABAAAAsomeoneelse"

	client := &fakeClient{
		details: map[string]*douyin.Aweme{
			"C": ownAweme("C"),
			"D": foreign,
		},
	}
	collector := &fakeCollector{ids: []string{"A", "C", "D"}}
	d := newTestDownloader(t, testConfig(t), client, collector, nil)

	existing := []douyin.Aweme{*ownAweme("A"), *ownAweme("B")}
	merged := d.recoverWithBrowser(context.Background(), targetSecUID, existing, "post")

	assert.Equal(t, []string{"A", "B", "C"}, idsOf(merged))
}

func TestRecoverWithBrowserReusesInlineItems(t *testing.T) {
	client := &fakeClient{}
	collector := &fakeCollector{
		ids:   []string{"C"},
		items: map[string]*douyin.Aweme{"C": ownAweme("C")},
	}
	d := newTestDownloader(t, testConfig(t), client, collector, nil)

	merged := d.recoverWithBrowser(context.Background(), targetSecUID, nil, "post")

	assert.Equal(t, []string{"C"}, idsOf(merged))
	// inline detail was reused, no API detail fetch happened
	assert.Empty(t, client.detailCalls)
}

func TestRecoverWithBrowserCollectorFailureKeepsList(t *testing.T) {
	client := &fakeClient{}
	collector := &fakeCollector{err: fmt.Errorf("browser crashed")}
	d := newTestDownloader(t, testConfig(t), client, collector, nil)

	existing := []douyin.Aweme{*ownAweme("A")}
	merged := d.recoverWithBrowser(context.Background(), targetSecUID, existing, "post")

	assert.Equal(t, []string{"A"}, idsOf(merged))
	assert.Empty(t, client.detailCalls)
}

func TestRecoverWithBrowserToleratesDetailFailures(t *testing.T) {
	client := &fakeClient{
		details:   map[string]*douyin.Aweme{"D": ownAweme("D")},
		detailErr: map[string]error{"C": fmt.Errorf("detail unavailable")},
	}
	collector := &fakeCollector{ids: []string{"C", "D"}}
	d := newTestDownloader(t, testConfig(t), client, collector, nil)

	merged := d.recoverWithBrowser(context.Background(), targetSecUID, nil, "post")

	assert.Equal(t, []string{"D"}, idsOf(merged))
}

func TestRecoverWithBrowserHonorsHardCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Number["post"] = 3

	client := &fakeClient{
		details: map[string]*douyin.Aweme{
			"C": ownAweme("C"),
			"D": ownAweme("D"),
		},
	}
	collector := &fakeCollector{ids: []string{"C", "D"}}
	d := newTestDownloader(t, cfg, client, collector, nil)

	existing := []douyin.Aweme{*ownAweme("A"), *ownAweme("B")}
	merged := d.recoverWithBrowser(context.Background(), targetSecUID, existing, "post")

	assert.Equal(t, []string{"A", "B", "C"}, idsOf(merged))
}

func TestRecoverWithBrowserSkipsWhenCapAlreadyMet(t *testing.T) {
	cfg := testConfig(t)
	cfg.Number["post"] = 2

	collector := &fakeCollector{ids: []string{"C"}}
	d := newTestDownloader(t, cfg, &fakeClient{}, collector, nil)

	existing := []douyin.Aweme{*ownAweme("A"), *ownAweme("B")}
	merged := d.recoverWithBrowser(context.Background(), targetSecUID, existing, "post")

	assert.Equal(t, []string{"A", "B"}, idsOf(merged))
	assert.Zero(t, collector.collectCalls)
}

func TestRecoverWithBrowserDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.BrowserFallback.Enabled = false

	collector := &fakeCollector{ids: []string{"C"}}
	d := newTestDownloader(t, cfg, &fakeClient{}, collector, nil)

	merged := d.recoverWithBrowser(context.Background(), targetSecUID, nil, "post")

	require.Empty(t, merged)
	assert.Zero(t, collector.collectCalls)
}
