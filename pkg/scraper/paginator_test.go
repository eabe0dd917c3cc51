package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/since25/douyin-downloader/pkg/douyin"
)

func awemeAt(id string, createTime int64) douyin.Aweme {
	return douyin.Aweme{AwemeID: id, CreateTime: createTime}
}

func TestFetchAllPostsWalksCursor(t *testing.T) {
	client := &fakeClient{
		pages: map[int64]*douyin.UserPostResponse{
			0: {
				AwemeList: []douyin.Aweme{awemeAt("1", 100), awemeAt("2", 90)},
				HasMore:   1,
				MaxCursor: 500,
			},
			500: {
				AwemeList: []douyin.Aweme{awemeAt("3", 80)},
				HasMore:   0,
				MaxCursor: 900,
			},
		},
	}
	d := newTestDownloader(t, testConfig(t), client, nil, nil)

	items, restricted, err := d.fetchAllPosts(context.Background(), "sec1", pageOptions{})
	require.NoError(t, err)

	assert.False(t, restricted)
	require.Len(t, items, 3)
	// server order preserved
	assert.Equal(t, "1", items[0].AwemeID)
	assert.Equal(t, "2", items[1].AwemeID)
	assert.Equal(t, "3", items[2].AwemeID)
	assert.Equal(t, []int64{0, 500}, client.postCalls)
}

func TestFetchAllPostsThrottlingAtNonZeroCursor(t *testing.T) {
	client := &fakeClient{
		pages: map[int64]*douyin.UserPostResponse{
			0: {
				AwemeList: []douyin.Aweme{awemeAt("1", 100)},
				HasMore:   1,
				MaxCursor: 300,
			},
			300: {
				AwemeList:  nil,
				StatusCode: 0,
				HasMore:    1,
				MaxCursor:  300,
			},
		},
	}
	d := newTestDownloader(t, testConfig(t), client, nil, nil)

	items, restricted, err := d.fetchAllPosts(context.Background(), "sec1", pageOptions{})
	require.NoError(t, err)

	assert.True(t, restricted)
	assert.Len(t, items, 1)
}

func TestFetchAllPostsEmptyFirstPageIsNotThrottling(t *testing.T) {
	client := &fakeClient{
		pages: map[int64]*douyin.UserPostResponse{
			0: {AwemeList: nil, StatusCode: 0},
		},
	}
	d := newTestDownloader(t, testConfig(t), client, nil, nil)

	items, restricted, err := d.fetchAllPosts(context.Background(), "sec1", pageOptions{})
	require.NoError(t, err)

	assert.False(t, restricted)
	assert.Empty(t, items)
}

func TestFetchAllPostsStagnationGuard(t *testing.T) {
	client := &fakeClient{
		pages: map[int64]*douyin.UserPostResponse{
			0: {
				AwemeList: []douyin.Aweme{awemeAt("1", 100), awemeAt("2", 90)},
				HasMore:   1,
				MaxCursor: 700,
			},
			// cursor does not advance even though the server claims more
			700: {
				AwemeList: []douyin.Aweme{awemeAt("3", 80)},
				HasMore:   1,
				MaxCursor: 700,
			},
		},
	}
	d := newTestDownloader(t, testConfig(t), client, nil, nil)

	items, restricted, err := d.fetchAllPosts(context.Background(), "sec1", pageOptions{})
	require.NoError(t, err)

	assert.False(t, restricted)
	// second page is kept, loop terminates right after it
	require.Len(t, items, 3)
	assert.Equal(t, []int64{0, 700}, client.postCalls)
}

func TestFetchAllPostsIncrementalCutoff(t *testing.T) {
	const latest = 1000
	client := &fakeClient{
		pages: map[int64]*douyin.UserPostResponse{
			0: {
				AwemeList: []douyin.Aweme{
					awemeAt("new1", latest+5),
					awemeAt("new2", latest+2),
					awemeAt("old", latest-1),
				},
				HasMore:   1,
				MaxCursor: 400,
			},
		},
	}
	d := newTestDownloader(t, testConfig(t), client, nil, nil)

	items, _, err := d.fetchAllPosts(context.Background(), "sec1", pageOptions{latestTime: latest})
	require.NoError(t, err)

	// only strictly newer items survive and pagination halts at the boundary
	require.Len(t, items, 2)
	assert.Equal(t, "new1", items[0].AwemeID)
	assert.Equal(t, "new2", items[1].AwemeID)
	assert.Equal(t, []int64{0}, client.postCalls)
}

func TestFetchAllPostsItemAtLatestTimeIsExcluded(t *testing.T) {
	const latest = 1000
	client := &fakeClient{
		pages: map[int64]*douyin.UserPostResponse{
			0: {
				AwemeList: []douyin.Aweme{awemeAt("boundary", latest)},
				HasMore:   1,
				MaxCursor: 400,
			},
		},
	}
	d := newTestDownloader(t, testConfig(t), client, nil, nil)

	items, _, err := d.fetchAllPosts(context.Background(), "sec1", pageOptions{latestTime: latest})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchAllPostsHardCap(t *testing.T) {
	client := &fakeClient{
		pages: map[int64]*douyin.UserPostResponse{
			0: {
				AwemeList: []douyin.Aweme{awemeAt("1", 100), awemeAt("2", 90)},
				HasMore:   1,
				MaxCursor: 200,
			},
			200: {
				AwemeList: []douyin.Aweme{awemeAt("3", 80), awemeAt("4", 70)},
				HasMore:   1,
				MaxCursor: 400,
			},
		},
	}
	d := newTestDownloader(t, testConfig(t), client, nil, nil)

	items, _, err := d.fetchAllPosts(context.Background(), "sec1", pageOptions{maxItems: 3})
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, "3", items[2].AwemeID)
	assert.Equal(t, []int64{0, 200}, client.postCalls)
}

func TestFetchAllPostsRequestErrorStopsQuietly(t *testing.T) {
	client := &fakeClient{
		pages: map[int64]*douyin.UserPostResponse{
			0: {
				AwemeList: []douyin.Aweme{awemeAt("1", 100)},
				HasMore:   1,
				MaxCursor: 999,
			},
			// no page at 999: the request fails and the loop keeps what it has
		},
	}
	d := newTestDownloader(t, testConfig(t), client, nil, nil)

	items, restricted, err := d.fetchAllPosts(context.Background(), "sec1", pageOptions{})
	require.NoError(t, err)
	assert.False(t, restricted)
	assert.Len(t, items, 1)
}
