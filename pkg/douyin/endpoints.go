package douyin

import (
	"net/url"
	"strconv"
)

const (
	// BaseURL is the base URL for the platform
	BaseURL = "https://www.douyin.com"

	// UserDetailPath is the endpoint for author profiles
	UserDetailPath = "/aweme/v1/web/user/profile/other/"

	// UserPostPath is the endpoint for the paginated post listing
	UserPostPath = "/aweme/v1/web/aweme/post/"

	// AwemeDetailPath is the endpoint for a single item's full detail
	AwemeDetailPath = "/aweme/v1/web/aweme/detail/"

	// PlayPath is the endpoint for the signed play-request fallback
	PlayPath = "/aweme/v1/play/"

	// PageSize is the number of items requested per listing page
	PageSize = 20
)

// UserPostParams builds the query parameters for one listing page
func UserPostParams(secUID string, cursor int64) url.Values {
	params := url.Values{}
	params.Set("sec_user_id", secUID)
	params.Set("max_cursor", formatInt(cursor))
	params.Set("count", formatInt(PageSize))
	return params
}

// UserDetailParams builds the query parameters for an author profile request
func UserDetailParams(secUID string) url.Values {
	params := url.Values{}
	params.Set("sec_user_id", secUID)
	return params
}

// AwemeDetailParams builds the query parameters for a detail request
func AwemeDetailParams(awemeID string) url.Values {
	params := url.Values{}
	params.Set("aweme_id", awemeID)
	return params
}

// PlayParams builds the fixed parameters of the play-request fallback:
// highest resolution, no watermark, live playback.
func PlayParams(videoID string) url.Values {
	params := url.Values{}
	params.Set("video_id", videoID)
	params.Set("ratio", "1080p")
	params.Set("line", "0")
	params.Set("is_play_url", "1")
	params.Set("watermark", "0")
	params.Set("source", "PackSourceEnum_PUBLISH")
	return params
}

// DownloadHeaders builds the request headers for asset downloads
func DownloadHeaders(userAgent string) map[string]string {
	return map[string]string{
		"Referer":    BaseURL + "/",
		"Origin":     BaseURL,
		"Accept":     "*/*",
		"User-Agent": userAgent,
	}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
