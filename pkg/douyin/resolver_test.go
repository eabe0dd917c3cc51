package douyin

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/since25/douyin-downloader/pkg/errors"
)

type fakeSigner struct {
	signedURLs []string
}

func (s *fakeSigner) SignURL(rawURL string) (string, string, error) {
	s.signedURLs = append(s.signedURLs, rawURL)
	return rawURL + "&X-Bogus=test", "signed-agent", nil
}

func (s *fakeSigner) BuildSignedPath(path string, params url.Values) (string, string, error) {
	return BaseURL + path + "?" + params.Encode() + "&X-Bogus=test", "signed-agent", nil
}

func videoAweme(urls ...string) *Aweme {
	return &Aweme{
		AwemeID: "7123456789012345678",
		Video:   Video{PlayAddr: PlayAddr{URLList: urls}},
	}
}

func TestResolveWatermarkPreference(t *testing.T) {
	signer := &fakeSigner{}
	resolver := NewResolver(signer, "default-agent")

	clean := "https://v26.douyin.com/video/1?watermark=0"
	marked := "https://v26.douyin.com/video/1?watermark=1"
	aweme := videoAweme(marked, clean)

	kind, assets, err := resolver.Resolve(aweme, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, MediaKindVideo, kind)
	require.Len(t, assets, 1)

	// The watermark-free candidate wins and is signed; the marked variant
	// is never used.
	assert.Equal(t, clean+"&X-Bogus=test", assets[0].URL)
	assert.True(t, assets[0].Required)
	assert.Equal(t, "signed-agent", assets[0].Headers["User-Agent"])
	require.Len(t, signer.signedURLs, 1)
	assert.Equal(t, clean, signer.signedURLs[0])
}

func TestResolveSignedCandidateUsedUnmodified(t *testing.T) {
	signer := &fakeSigner{}
	resolver := NewResolver(signer, "default-agent")

	presigned := "https://v26.douyin.com/video/1?watermark=0&X-Bogus=existing"
	aweme := videoAweme(presigned)

	_, assets, err := resolver.Resolve(aweme, ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, presigned, assets[0].URL)
	assert.Empty(t, signer.signedURLs, "an already-signed candidate must not be re-signed")
	assert.Equal(t, "default-agent", assets[0].Headers["User-Agent"])
}

func TestResolvePlayPathFallback(t *testing.T) {
	resolver := NewResolver(&fakeSigner{}, "default-agent")

	aweme := videoAweme()
	aweme.Video.PlayAddr.URI = "v0200fg10000test"

	_, assets, err := resolver.Resolve(aweme, ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, assets, 1)

	assert.Contains(t, assets[0].URL, PlayPath)
	assert.Contains(t, assets[0].URL, "video_id=v0200fg10000test")
	assert.Contains(t, assets[0].URL, "ratio=1080p")
	assert.Contains(t, assets[0].URL, "watermark=0")
}

func TestResolvePlayPathPreferredOverForeignCDN(t *testing.T) {
	resolver := NewResolver(&fakeSigner{}, "default-agent")

	aweme := videoAweme("https://cdn.example.com/video/1")
	aweme.Video.Vid = "vid-fallback"

	_, assets, err := resolver.Resolve(aweme, ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Contains(t, assets[0].URL, "video_id=vid-fallback")
}

func TestResolveForeignCDNFallback(t *testing.T) {
	resolver := NewResolver(&fakeSigner{}, "default-agent")

	foreign := "https://cdn.example.com/video/1"
	aweme := videoAweme(foreign)

	_, assets, err := resolver.Resolve(aweme, ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, foreign, assets[0].URL)
}

func TestResolveNoPlayableURL(t *testing.T) {
	resolver := NewResolver(&fakeSigner{}, "default-agent")

	_, _, err := resolver.Resolve(videoAweme(), ResolveOptions{})
	require.Error(t, err)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeResolution, apiErr.Type)
}

func TestResolveSidecars(t *testing.T) {
	resolver := NewResolver(&fakeSigner{}, "default-agent")

	aweme := videoAweme("https://v26.douyin.com/video/1?watermark=0&X-Bogus=x")
	aweme.Video.Cover = URLList{URLList: []string{"https://p3.douyin.com/cover.jpeg"}}
	aweme.Music.PlayURL = URLList{URLList: []string{"https://sf6.douyin.com/music.mp3"}}
	aweme.Author.AvatarLarger = URLList{URLList: []string{"https://p3.douyin.com/avatar.jpeg"}}

	_, assets, err := resolver.Resolve(aweme, ResolveOptions{Cover: true, Music: true, Avatar: true})
	require.NoError(t, err)
	require.Len(t, assets, 4)

	var suffixes []string
	for _, asset := range assets {
		suffixes = append(suffixes, asset.Suffix)
		if asset.Suffix != ".mp4" {
			assert.False(t, asset.Required, "sidecar %s must be optional", asset.Suffix)
		}
	}
	assert.Equal(t, []string{".mp4", "_cover.jpg", "_music.mp3", "_avatar.jpg"}, suffixes)
}

func TestResolveGallery(t *testing.T) {
	resolver := NewResolver(&fakeSigner{}, "default-agent")

	aweme := &Aweme{
		AwemeID: "7123456789012345678",
		ImagePostInfo: &ImagePostInfo{Images: []Image{
			{URLList: []string{"https://p3.douyin.com/img1.webp"}},
			{URLList: nil}, // unusable slot is skipped
			{URLList: []string{"https://p3.douyin.com/img3"}},
		}},
	}

	kind, assets, err := resolver.Resolve(aweme, ResolveOptions{})
	require.NoError(t, err)
	assert.Equal(t, MediaKindGallery, kind)
	require.Len(t, assets, 2)

	assert.Equal(t, "_1.webp", assets[0].Suffix)
	assert.True(t, assets[0].Required)
	assert.Equal(t, "_2.jpg", assets[1].Suffix, "missing extension defaults to .jpg")
	assert.True(t, strings.HasSuffix(assets[0].URL, "img1.webp"))
}

func TestResolveGalleryEmpty(t *testing.T) {
	resolver := NewResolver(&fakeSigner{}, "default-agent")

	aweme := &Aweme{
		AwemeID:       "7123456789012345678",
		ImagePostInfo: &ImagePostInfo{Images: []Image{{URLList: nil}}},
	}

	_, _, err := resolver.Resolve(aweme, ResolveOptions{})
	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeResolution, apiErr.Type)
}
