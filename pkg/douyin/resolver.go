package douyin

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	errs "github.com/since25/douyin-downloader/pkg/errors"
)

// Asset is one downloadable component of an item, resolved for a single
// fetch attempt. Suffix is appended to the item's file stem.
type Asset struct {
	URL      string
	Headers  map[string]string
	Suffix   string
	Required bool
}

// ResolveOptions selects which optional sidecar assets to resolve
type ResolveOptions struct {
	Cover  bool
	Music  bool
	Avatar bool
}

// Resolver determines media kind and downloadable URLs for listing items
type Resolver struct {
	signer    Signer
	userAgent string
}

// NewResolver creates a resolver. userAgent is the client identity used for
// requests that do not carry a signed variant.
func NewResolver(signer Signer, userAgent string) *Resolver {
	return &Resolver{signer: signer, userAgent: userAgent}
}

// Resolve returns the media kind and the asset list for one item. The
// primary media assets are required; sidecars (cover, music, avatar) are
// optional and their absence never fails the item. A video item with no
// usable URL yields a resolution error.
func (r *Resolver) Resolve(aweme *Aweme, opts ResolveOptions) (MediaKind, []Asset, error) {
	kind := aweme.MediaKind()
	var assets []Asset

	switch kind {
	case MediaKindVideo:
		primary, err := r.resolveVideoURL(aweme)
		if err != nil {
			return kind, nil, err
		}
		assets = append(assets, *primary)

		if opts.Cover {
			if coverURL := aweme.Video.Cover.First(); coverURL != "" {
				assets = append(assets, Asset{
					URL:     coverURL,
					Headers: DownloadHeaders(r.userAgent),
					Suffix:  "_cover.jpg",
				})
			}
		}
		if opts.Music {
			if musicURL := aweme.Music.PlayURL.First(); musicURL != "" {
				assets = append(assets, Asset{
					URL:     musicURL,
					Headers: DownloadHeaders(r.userAgent),
					Suffix:  "_music.mp3",
				})
			}
		}

	case MediaKindGallery:
		images := r.resolveGalleryURLs(aweme)
		if len(images) == 0 {
			return kind, nil, &errs.Error{
				Type:    errs.ErrorTypeResolution,
				Message: fmt.Sprintf("no images found for aweme %s", aweme.AwemeID),
			}
		}
		assets = append(assets, images...)
	}

	if opts.Avatar {
		if avatarURL := aweme.Author.AvatarLarger.First(); avatarURL != "" {
			assets = append(assets, Asset{
				URL:     avatarURL,
				Headers: DownloadHeaders(r.userAgent),
				Suffix:  "_avatar.jpg",
			})
		}
	}

	return kind, assets, nil
}

// resolveVideoURL selects the primary video stream per the watermark
// avoidance rules: watermark-free candidates first, the platform's own CDN
// preferred, unsigned same-domain candidates signed on the fly, and a
// signed play request built from the internal video reference as fallback.
func (r *Resolver) resolveVideoURL(aweme *Aweme) (*Asset, error) {
	candidates := make([]string, 0, len(aweme.Video.PlayAddr.URLList))
	for _, candidate := range aweme.Video.PlayAddr.URLList {
		if candidate != "" {
			candidates = append(candidates, candidate)
		}
	}

	// Watermark-free variants sort first; SliceStable keeps server order
	// within each class.
	sort.SliceStable(candidates, func(i, j int) bool {
		return watermarkRank(candidates[i]) < watermarkRank(candidates[j])
	})

	var fallback *Asset

	for _, candidate := range candidates {
		parsed, err := url.Parse(candidate)
		if err != nil {
			continue
		}

		if strings.HasSuffix(parsed.Hostname(), "douyin.com") {
			if !strings.Contains(candidate, "X-Bogus=") {
				signed, userAgent, err := r.signer.SignURL(candidate)
				if err != nil {
					return nil, &errs.Error{
						Type:    errs.ErrorTypeResolution,
						Message: fmt.Sprintf("sign video url for aweme %s: %v", aweme.AwemeID, err),
					}
				}
				return &Asset{
					URL:      signed,
					Headers:  DownloadHeaders(userAgent),
					Suffix:   ".mp4",
					Required: true,
				}, nil
			}
			return &Asset{
				URL:      candidate,
				Headers:  DownloadHeaders(r.userAgent),
				Suffix:   ".mp4",
				Required: true,
			}, nil
		}

		fallback = &Asset{
			URL:      candidate,
			Headers:  DownloadHeaders(r.userAgent),
			Suffix:   ".mp4",
			Required: true,
		}
	}

	// No URL-list candidate was usable directly; build a play request from
	// the internal video reference.
	uri := aweme.Video.PlayAddr.URI
	if uri == "" {
		uri = aweme.Video.Vid
	}
	if uri == "" {
		uri = aweme.Video.DownloadAddr.URI
	}
	if uri != "" {
		signed, userAgent, err := r.signer.BuildSignedPath(PlayPath, PlayParams(uri))
		if err != nil {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeResolution,
				Message: fmt.Sprintf("build play request for aweme %s: %v", aweme.AwemeID, err),
			}
		}
		return &Asset{
			URL:      signed,
			Headers:  DownloadHeaders(userAgent),
			Suffix:   ".mp4",
			Required: true,
		}, nil
	}

	if fallback != nil {
		return fallback, nil
	}

	return nil, &errs.Error{
		Type:    errs.ErrorTypeResolution,
		Message: fmt.Sprintf("no playable video URL found for aweme %s", aweme.AwemeID),
	}
}

// resolveGalleryURLs takes the first URL of each image slot in listing
// order; slots without a usable URL are skipped.
func (r *Resolver) resolveGalleryURLs(aweme *Aweme) []Asset {
	var assets []Asset
	index := 0
	for _, image := range aweme.GalleryImages() {
		var imageURL string
		for _, candidate := range image.URLList {
			if candidate != "" {
				imageURL = candidate
				break
			}
		}
		if imageURL == "" {
			continue
		}
		index++
		assets = append(assets, Asset{
			URL:      imageURL,
			Headers:  DownloadHeaders(r.userAgent),
			Suffix:   fmt.Sprintf("_%d%s", index, imageSuffix(imageURL)),
			Required: true,
		})
	}
	return assets
}

func watermarkRank(candidate string) int {
	if strings.Contains(candidate, "watermark=0") {
		return 0
	}
	return 1
}

func imageSuffix(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	if ext := path.Ext(parsed.Path); ext != "" {
		return ext
	}
	return ".jpg"
}
