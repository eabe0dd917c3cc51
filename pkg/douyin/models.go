package douyin

import (
	"regexp"
	"strings"
)

// MediaKind classifies the primary media of an aweme
type MediaKind string

const (
	MediaKindVideo   MediaKind = "video"
	MediaKindGallery MediaKind = "gallery"
)

// URLList wraps the platform's url_list containers
type URLList struct {
	URLList []string `json:"url_list"`
}

// First returns the first non-empty URL, or ""
func (u URLList) First() string {
	for _, candidate := range u.URLList {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Author is the creator of an aweme
type Author struct {
	UID          string  `json:"uid"`
	SecUID       string  `json:"sec_uid"`
	Nickname     string  `json:"nickname"`
	AvatarLarger URLList `json:"avatar_larger"`
}

// PlayAddr carries the playable stream candidates for a video
type PlayAddr struct {
	URI     string   `json:"uri"`
	URLList []string `json:"url_list"`
}

// DownloadAddr carries the download stream reference for a video
type DownloadAddr struct {
	URI string `json:"uri"`
}

// Video is the video payload of an aweme
type Video struct {
	PlayAddr     PlayAddr     `json:"play_addr"`
	DownloadAddr DownloadAddr `json:"download_addr"`
	Cover        URLList      `json:"cover"`
	Vid          string       `json:"vid"`
}

// Music is the audio track attached to an aweme
type Music struct {
	PlayURL URLList `json:"play_url"`
}

// Image is one slot of a gallery post
type Image struct {
	URLList []string `json:"url_list"`
}

// ImagePostInfo is present on gallery posts
type ImagePostInfo struct {
	Images []Image `json:"images"`
}

// TextExtra carries hashtag annotations on the description
type TextExtra struct {
	HashtagName string `json:"hashtag_name"`
	TagName     string `json:"tag_name"`
}

// Cha is a challenge (topic) the aweme participates in
type Cha struct {
	ChaName string `json:"cha_name"`
	Name    string `json:"name"`
}

// Aweme is one listing item. Immutable once received; AwemeID is the
// cross-system join key.
type Aweme struct {
	AwemeID       string         `json:"aweme_id"`
	Desc          string         `json:"desc"`
	CreateTime    int64          `json:"create_time"`
	Author        Author         `json:"author"`
	Video         Video          `json:"video"`
	Music         Music          `json:"music"`
	ImagePostInfo *ImagePostInfo `json:"image_post_info,omitempty"`
	Images        []Image        `json:"images,omitempty"`
	TextExtra     []TextExtra    `json:"text_extra,omitempty"`
	ChaList       []Cha          `json:"cha_list,omitempty"`
}

// MediaKind derives the media kind from the item shape: an image-post
// payload or image list means gallery, everything else is a video.
func (a *Aweme) MediaKind() MediaKind {
	if (a.ImagePostInfo != nil && len(a.ImagePostInfo.Images) > 0) || len(a.Images) > 0 {
		return MediaKindGallery
	}
	return MediaKindVideo
}

// GalleryImages returns the gallery slots, preferring the image-post payload
func (a *Aweme) GalleryImages() []Image {
	if a.ImagePostInfo != nil && len(a.ImagePostInfo.Images) > 0 {
		return a.ImagePostInfo.Images
	}
	return a.Images
}

var hashtagPattern = regexp.MustCompile(`#([^\s#]+)`)

// Tags collects hashtags from text_extra, cha_list and the description,
// normalized and deduplicated in first-seen order.
func (a *Aweme) Tags() []string {
	var tags []string
	seen := make(map[string]bool)

	appendTag := func(raw string) {
		tag := strings.TrimPrefix(strings.TrimSpace(raw), "#")
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	for _, extra := range a.TextExtra {
		appendTag(extra.HashtagName)
		appendTag(extra.TagName)
	}
	for _, cha := range a.ChaList {
		appendTag(cha.ChaName)
		appendTag(cha.Name)
	}
	for _, match := range hashtagPattern.FindAllStringSubmatch(a.Desc, -1) {
		appendTag(match[1])
	}

	return tags
}

// NotLoginModule signals a login prompt embedded in a listing response
type NotLoginModule struct {
	GuideLoginTipExist bool `json:"guide_login_tip_exist"`
}

// UserPostResponse is one page of the user post listing API
type UserPostResponse struct {
	AwemeList      []Aweme         `json:"aweme_list"`
	HasMore        int             `json:"has_more"`
	MaxCursor      int64           `json:"max_cursor"`
	StatusCode     int             `json:"status_code"`
	NotLoginModule *NotLoginModule `json:"not_login_module,omitempty"`
}

// UserInfo is the author profile as returned by the user detail API
type UserInfo struct {
	UID        string `json:"uid"`
	SecUID     string `json:"sec_uid"`
	Nickname   string `json:"nickname"`
	AwemeCount int    `json:"aweme_count"`
}

// UserResponse wraps the user detail API payload
type UserResponse struct {
	User       UserInfo `json:"user"`
	StatusCode int      `json:"status_code"`
}

// DetailResponse wraps the aweme detail API payload
type DetailResponse struct {
	AwemeDetail *Aweme `json:"aweme_detail"`
	StatusCode  int    `json:"status_code"`
}
