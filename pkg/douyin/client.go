package douyin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	errs "github.com/since25/douyin-downloader/pkg/errors"
	"github.com/since25/douyin-downloader/pkg/logger"
)

// Signer provides the external URL-signing capability. Request signing is
// platform authentication logic and lives outside this module; every signed
// call also yields the client identity (User-Agent) the signature was
// computed for.
type Signer interface {
	// SignURL signs an already-complete URL
	SignURL(rawURL string) (signed string, userAgent string, err error)
	// BuildSignedPath builds and signs a request for an API path
	BuildSignedPath(path string, params url.Values) (signed string, userAgent string, err error)
}

// Client is the platform API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	signer     Signer
	logger     logger.Logger
}

// NewClient creates a new platform API client
func NewClient(timeout time.Duration, signer Signer, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Referer":         BaseURL + "/",
		},
		baseURL: BaseURL,
		signer:  signer,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// UserAgent returns the client identity used for unsigned requests
func (c *Client) UserAgent() string {
	return c.headers["User-Agent"]
}

// Signer returns the injected signing capability
func (c *Client) Signer() Signer {
	return c.signer
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// errorFromStatus maps a non-2xx response to a typed error
func errorFromStatus(statusCode int) *errs.Error {
	var errType errs.ErrorType
	switch {
	case statusCode == http.StatusTooManyRequests:
		errType = errs.ErrorTypeRateLimit
	case statusCode == http.StatusNotFound:
		errType = errs.ErrorTypeNotFound
	case statusCode >= 500:
		errType = errs.ErrorTypeServerError
	default:
		errType = errs.ErrorTypeUnknown
	}
	return &errs.Error{
		Type:    errType,
		Message: fmt.Sprintf("unexpected status %d", statusCode),
		Code:    statusCode,
	}
}

// GetJSON fetches a URL and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, rawURL string, userAgent string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: err.Error()}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorFromStatus(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("decode response: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// Download streams the body of a media URL. The caller owns the returned
// ReadCloser.
func (c *Client) Download(ctx context.Context, rawURL string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeUnknown, Message: err.Error()}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		resp.Body.Close()
		return nil, errorFromStatus(resp.StatusCode)
	}

	return resp.Body, nil
}

// signedGet builds a signed API URL and decodes the JSON response
func (c *Client) signedGet(ctx context.Context, path string, params url.Values, target interface{}) error {
	signed, userAgent, err := c.signer.BuildSignedPath(path, params)
	if err != nil {
		return &errs.Error{Type: errs.ErrorTypeUnknown, Message: fmt.Sprintf("sign request: %v", err)}
	}
	return c.GetJSON(ctx, signed, userAgent, target)
}

// GetUserInfo fetches the author profile for a sec_uid
func (c *Client) GetUserInfo(ctx context.Context, secUID string) (*UserInfo, error) {
	var resp UserResponse
	if err := c.signedGet(ctx, UserDetailPath, UserDetailParams(secUID), &resp); err != nil {
		return nil, err
	}
	if resp.User.SecUID == "" && resp.User.UID == "" {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: fmt.Sprintf("no user found for sec_uid %s", secUID),
		}
	}
	return &resp.User, nil
}

// GetUserPost fetches one page of the post listing at the given cursor
func (c *Client) GetUserPost(ctx context.Context, secUID string, cursor int64) (*UserPostResponse, error) {
	var resp UserPostResponse
	if err := c.signedGet(ctx, UserPostPath, UserPostParams(secUID, cursor), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAwemeDetail fetches the full detail of a single item. Returns nil
// without error when the platform has no detail for the id.
func (c *Client) GetAwemeDetail(ctx context.Context, awemeID string) (*Aweme, error) {
	var resp DetailResponse
	if err := c.signedGet(ctx, AwemeDetailPath, AwemeDetailParams(awemeID), &resp); err != nil {
		return nil, err
	}
	return resp.AwemeDetail, nil
}
