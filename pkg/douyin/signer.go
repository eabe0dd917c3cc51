package douyin

import "net/url"

// PlainSigner is the default Signer when no external signing component is
// wired in. It builds complete request URLs but leaves them unsigned, which
// the platform may reject for some endpoints; embedders provide a real
// Signer for authenticated scraping.
type PlainSigner struct {
	// UserAgentValue is the client identity reported with every request
	UserAgentValue string
}

func (s PlainSigner) userAgent() string {
	if s.UserAgentValue != "" {
		return s.UserAgentValue
	}
	return "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
}

// SignURL returns the URL unchanged
func (s PlainSigner) SignURL(rawURL string) (string, string, error) {
	return rawURL, s.userAgent(), nil
}

// BuildSignedPath assembles the request URL without a signature parameter
func (s PlainSigner) BuildSignedPath(path string, params url.Values) (string, string, error) {
	return BaseURL + path + "?" + params.Encode(), s.userAgent(), nil
}
