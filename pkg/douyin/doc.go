// Package douyin implements the platform API client, payload models and
// asset resolution.
//
// Request signing and authentication are external capabilities injected
// through the Signer interface; the client only builds parameters and
// decodes responses. The Resolver turns one listing item into the set of
// downloadable assets (primary media plus optional sidecars), applying the
// watermark-avoidance URL selection rules.
package douyin
