// Package ratelimit provides request pacing for the platform API and
// asset downloads.
//
// One limiter instance is shared by every network-issuing operation:
// listing page requests, fallback detail fetches and asset downloads all
// acquire a permit before touching the wire. The implementation is a
// token bucket from golang.org/x/time/rate with burst 1, so permits are
// spaced evenly at the configured requests-per-second rate and are safe
// to acquire from concurrent workers.
package ratelimit
