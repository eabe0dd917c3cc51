// Package retry provides bounded retry with pluggable backoff for
// fallible network operations.
//
// The download pipeline wraps every asset fetch in a Retrier: transient
// network errors are retried with exponential backoff and jitter, while
// typed non-retryable errors (resolution failures, author mismatches)
// surface immediately. Backoff sleeps honor the operation's context so a
// cancelled run does not linger in a retry loop.
package retry
