// Package scraper orchestrates catalog acquisition for one author: listing
// pagination with restriction detection, browser-fallback reconciliation,
// dedup filtering and the rate-limited concurrent asset pipeline.
package scraper
