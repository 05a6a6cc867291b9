// Package fetcher provides the time-boxed, retrying HTTP client every outbound
// call goes through, and the optional article-page enrichment built on it.
package fetcher

import "errors"

var (
	// ErrTimeout indicates a request exceeded its per-call timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrInvalidURL indicates a URL failed validation before any request was made.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP indicates a URL resolves to a private, loopback or link-local address.
	ErrPrivateIP = errors.New("private IP address not allowed")

	// ErrTooManyRedirects indicates the redirect chain exceeded the limit.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response body exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrReadabilityFailed indicates no readable text could be extracted.
	ErrReadabilityFailed = errors.New("readability extraction failed")
)
