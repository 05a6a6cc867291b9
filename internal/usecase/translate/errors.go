// Package translate provides the on-demand article translation use case.
// Requests are normalized, short-circuited when no translation is needed and
// otherwise sent to a pluggable Translator backend. A failing backend never
// fails the request: the caller gets the original text back.
package translate

import "errors"

var (
	// ErrTitleRequired is returned when the request has no title.
	ErrTitleRequired = errors.New("title is required")

	// ErrRateLimited means the upstream translation API rejected the call
	// because of its request quota (HTTP 429).
	ErrRateLimited = errors.New("translation rate limit exceeded")

	// ErrPaymentRequired means the upstream account is out of credits (HTTP 402).
	ErrPaymentRequired = errors.New("translation credits exhausted")

	// ErrMalformedReply is returned when a backend reply holds no usable JSON object.
	ErrMalformedReply = errors.New("malformed translation reply")
)
