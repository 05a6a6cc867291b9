// Package resilience provides reliability and fault tolerance patterns for the application.
//
// The sub-packages cover:
//   - circuitbreaker: gobreaker-backed breakers for the scraping vendor, feeds,
//     translation backends and the article store
//   - retry: bounded retry with exponential or linear backoff and a pluggable
//     retryability classifier
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FirecrawlConfig())
//	var body []byte
//	err := retry.WithBackoff(ctx, retry.VendorConfig(2), func() error {
//	    var err error
//	    body, err = circuitbreaker.Do(cb, func() ([]byte, error) {
//	        return callVendor(ctx)
//	    })
//	    return err
//	})
package resilience
