package firecrawl

import (
	"strings"

	"newsdesk/internal/domain/entity"
)

// MapStatus maps a vendor crawl status string to the local crawl state.
// Unknown and in-progress statuses keep the job polling; the poll loop's
// attempt cap turns a job that never settles into CrawlTimedOut.
func MapStatus(vendor string) entity.CrawlState {
	switch strings.ToLower(strings.TrimSpace(vendor)) {
	case "completed", "complete", "done":
		return entity.CrawlCompleted
	case "failed", "failure", "error", "cancelled", "canceled", "aborted":
		return entity.CrawlFailed
	default:
		return entity.CrawlPolling
	}
}
