package entity

// CrawlState is the local view of an asynchronous vendor crawl job.
// Jobs exist only for the duration of one ingestion run and are never persisted.
type CrawlState string

const (
	CrawlSubmitted CrawlState = "submitted"
	CrawlPolling   CrawlState = "polling"
	CrawlCompleted CrawlState = "completed"
	CrawlFailed    CrawlState = "failed"
	CrawlTimedOut  CrawlState = "timed_out"
)

// IsTerminal reports whether no further polling is required.
func (s CrawlState) IsTerminal() bool {
	return s == CrawlCompleted || s == CrawlFailed || s == CrawlTimedOut
}

// CrawlJob tracks a submitted crawl job through the polling loop.
type CrawlJob struct {
	ID       string
	State    CrawlState
	Attempts int
}

// TranslationResult is the translated title and optional summary for one article.
// A nil TranslatedSummary means the request carried no summary.
type TranslationResult struct {
	TranslatedTitle   string  `json:"translatedTitle"`
	TranslatedSummary *string `json:"translatedSummary"`
}
