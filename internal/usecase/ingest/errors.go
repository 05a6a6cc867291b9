// Package ingest runs one ingestion pass: it narrows the source registry,
// scrapes every selected source with the scraper for its kind, deduplicates
// and optionally enriches the results, and writes them to the article store
// in duplicate-ignoring chunks.
package ingest

import "errors"

// Sentinel errors for ingestion runs.
var (
	// ErrNoScraper indicates that no scraper is registered for a source kind.
	ErrNoScraper = errors.New("no scraper registered for source kind")

	// ErrRunAborted indicates that the run stopped before all sources were
	// processed. Articles from completed chunks may already be stored.
	ErrRunAborted = errors.New("ingestion run aborted")

	// ErrScraperPanic indicates that a scraper panicked; the panic is contained
	// to that source.
	ErrScraperPanic = errors.New("scraper panicked")
)
