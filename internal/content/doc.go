// Package content classifies and extracts article candidates from rendered pages.
//
// The package holds the static deny-lists used to reject non-article URLs and
// non-content titles, the "likely article" heuristic used to narrow site maps,
// and the ArticleExtractor strategies that turn vendor-rendered markdown into
// candidate titles and links.
//
// Filters are applied after candidate extraction, never before: titles and URLs
// are only known once a page has been fetched. The heuristics are intentionally
// simple pattern lists and word-overlap matching; they may misclassify a
// legitimate article, and that trade-off is accepted.
package content
