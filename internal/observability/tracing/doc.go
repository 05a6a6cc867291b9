// Package tracing wires OpenTelemetry into the API server and workers.
//
// InitTracer installs a tracer provider and W3C propagators; Middleware
// opens a server span per HTTP request. Ingestion runs, sources and crawl
// jobs open their own child spans, so one fetch-news request yields a single
// trace covering every scraped source.
//
//	shutdown := tracing.InitTracer("newsdesk-api")
//	defer func() { _ = shutdown(context.Background()) }()
package tracing
