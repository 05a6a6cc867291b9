// Package functions serves the two function endpoints: fetch-news, which
// starts an ingestion run, and translate-news, which translates one article
// for a reader.
package functions

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"newsdesk/internal/handler/http/respond"
	"newsdesk/internal/observability/logging"
	"newsdesk/internal/usecase/ingest"
)

// Ingester runs one ingestion pass.
type Ingester interface {
	Run(ctx context.Context, req ingest.Request) (*ingest.Summary, error)
}

type fetchResponse struct {
	Success  bool     `json:"success"`
	Scraped  int      `json:"scraped"`
	Inserted int64    `json:"inserted"`
	Errors   []string `json:"errors,omitempty"`
}

// FetchNewsHandler serves POST /functions/v1/fetch-news.
type FetchNewsHandler struct {
	// Ingest is nil when the scraping vendor has no API key.
	Ingest Ingester
	// Timeout bounds one run. 0 means the request context only.
	Timeout time.Duration
}

func (h FetchNewsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	logger := logging.FromContext(r.Context())

	if h.Ingest == nil {
		logger.Error("scraping vendor not configured")
		respond.Failure(w, http.StatusInternalServerError, "Firecrawl not configured", nil)
		return
	}

	req := decodeFetchRequest(r, logger)

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	sum, err := h.Ingest.Run(ctx, req)
	if err != nil {
		logger.Error("ingestion run failed",
			slog.Any("sources", req.Sources),
			slog.String("category", req.Category),
			slog.String("error", respond.SanitizeError(err)))
		extra := map[string]any{"partial": true}
		if sum != nil {
			extra["scraped"] = sum.Scraped
			extra["inserted"] = sum.Inserted
		}
		respond.Failure(w, http.StatusInternalServerError, respond.SanitizeError(err), extra)
		return
	}

	respond.JSON(w, http.StatusOK, fetchResponse{
		Success:  true,
		Scraped:  sum.Scraped,
		Inserted: sum.Inserted,
		Errors:   sum.Errors,
	})
}

// decodeFetchRequest reads the optional run filter. A missing or unreadable
// body selects every source.
func decodeFetchRequest(r *http.Request, logger *slog.Logger) ingest.Request {
	var req ingest.Request
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		return req
	}
	if err := json.Unmarshal(body, &req); err != nil {
		logger.Debug("ignoring unparsable fetch request body", slog.Any("error", err))
		return ingest.Request{}
	}
	return req
}

func methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", "POST, OPTIONS")
	respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
}
