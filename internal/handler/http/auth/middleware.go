package auth

import (
	"context"
	"log/slog"
	"net/http"

	"newsdesk/internal/handler/http/respond"
	"newsdesk/internal/observability/logging"
)

type ctxKey string

const ctxSubject ctxKey = "subject"

// SubjectFromContext returns the authenticated token subject, or "".
func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(ctxSubject).(string)
	return s
}

// Require rejects requests without a valid bearer token with 401 and the
// function failure envelope. CORS answers preflight requests before this
// middleware runs.
func Require(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := v.Verify(r.Header.Get("Authorization"))
			if err != nil {
				logging.FromContext(r.Context()).Warn("authentication failed",
					slog.String("path", r.URL.Path),
					slog.String("reason", err.Error()))
				RecordAuthRequest(resultFor(err))
				respond.Failure(w, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}
			RecordAuthRequest("success")
			ctx := context.WithValue(r.Context(), ctxSubject, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
