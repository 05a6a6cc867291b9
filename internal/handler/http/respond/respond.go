// Package respond writes JSON responses for the function endpoints.
// Error bodies never carry internal details: they are logged with secrets
// masked and replaced by a generic message.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// JSON writes v as JSON with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// ヘッダー送信済みのためログのみ
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, code int, msg string) {
	JSON(w, code, map[string]string{"error": msg})
}

// Failure writes the function failure envelope {"success": false, "error": msg}.
// extra fields are merged into the body.
func Failure(w http.ResponseWriter, code int, msg string, extra map[string]any) {
	body := map[string]any{"success": false, "error": msg}
	for k, v := range extra {
		body[k] = v
	}
	JSON(w, code, body)
}

// safeFragments mark error messages that are fine to show to callers.
var safeFragments = []string{
	"required",
	"invalid",
	"not found",
	"must be",
	"cannot be",
	"too long",
	"too large",
}

// SafeMessage returns err's message when it is a caller-facing validation
// message and the status is below 500; otherwise it logs the sanitized error
// and returns "internal server error".
func SafeMessage(code int, err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if code < http.StatusInternalServerError {
		lower := strings.ToLower(msg)
		for _, f := range safeFragments {
			if strings.Contains(lower, f) {
				return msg
			}
		}
	}
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	return "internal server error"
}

// SafeError writes {"error": SafeMessage(code, err)}.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	Error(w, code, SafeMessage(code, err))
}
