package functions

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/handler/http/respond"
	"newsdesk/internal/observability/logging"
	"newsdesk/internal/usecase/translate"
)

// Translator translates one article.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (entity.TranslationResult, error)
}

// rejectedResponse carries the upstream rejection together with the
// untranslated fallback text.
type rejectedResponse struct {
	Error string `json:"error"`
	entity.TranslationResult
}

// TranslateNewsHandler serves POST /functions/v1/translate-news.
type TranslateNewsHandler struct {
	Svc Translator
}

func (h TranslateNewsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req translate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Svc.Translate(r.Context(), req)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, res)
	case errors.Is(err, translate.ErrTitleRequired):
		respond.Error(w, http.StatusBadRequest, "Title is required")
	case errors.Is(err, translate.ErrRateLimited):
		respond.JSON(w, http.StatusTooManyRequests, rejectedResponse{
			Error:             "Rate limit exceeded, please try again later",
			TranslationResult: res,
		})
	case errors.Is(err, translate.ErrPaymentRequired):
		respond.JSON(w, http.StatusPaymentRequired, rejectedResponse{
			Error:             "Translation credits exhausted",
			TranslationResult: res,
		})
	default:
		logging.FromContext(r.Context()).Error("translation failed",
			slog.String("error", respond.SanitizeError(err)))
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
