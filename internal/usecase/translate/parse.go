package translate

import (
	"encoding/json"
	"regexp"
	"strings"

	"newsdesk/internal/domain/entity"
)

// LLM 応答は ```json フェンスや前置きの文章を含むことがある
var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	braceBlock  = regexp.MustCompile(`(?s)\{.*\}`)
)

type jsonReply struct {
	TranslatedTitle   string  `json:"translatedTitle"`
	TranslatedSummary *string `json:"translatedSummary"`
}

// ParseJSONReply extracts the translation object from a model reply.
// It tries the whole reply first, then the first fenced code block, then the
// widest {...} span. It fails with ErrMalformedReply only when all three fail
// or the object has no title.
func ParseJSONReply(reply string) (entity.TranslationResult, error) {
	candidates := []string{strings.TrimSpace(reply)}
	if m := fencedBlock.FindStringSubmatch(reply); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := braceBlock.FindString(reply); m != "" {
		candidates = append(candidates, m)
	}

	for _, c := range candidates {
		var r jsonReply
		if err := json.Unmarshal([]byte(c), &r); err != nil {
			continue
		}
		if r.TranslatedTitle == "" {
			continue
		}
		return entity.TranslationResult{
			TranslatedTitle:   r.TranslatedTitle,
			TranslatedSummary: r.TranslatedSummary,
		}, nil
	}
	return entity.TranslationResult{}, ErrMalformedReply
}
