package translator

import (
	"encoding/json"
	"fmt"

	"newsdesk/internal/usecase/translate"
	"newsdesk/internal/utils/text"
)

// maxPromptRunes caps each field sent to a model.
const maxPromptRunes = 4000

const systemPrompt = `You are a professional news translator. ` +
	`Reply with a single JSON object and nothing else, using exactly these keys: ` +
	`{"translatedTitle": string, "translatedSummary": string or null}. ` +
	`Keep names, numbers and units accurate. Do not add commentary.`

// buildPrompt renders the user message for an LLM backend.
func buildPrompt(in translate.Input) string {
	payload := map[string]any{"title": text.Truncate(in.Title, maxPromptRunes)}
	if in.Summary != nil && *in.Summary != "" {
		payload["summary"] = text.Truncate(*in.Summary, maxPromptRunes)
	} else {
		payload["summary"] = nil
	}
	// map のキー順は Marshal でソートされる
	body, _ := json.Marshal(payload)
	return fmt.Sprintf("Translate the following news item from %s to %s. "+
		"If summary is null, set translatedSummary to null.\n%s",
		languageName(in.Source), languageName(in.Target), body)
}
