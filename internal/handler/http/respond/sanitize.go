package respond

import (
	"regexp"
)

var (
	// より具体的なパターンから適用する
	anthropicKeyPattern = regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`)
	openaiKeyPattern    = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)
	firecrawlKeyPattern = regexp.MustCompile(`fc-[a-zA-Z0-9]{10,}`)
	bearerPattern       = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]+`)
	// MyMemory の連絡先メール (de) と API キー (key)
	queryKeyPattern = regexp.MustCompile(`([?&](?:key|de)=)[^&\s"]+`)

	// DSN 内のパスワード
	dbPasswordPattern = regexp.MustCompile(`://([^:/]+):([^@]+)@`)
)

// SanitizeError returns err's message with API keys, bearer tokens and DSN
// passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = anthropicKeyPattern.ReplaceAllString(msg, "sk-ant-****")
	msg = openaiKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = firecrawlKeyPattern.ReplaceAllString(msg, "fc-****")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = queryKeyPattern.ReplaceAllString(msg, "${1}****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
