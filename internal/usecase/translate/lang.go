package translate

import "strings"

// Supported language codes.
const (
	LangZhCN = "zh-CN"
	LangZhTW = "zh-TW"
	LangEN   = "en"
	LangJA   = "ja"
	LangKO   = "ko"
)

// DefaultTarget is used when the requested target is empty or unknown.
const DefaultTarget = LangZhCN

var targetCodes = map[string]string{
	"zh-cn": LangZhCN,
	"zh-tw": LangZhTW,
	"en":    LangEN,
	"ja":    LangJA,
	"ko":    LangKO,
}

// NormalizeTarget maps a requested target language onto a supported code.
// Matching is case-insensitive; anything unknown becomes DefaultTarget.
func NormalizeTarget(lang string) string {
	if code, ok := targetCodes[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return code
	}
	return DefaultTarget
}

// DetectSource guesses the language of s: any CJK unified ideograph in
// U+4E00..U+9FA5 means simplified Chinese, everything else is English.
func DetectSource(s string) string {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FA5 {
			return LangZhCN
		}
	}
	return LangEN
}
