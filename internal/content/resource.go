package content

import (
	"regexp"
	"strings"

	"newsdesk/internal/domain/entity"
)

// ResourceTitlePrefix marks pseudo-articles produced from a resource directory.
const ResourceTitlePrefix = "[资源推荐] "

var (
	// **Name**\n<description>\n<click-count>](<redirect-url>)
	resourceEntryPattern = regexp.MustCompile(`\*\*([^*\n]+)\*\*[ \t]*\n+[ \t]*([^\n]*)\n+[ \t]*([0-9][0-9,.]*[kKwW万]?)\]\((https?://[^)\s]+)\)`)
	boldNamePattern      = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	redirectLinkPattern  = regexp.MustCompile(`\]\((https?://[^)\s]*(?:/go/|/goto|/link/|/out/|/jump|redirect|[?&]url=|[?&]target=)[^)\s]*)\)`)
)

// ResourceDirectoryExtractor extracts recommended resources from a partner's
// directory page. Every resource becomes a pseudo-article titled
// "[资源推荐] <name>" under the source's category.
//
// The primary strategy matches the full entry layout; when it yields nothing,
// bold names and redirect-style links are collected separately and paired by
// position up to the shorter list.
type ResourceDirectoryExtractor struct{}

// NewResourceDirectoryExtractor returns a ResourceDirectoryExtractor.
func NewResourceDirectoryExtractor() *ResourceDirectoryExtractor {
	return &ResourceDirectoryExtractor{}
}

// Extract implements ArticleExtractor.
func (e *ResourceDirectoryExtractor) Extract(page Page, src entity.Source) []Candidate {
	type entry struct{ name, desc, link string }
	var entries []entry

	for _, m := range resourceEntryPattern.FindAllStringSubmatch(page.Markdown, -1) {
		entries = append(entries, entry{name: m[1], desc: m[2], link: m[4]})
	}

	// フォールバック: 名前とリンクを位置で対応付ける
	if len(entries) == 0 {
		names := boldNamePattern.FindAllStringSubmatch(page.Markdown, -1)
		links := redirectLinkPattern.FindAllStringSubmatch(page.Markdown, -1)
		n := min(len(names), len(links))
		for i := 0; i < n; i++ {
			entries = append(entries, entry{name: names[i][1], link: links[i][1]})
		}
	}

	seen := make(map[string]bool, len(entries))
	out := make([]Candidate, 0, len(entries))
	for _, en := range entries {
		name := strings.TrimSpace(en.name)
		if name == "" {
			continue
		}
		title := ResourceTitlePrefix + name
		if seen[title] || !acceptTitle(title) || IsExcludedURL(en.link) {
			continue
		}
		seen[title] = true
		out = append(out, Candidate{
			Title:    title,
			Summary:  strings.TrimSpace(en.desc),
			URL:      en.link,
			ImageURL: page.Metadata.OGImage,
			Category: src.Category,
		})
	}
	return out
}
