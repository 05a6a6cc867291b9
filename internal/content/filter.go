package content

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// excludedURLPatterns matches login/admin/search/tag/category/pagination URLs.
var excludedURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)/(login|log-in|signin|sign-in|signup|sign-up|register|logout|auth|oauth|admin|account|accounts|profile|password|reset-password|forgot-password)(/|\?|#|$)`),
	regexp.MustCompile(`(?i)/(search|tag|tags|topic/tag|category|categories|author|authors)(/|\?|#|$)`),
	regexp.MustCompile(`(?i)/page/\d+`),
	regexp.MustCompile(`(?i)[?&](page|p|paged|offset)=\d+`),
	regexp.MustCompile(`(?i)[?&](q|s|query|search)=`),
	regexp.MustCompile(`(?i)pagination`),
	regexp.MustCompile(`(?i)[?&](redirect_to|return_to|returnurl)=`),
	regexp.MustCompile(`(?i)/wp-(admin|login)`),
}

// excludedTitlePatterns matches login prompts, error pages and password-reset content.
var excludedTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(log\s?in|sign\s?in|sign\s?up|register|create (an )?account)\b`),
	regexp.MustCompile(`(?i)\b(log\s?in|sign\s?in) to (continue|your account)`),
	regexp.MustCompile(`(?i)\b(forgot|reset|change)\s+(your\s+)?password\b`),
	regexp.MustCompile(`(?i)^\s*(error\s*)?(400|401|403|404|500|502|503)\b`),
	regexp.MustCompile(`(?i)\bpage not found\b`),
	regexp.MustCompile(`(?i)\baccess denied\b`),
	regexp.MustCompile(`(?i)\bforbidden\b`),
	regexp.MustCompile(`(?i)^\s*(an )?error (occurred|has occurred)`),
	regexp.MustCompile(`(?i)\benable javascript\b`),
	regexp.MustCompile(`(?i)\bcookie (policy|settings|preferences)\b`),
	regexp.MustCompile(`登录|注册|密码|找不到页面|页面不存在|访问被拒绝|出错了`),
}

// assetExtensions are never article pages.
var assetExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true, ".webp": true,
	".ico": true, ".css": true, ".js": true, ".json": true, ".xml": true, ".rss": true,
	".pdf": true, ".zip": true, ".gz": true, ".mp3": true, ".mp4": true, ".webm": true,
	".woff": true, ".woff2": true, ".ttf": true,
}

// articlePathPatterns are the path shapes that suggest an article page.
var articlePathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/\d{4}/\d{1,2}(/\d{1,2})?/`),
	regexp.MustCompile(`/\d{4}-\d{2}-\d{2}`),
	regexp.MustCompile(`/\d{8}/`),
	regexp.MustCompile(`(?i)/(news|article|articles|post|posts|blog|blogs|story|stories)/`),
}

// IsExcludedURL reports whether rawURL belongs to a non-article path
// (login, admin, search, tag, category, pagination and similar).
func IsExcludedURL(rawURL string) bool {
	for _, p := range excludedURLPatterns {
		if p.MatchString(rawURL) {
			return true
		}
	}
	return false
}

// IsExcludedTitle reports whether title looks like a login prompt,
// an error page or password-reset content.
func IsExcludedTitle(title string) bool {
	for _, p := range excludedTitlePatterns {
		if p.MatchString(title) {
			return true
		}
	}
	return false
}

// IsLikelyArticleURL reports whether rawURL is worth crawling as an article
// candidate: it carries a date-like segment or a news/article/post/blog path,
// and is neither an asset file nor a deny-listed path.
func IsLikelyArticleURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	p := strings.ToLower(u.Path)
	if p == "" || p == "/" {
		return false
	}
	if assetExtensions[path.Ext(p)] {
		return false
	}
	if IsExcludedURL(rawURL) {
		return false
	}
	// 末尾スラッシュ付きで判定する
	candidate := p
	if !strings.HasSuffix(candidate, "/") {
		candidate += "/"
	}
	for _, re := range articlePathPatterns {
		if re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// FilterArticleURLs keeps the URLs accepted by IsLikelyArticleURL, in order,
// without duplicates.
func FilterArticleURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] || !IsLikelyArticleURL(u) {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
