package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExcludedURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.bbc.com/news/articles/c0abc123", false},
		{"https://techcrunch.com/2026/01/02/startup-raises-series-b/", false},
		{"https://www.defense.gov/News/", false},
		{"https://example.com/login", true},
		{"https://example.com/account/settings", true},
		{"https://example.com/signin?next=/", true},
		{"https://example.com/sign-up/", true},
		{"https://example.com/admin/posts", true},
		{"https://example.com/search?q=war", true},
		{"https://example.com/tag/politics/", true},
		{"https://example.com/category/world", true},
		{"https://example.com/news/page/2", true},
		{"https://example.com/news?page=3", true},
		{"https://example.com/forgot-password", true},
		{"https://example.com/wp-login.php", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExcludedURL(tt.url))
		})
	}
}

func TestIsExcludedTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Parliament passes the annual budget bill", false},
		{"Why the login experience of banks is broken", false},
		{"Log in to your account", true},
		{"Sign in", true},
		{"Sign up for our newsletter today", true},
		{"Forgot your password?", true},
		{"Reset password", true},
		{"404 - Page Not Found", true},
		{"Page not found", true},
		{"Access Denied", true},
		{"请先登录后查看全文", true},
		{"找不到页面", true},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExcludedTitle(tt.title))
		})
	}
}

func TestIsLikelyArticleURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/2026/01/02/some-story", true},
		{"https://example.com/2026-01-02-some-story", true},
		{"https://example.com/news/some-story", true},
		{"https://example.com/article/123", true},
		{"https://example.com/post/hello-world", true},
		{"https://example.com/blog/launch", true},
		{"https://example.com/", false},
		{"https://example.com/about", false},
		{"https://example.com/news/photo.jpg", false},
		{"https://example.com/blog/feed.xml", false},
		{"https://example.com/news/tag/world", false},
		{"https://example.com/news/page/2", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyArticleURL(tt.url))
		})
	}
}

func TestFilterArticleURLs(t *testing.T) {
	in := []string{
		"https://example.com/",
		"https://example.com/news/a",
		"https://example.com/news/a",
		"https://example.com/login",
		"https://example.com/2026/01/b",
	}
	assert.Equal(t, []string{"https://example.com/news/a", "https://example.com/2026/01/b"}, FilterArticleURLs(in))
}
