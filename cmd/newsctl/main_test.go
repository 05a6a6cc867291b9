package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/handler/http/auth"
	"newsdesk/internal/usecase/ingest"
)

/* ───────── ヘルパ ───────── */

const testSecret = "k3x9-Qm2v8Lp0zRt7Yw4Nb6Hc1Fd5Sg0Ja"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

/* ───────── テスト ───────── */

func TestTokenCommand(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", testSecret)

	out, err := execute(t, "token", "--subject", "scheduler", "--ttl", "10m")
	require.NoError(t, err)

	v, err := auth.NewVerifier(testSecret)
	require.NoError(t, err)
	sub, err := v.Verify("Bearer " + strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "scheduler", sub)
}

func TestTokenCommand_WeakSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "password")

	_, err := execute(t, "token")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrWeakSecret)
}

func TestSourcesCommand(t *testing.T) {
	t.Setenv("SOURCES_FILE", "")

	out, err := execute(t, "sources", "--category", string(entity.CategoryTechnology))
	require.NoError(t, err)
	assert.Contains(t, out, "TechCrunch")
	assert.NotContains(t, out, "BBC World")
}

func TestListCommand_UnknownCategory(t *testing.T) {
	_, err := execute(t, "list", "--category", "gossip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("newsctl_test_key: from-file\nnewsctl_test_kept: from-file\n"), 0o600))

	t.Setenv("NEWSCTL_TEST_KEY", "")
	require.NoError(t, os.Unsetenv("NEWSCTL_TEST_KEY"))
	t.Setenv("NEWSCTL_TEST_KEPT", "from-env")

	require.NoError(t, loadConfigFile(path))
	assert.Equal(t, "from-file", os.Getenv("NEWSCTL_TEST_KEY"))
	assert.Equal(t, "from-env", os.Getenv("NEWSCTL_TEST_KEPT"))
}

func TestLoadConfigFile_Missing(t *testing.T) {
	err := loadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	renderSummary(&buf, &ingest.Summary{
		Scraped:  12,
		Inserted: 7,
		Errors:   []string{"Reuters", "Bloomberg"},
		Duration: 1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "Reuters, Bloomberg")
	assert.Contains(t, out, "1.5s")
}

func TestRenderArticles(t *testing.T) {
	published := time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)
	var buf bytes.Buffer
	renderArticles(&buf, []entity.Article{
		{Title: "Ceasefire talks resume", SourceName: "Reuters", Category: entity.CategoryPolitics,
			SourceURL: "https://reuters.example.com/a", PublishedAt: &published},
		{Title: "Chip exports", SourceName: "TechCrunch", Category: entity.CategoryTechnology,
			SourceURL: "https://tc.example.com/b"},
	})

	out := buf.String()
	assert.Contains(t, out, "2026-03-04 05:06")
	assert.Contains(t, out, "Ceasefire talks resume")
	assert.Contains(t, out, "TOTAL")
}
