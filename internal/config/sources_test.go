package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/domain/entity"
)

/* ─── ヘルパ ─── */

func writeSourcesFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func names(sources []entity.Source) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.Name)
	}
	return out
}

/* ─── テスト ─── */

func TestDefaultSources_Valid(t *testing.T) {
	r, err := NewRegistry(DefaultSources())
	require.NoError(t, err)
	assert.Len(t, r.All(), 10)

	cnmd, ok := r.Lookup("China MND")
	require.True(t, ok)
	assert.Equal(t, entity.KindDeepCrawl, cnmd.Kind)

	partner, ok := r.Lookup(PartnerDirectoryName)
	require.True(t, ok)
	assert.Equal(t, entity.KindResourceDirectory, partner.Kind)
	assert.Equal(t, entity.CategoryWeiruan, partner.Category)

	var special []string
	for _, s := range r.All() {
		if s.Kind.IsSpecial() {
			special = append(special, s.Name)
		}
	}
	assert.Equal(t, []string{"China MND", PartnerDirectoryName}, special)
}

func TestDefaultSources_PartnerDirectoryURLOverride(t *testing.T) {
	t.Setenv("PARTNER_DIRECTORY_URL", "https://resources.partner.example.org/list")

	r, err := NewRegistry(DefaultSources())
	require.NoError(t, err)
	partner, ok := r.Lookup(PartnerDirectoryName)
	require.True(t, ok)
	assert.Equal(t, "https://resources.partner.example.org/list", partner.URL)

	assert.Equal(t, defaultPartnerDirectoryURL, defaultSources[slices.IndexFunc(defaultSources, func(s entity.Source) bool {
		return s.Name == PartnerDirectoryName
	})].URL, "the built-in table is not mutated")
}

func TestDefaultSources_ReturnsCopy(t *testing.T) {
	a := DefaultSources()
	a[0].Name = "mutated"
	assert.Equal(t, "BBC World", DefaultSources()[0].Name)
}

func TestRegistry_Filter(t *testing.T) {
	r, err := NewRegistry(DefaultSources())
	require.NoError(t, err)

	tests := []struct {
		name     string
		names    []string
		category string
		want     []string
	}{
		{"no filter", nil, "", names(DefaultSources())},
		{"by name", []string{"Reuters", "TechCrunch", "Unknown"}, "", []string{"Reuters", "TechCrunch"}},
		{"by category", nil, "technology", []string{"TechCrunch", "The Verge", "Ars Technica"}},
		{"name then category", []string{"Reuters", "TechCrunch"}, "politics", []string{"Reuters"}},
		{"no match", nil, "korea", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(r.Filter(tt.names, tt.category)))
		})
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	_, err := NewRegistry([]entity.Source{
		{Name: "A", URL: "https://a.example.com/", Category: entity.CategoryWorld},
		{Name: "A", URL: "https://b.example.com/", Category: entity.CategoryWorld},
	})
	assert.ErrorIs(t, err, ErrDuplicateSource)

	_, err = NewRegistry([]entity.Source{{Name: "A", URL: "https://a.example.com/", Category: "sports"}})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestLoadSources(t *testing.T) {
	path := writeSourcesFile(t, `sources:
  - name: Partner
    url: https://partner.example.cn/resources/
    category: weiruan
    kind: resource_directory
  - name: Wire
    url: https://wire.example.com/
    category: world
`)

	sources, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, entity.KindResourceDirectory, sources[0].Kind)

	r, err := NewRegistry(sources)
	require.NoError(t, err)
	wire, _ := r.Lookup("Wire")
	assert.Equal(t, entity.KindGeneric, wire.Kind, "empty kind defaults to generic")
}

func TestLoadSources_Errors(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadSources(writeSourcesFile(t, "sources: [\n"))
	assert.Error(t, err)

	_, err = LoadSources(writeSourcesFile(t, "sources: []\n"))
	assert.Error(t, err)
}

func TestLoadRegistry_FromEnv(t *testing.T) {
	t.Setenv("SOURCES_FILE", "")
	r, err := LoadRegistry()
	require.NoError(t, err)
	assert.Len(t, r.All(), len(DefaultSources()))

	t.Setenv("SOURCES_FILE", writeSourcesFile(t, `sources:
  - name: Only
    url: https://only.example.com/
    category: other
`))
	r, err = LoadRegistry()
	require.NoError(t, err)
	assert.Equal(t, []string{"Only"}, names(r.All()))
}

func TestExampleSourcesFile(t *testing.T) {
	sources, err := LoadSources(filepath.Join("..", "..", "configs", "sources.example.yaml"))
	require.NoError(t, err)
	_, err = NewRegistry(sources)
	assert.NoError(t, err)
}
