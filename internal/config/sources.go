package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"newsdesk/internal/domain/entity"
)

// ErrDuplicateSource is returned when two registry entries share a name.
var ErrDuplicateSource = errors.New("duplicate source name")

// PartnerDirectoryName names the built-in resource_directory source. Its URL
// can be pointed elsewhere with PARTNER_DIRECTORY_URL.
const PartnerDirectoryName = "Weiruan Partner Directory"

const defaultPartnerDirectoryURL = "https://partner.example.cn/resources/"

// defaultSources is the built-in registry used when SOURCES_FILE is unset.
var defaultSources = []entity.Source{
	// 政治
	{Name: "BBC World", URL: "https://www.bbc.com/news/world", Category: entity.CategoryPolitics, Kind: entity.KindGeneric},
	{Name: "Reuters", URL: "https://www.reuters.com/world/", Category: entity.CategoryPolitics, Kind: entity.KindGeneric},
	{Name: "Al Jazeera", URL: "https://www.aljazeera.com/news/", Category: entity.CategoryWorld, Kind: entity.KindGeneric},
	// テクノロジー
	{Name: "TechCrunch", URL: "https://techcrunch.com/", Category: entity.CategoryTechnology, Kind: entity.KindGeneric},
	{Name: "The Verge", URL: "https://www.theverge.com/", Category: entity.CategoryTechnology, Kind: entity.KindGeneric},
	{Name: "Ars Technica", URL: "https://arstechnica.com/", Category: entity.CategoryTechnology, Kind: entity.KindGeneric},
	// 軍事
	{Name: "Defense.gov", URL: "https://www.defense.gov/News/", Category: entity.CategoryMilitary, Kind: entity.KindGeneric},
	{Name: "China MND", URL: "http://www.mod.gov.cn/", Category: entity.CategoryCNMD, Kind: entity.KindDeepCrawl},
	// 提携先リソース
	{Name: PartnerDirectoryName, URL: defaultPartnerDirectoryURL, Category: entity.CategoryWeiruan, Kind: entity.KindResourceDirectory},
	// 経済
	{Name: "Bloomberg", URL: "https://www.bloomberg.com/markets", Category: entity.CategoryEconomy, Kind: entity.KindGeneric},
}

// DefaultSources returns a copy of the built-in registry, with the partner
// directory URL taken from PARTNER_DIRECTORY_URL when set.
func DefaultSources() []entity.Source {
	out := slices.Clone(defaultSources)
	if u := strings.TrimSpace(os.Getenv("PARTNER_DIRECTORY_URL")); u != "" {
		for i := range out {
			if out[i].Name == PartnerDirectoryName {
				out[i].URL = u
			}
		}
	}
	return out
}

type sourcesFile struct {
	Sources []entity.Source `yaml:"sources"`
}

// LoadSources reads a YAML registry file.
// The path parameter is expected to come from a trusted source (env or CLI flag).
func LoadSources(path string) ([]entity.Source, error) {
	// #nosec G304 -- path is provided by the operator, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}
	return f.Sources, nil
}

// Registry is the validated, immutable list of configured sources.
type Registry struct {
	sources []entity.Source
}

// NewRegistry validates sources and builds a Registry.
// Entry order is preserved; it is the order sources are scraped in.
func NewRegistry(sources []entity.Source) (*Registry, error) {
	seen := make(map[string]bool, len(sources))
	out := make([]entity.Source, 0, len(sources))
	for i := range sources {
		src := sources[i]
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source #%d: %w", i, err)
		}
		if seen[src.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, src.Name)
		}
		seen[src.Name] = true
		out = append(out, src)
	}
	return &Registry{sources: out}, nil
}

// LoadRegistry builds the registry from SOURCES_FILE when set, otherwise from
// the built-in defaults.
func LoadRegistry() (*Registry, error) {
	path := os.Getenv("SOURCES_FILE")
	if path == "" {
		return NewRegistry(DefaultSources())
	}
	sources, err := LoadSources(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(sources)
}

// All returns every configured source.
func (r *Registry) All() []entity.Source {
	return slices.Clone(r.sources)
}

// Lookup finds a source by exact name.
func (r *Registry) Lookup(name string) (entity.Source, bool) {
	for _, s := range r.sources {
		if s.Name == name {
			return s, true
		}
	}
	return entity.Source{}, false
}

// Filter narrows the registry by names, then by category.
// An empty names list or empty category leaves that dimension unfiltered.
// Unknown names are ignored.
func (r *Registry) Filter(names []string, category string) []entity.Source {
	out := make([]entity.Source, 0, len(r.sources))
	for _, s := range r.sources {
		if len(names) > 0 && !slices.Contains(names, s.Name) {
			continue
		}
		if category != "" && string(s.Category) != category {
			continue
		}
		out = append(out, s)
	}
	return out
}
