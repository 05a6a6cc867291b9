package main

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/usecase/ingest"
)

const maxTitleWidth = 60

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderSummary(w io.Writer, s *ingest.Summary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Scraped", "Inserted", "Failed Sources", "Duration"})
	failed := "-"
	if len(s.Errors) > 0 {
		failed = strings.Join(s.Errors, ", ")
	}
	t.AppendRow(table.Row{s.Scraped, s.Inserted, failed, s.Duration.Round(time.Millisecond)})
	t.Render()
}

func renderArticles(w io.Writer, articles []entity.Article) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Published", "Category", "Source", "Title", "URL"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: maxTitleWidth, WidthMaxEnforcer: text.Trim},
	})
	for _, a := range articles {
		published := "-"
		if a.PublishedAt != nil {
			published = a.PublishedAt.Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{published, a.Category, a.SourceName, a.Title, a.SourceURL})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(articles)})
	t.Render()
}

func renderSources(w io.Writer, sources []entity.Source) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Name", "Category", "Kind", "URL"})
	for _, s := range sources {
		t.AppendRow(table.Row{s.Name, s.Category, s.Kind, s.URL})
	}
	t.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
