package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"newsdesk/internal/app"
	"newsdesk/internal/config"
	"newsdesk/internal/domain/entity"
	"newsdesk/internal/handler/http/auth"
	pgRepo "newsdesk/internal/infra/adapter/persistence/postgres"
	"newsdesk/internal/infra/db"
	"newsdesk/internal/repository"
	"newsdesk/internal/usecase/ingest"
	"newsdesk/internal/usecase/translate"
)

// ErrIngestionDisabled is returned when FIRECRAWL_API_KEY is not set.
var ErrIngestionDisabled = errors.New("ingestion disabled: FIRECRAWL_API_KEY is not set")

// openDatabase opens the pool and applies the schema.
func openDatabase(ctx context.Context) (*sql.DB, error) {
	database, err := db.Open(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

func newIngestCommand() *cobra.Command {
	var (
		sources  []string
		category string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass and print its summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			ing, err := app.NewIngestion(database, slog.Default())
			if err != nil {
				return err
			}
			if ing.Service == nil {
				return ErrIngestionDisabled
			}

			summary, runErr := ing.Service.Run(ctx, ingest.Request{Sources: sources, Category: category})
			if summary != nil {
				renderSummary(cmd.OutOrStdout(), summary)
			}
			return runErr
		},
	}
	cmd.Flags().StringSliceVar(&sources, "source", nil, "source name to include (repeatable)")
	cmd.Flags().StringVar(&category, "category", "", "only sources of this category")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "abort the run after this long (0 disables)")
	return cmd
}

func newListCommand() *cobra.Command {
	var (
		category string
		keywords []string
		limit    int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently published articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := repository.ArticleFilter{
				Category: entity.Category(category),
				Keywords: keywords,
				Limit:    limit,
			}
			if category != "" && !filter.Category.IsValid() {
				return fmt.Errorf("unknown category %q", category)
			}

			ctx := cmd.Context()
			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			articles, err := pgRepo.NewArticleRepo(database).ListRecent(ctx, filter)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), articles)
			}
			renderArticles(cmd.OutOrStdout(), articles)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only articles of this category")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "keyword matched against title or summary (repeatable, AND-ed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of articles")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored articles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			database, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer database.Close()

			n, err := pgRepo.NewArticleRepo(database).Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func newTranslateCommand() *cobra.Command {
	var (
		summary string
		target  string
	)
	cmd := &cobra.Command{
		Use:   "translate <title>",
		Short: "Translate a title and optional summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.NewTranslation(slog.Default())
			if err != nil {
				return err
			}
			req := translate.Request{Title: args[0], TargetLang: target}
			if cmd.Flags().Changed("summary") {
				req.Summary = &summary
			}
			res, err := tr.Service.Translate(cmd.Context(), req)
			// クォータ超過時も原文フォールバックを表示する
			if err != nil && !errors.Is(err, translate.ErrRateLimited) && !errors.Is(err, translate.ErrPaymentRequired) {
				return err
			}
			if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil {
				return werr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&summary, "summary", "", "summary to translate along with the title")
	cmd.Flags().StringVar(&target, "target", translate.LangZhCN, "target language code")
	return cmd
}

func newSourcesCommand() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the configured news sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := config.LoadRegistry()
			if err != nil {
				return err
			}
			renderSources(cmd.OutOrStdout(), reg.Filter(nil, category))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only sources of this category")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the fetch-news endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := auth.IssueToken(os.Getenv("AUTH_JWT_SECRET"), subject, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "newsctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
