// Command newsctl is the operator CLI for the newsdesk pipeline. It runs
// ingestion once, inspects stored articles, translates text and issues
// tokens for the fetch-news endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"newsdesk/internal/observability/logging"
)

var cfgFile string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "newsctl",
		Short:         "Operate the newsdesk ingestion and translation pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfigFile(cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "",
		"YAML or .env file whose keys are exported as environment variables (e.g. database_url)")

	root.AddCommand(
		newIngestCommand(),
		newListCommand(),
		newCountCommand(),
		newTranslateCommand(),
		newSourcesCommand(),
		newTokenCommand(),
	)
	return root
}

// loadConfigFile reads path with viper and exports every key as an upper-case
// environment variable. Variables already set in the environment win.
func loadConfigFile(path string) error {
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	for _, key := range v.AllKeys() {
		name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	return nil
}

func main() {
	// CLI の出力を汚さないよう、ログは stderr に出す
	slog.SetDefault(logging.NewLoggerTo(os.Stderr))

	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
