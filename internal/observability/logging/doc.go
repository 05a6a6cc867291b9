// Package logging builds the process-wide slog logger and carries
// request-scoped loggers through contexts.
//
// LOG_LEVEL selects debug, info, warn or error (default info). LOG_FORMAT=text
// switches from JSON to human-readable output for local runs.
//
//	logger := logging.New()
//	slog.SetDefault(logger)
package logging
