package ingest

import (
	"fmt"

	pkgconfig "newsdesk/internal/pkg/config"
)

const (
	DefaultBatchSize   = 3
	MinBatchSize       = 2
	MaxBatchSize       = 3
	DefaultUpsertChunk = 50
)

// Config bounds concurrency and write sizes of a run.
type Config struct {
	// BatchSize is the number of generic sources scraped concurrently.
	BatchSize int
	// UpsertChunk is the number of articles written per INSERT statement.
	UpsertChunk int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{BatchSize: DefaultBatchSize, UpsertChunk: DefaultUpsertChunk}
}

// Validate checks the bounds. Batch sizes outside 2–3 are rejected to keep
// vendor request bursts small.
func (c Config) Validate() error {
	if err := pkgconfig.ValidateIntRange(c.BatchSize, MinBatchSize, MaxBatchSize); err != nil {
		return fmt.Errorf("batch size: %w", err)
	}
	if err := pkgconfig.ValidateIntRange(c.UpsertChunk, 1, 1000); err != nil {
		return fmt.Errorf("upsert chunk: %w", err)
	}
	return nil
}

// LoadConfigFromEnv reads INGEST_BATCH_SIZE and INGEST_UPSERT_CHUNK.
// Invalid values fall back to the defaults with a warning.
func LoadConfigFromEnv() Config {
	m := pkgconfig.NewConfigMetrics("ingest")
	defer m.RecordLoadTimestamp()

	batch := pkgconfig.LoadEnvInt("INGEST_BATCH_SIZE", DefaultBatchSize, func(v int) error {
		return pkgconfig.ValidateIntRange(v, MinBatchSize, MaxBatchSize)
	})
	chunk := pkgconfig.LoadEnvInt("INGEST_UPSERT_CHUNK", DefaultUpsertChunk, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 1000)
	})

	return Config{
		BatchSize:   batch.Report(nil, m, "batch_size"),
		UpsertChunk: chunk.Report(nil, m, "upsert_chunk"),
	}
}
