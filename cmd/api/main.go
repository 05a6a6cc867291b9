package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdesk/internal/app"
	hhttp "newsdesk/internal/handler/http"
	"newsdesk/internal/handler/http/auth"
	"newsdesk/internal/handler/http/functions"
	"newsdesk/internal/handler/http/middleware"
	"newsdesk/internal/handler/http/requestid"
	"newsdesk/internal/infra/db"
	"newsdesk/internal/observability/logging"
	"newsdesk/internal/observability/tracing"
	pkgconfig "newsdesk/internal/pkg/config"
)

const maxBodyBytes = 1 << 20

func main() {
	logger := logging.New()
	slog.SetDefault(logger)

	shutdownTracer := tracing.InitTracer("newsdesk-api")
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	verifier := initVerifier(logger)
	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	version := pkgconfig.LoadEnvString("VERSION", "dev")
	handler := setupServer(ctx, logger, database, verifier, version)
	runServer(logger, handler, version)
}

// initVerifier fails fast on a missing or weak AUTH_JWT_SECRET.
func initVerifier(logger *slog.Logger) *auth.Verifier {
	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		logger.Error("AUTH_JWT_SECRET must be set")
		os.Exit(1)
	}
	v, err := auth.NewVerifier(secret)
	if err != nil {
		logger.Error("AUTH_JWT_SECRET rejected", slog.Any("error", err))
		os.Exit(1)
	}
	return v
}

// initDatabase opens the pool and applies the schema.
func initDatabase(logger *slog.Logger) *sql.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := db.Open(ctx)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(ctx, database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// setupServer wires the routes and the middleware chain. ctx bounds the
// background cleanup of the translate rate limiter.
func setupServer(ctx context.Context, logger *slog.Logger, database *sql.DB, verifier *auth.Verifier, version string) http.Handler {
	ingestion, err := app.NewIngestion(database, logger)
	if err != nil {
		logger.Error("failed to set up ingestion", slog.Any("error", err))
		os.Exit(1)
	}
	translation, err := app.NewTranslation(logger)
	if err != nil {
		logger.Error("failed to set up translation", slog.Any("error", err))
		os.Exit(1)
	}

	var breakers []hhttp.BreakerState
	for _, b := range ingestion.Breakers {
		breakers = append(breakers, b)
	}
	if translation.Breaker != nil {
		breakers = append(breakers, translation.Breaker)
	}

	fetch := functions.FetchNewsHandler{
		Timeout: pkgconfig.LoadEnvDuration("FETCH_NEWS_TIMEOUT", 10*time.Minute,
			pkgconfig.ValidatePositiveDuration).Report(logger, nil, "fetch_news_timeout"),
	}
	// nil の *ingest.Service をインターフェースに入れない
	if ingestion.Service != nil {
		fetch.Ingest = ingestion.Service
	}

	extractor, err := middleware.LoadIPExtractor()
	if err != nil {
		logger.Error("invalid trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}
	limitCfg := middleware.LoadIPRateLimiterConfig()
	translateRoute, limiter := newTranslateRoute(translation.Service, limitCfg, extractor)
	limiter.StartCleanup(ctx, time.Minute)
	logger.Info("translate rate limit configured",
		slog.Bool("enabled", limitCfg.Enabled),
		slog.Int("limit", limitCfg.Limit),
		slog.Duration("window", limitCfg.Window))

	mux := http.NewServeMux()
	mux.Handle("/functions/v1/fetch-news", auth.Require(verifier)(fetch))
	mux.Handle("/functions/v1/translate-news", translateRoute)
	mux.Handle("/health", &hhttp.HealthHandler{DB: database, Breakers: breakers, Version: version})
	mux.Handle("/health/live", hhttp.LiveHandler{})
	mux.Handle("/metrics", hhttp.MetricsHandler())

	corsCfg := middleware.LoadCORSConfig()
	logger.Info("CORS configured",
		slog.Any("allowed_origins", corsCfg.AllowedOrigins),
		slog.Int("max_age", corsCfg.MaxAge))

	// 先頭が最も外側。CORS は認証より前にプリフライトへ応答する
	return hhttp.Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.Recover(logger),
		hhttp.MetricsMiddleware,
		middleware.CORS(corsCfg),
		hhttp.LimitInput(maxBodyBytes),
	)
}

// newTranslateRoute puts the anonymous translate endpoint behind a per-client
// rate limit so one caller cannot drain the upstream translation quota.
func newTranslateRoute(svc functions.Translator, cfg middleware.IPRateLimiterConfig, extractor middleware.IPExtractor) (http.Handler, *middleware.IPRateLimiter) {
	limiter := middleware.NewIPRateLimiter("translate-news", cfg, extractor)
	return limiter.Middleware(functions.TranslateNewsHandler{Svc: svc}), limiter
}

// runServer serves until SIGINT or SIGTERM, then drains in-flight requests.
func runServer(logger *slog.Logger, handler http.Handler, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	port := pkgconfig.LoadEnvInt("PORT", 8080, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 65535)
	}).Report(logger, nil, "port")
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Slowloris 対策
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// 実行中のインジェストは猶予内に終われば部分結果を返す
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	cancel()
	logger.Info("server stopped")
}
