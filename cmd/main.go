package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/meerkat/internal/adapters/http/api"
	"github.com/okian/meerkat/internal/adapters/http/site"
	"github.com/okian/meerkat/internal/adapters/http/swagger"
	"github.com/okian/meerkat/internal/adapters/mq/worker"
	"github.com/okian/meerkat/internal/adapters/publisher"
	app "github.com/okian/meerkat/internal/app"
	"github.com/okian/meerkat/internal/config"
	"github.com/okian/meerkat/internal/domain/model"
	"github.com/okian/meerkat/pkg/logger"
	"github.com/okian/meerkat/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	redisConnectTimeout       = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Custom system metrics replace the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server failed", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the service and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	pub, closePub, err := newPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closePub()

	svc := newService(cfg, log, pub)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	if err := bootstrap(ctx, cfg, svc); err != nil {
		return err
	}

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newPublisher picks the Redis Streams feed when redis_url is set and the
// logging feed otherwise.
func newPublisher(ctx context.Context, cfg *config.Config, log logger.Logger) (worker.Publisher, func(), error) {
	if cfg.RedisURL == "" {
		return publisher.NewLogPublisher(log.Named("changes")), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	client, err := publisher.Connect(connectCtx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info(ctx, "publishing changes to redis streams", logger.String("prefix", cfg.RedisStreamPrefix))

	pub := publisher.NewStreamPublisher(client,
		publisher.WithStreamPrefix(cfg.RedisStreamPrefix),
		publisher.WithMaxLen(cfg.RedisStreamMaxLen),
	)
	return pub, func() { _ = client.Close() }, nil
}

func newService(cfg *config.Config, log logger.Logger, pub worker.Publisher) *app.Service {
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithScoringPoints(cfg.ExactScorePoints, cfg.CorrectOutcomePoints),
		app.WithPointsCacheSize(cfg.PointsCacheSize),
		app.WithIdempotency(cfg.IdempotencyCacheSize, cfg.IdempotencyTTL),
		app.WithFeed(cfg.FeedQueueSize, cfg.FeedWorkerCount),
		app.WithPublisher(pub),
	)
}

// bootstrap creates the configured competition, which becomes competition 1.
func bootstrap(ctx context.Context, cfg *config.Config, svc *app.Service) error {
	if !cfg.HasBootstrapCompetition() {
		return nil
	}
	owner := model.NormalizeAddress(cfg.BootstrapCompetitionOwner)
	if _, err := svc.CreateCompetition(ctx, owner, cfg.BootstrapCompetitionName); err != nil {
		return fmt.Errorf("failed to bootstrap competition: %w", err)
	}
	return nil
}

// newHandler builds the HTTP router with API, docs and landing page routes.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	r := api.NewRouter(ctx, api.NewServer(svc, svc), cfg.AllowedOrigins())
	swagger.Register(ctx, r)
	site.Register(ctx, r)
	return r
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
