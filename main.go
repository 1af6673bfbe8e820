package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/originwatch/originwatch/internal/api/rest"
	"github.com/originwatch/originwatch/internal/config"
	apperrors "github.com/originwatch/originwatch/internal/domain/errors"
	infraconfig "github.com/originwatch/originwatch/internal/infrastructure/config"
	"github.com/originwatch/originwatch/internal/infrastructure/cache"
	"github.com/originwatch/originwatch/internal/infrastructure/telemetry"
	"github.com/originwatch/originwatch/internal/metrics"
	"github.com/originwatch/originwatch/internal/service/embedding"
	environmentsvc "github.com/originwatch/originwatch/internal/service/environment"
	fingerprintsvc "github.com/originwatch/originwatch/internal/service/fingerprint"
	locationsvc "github.com/originwatch/originwatch/internal/service/location"
	"github.com/originwatch/originwatch/internal/service/orchestrator"
	"github.com/originwatch/originwatch/internal/service/risk"
	"github.com/originwatch/originwatch/internal/service/vectorstore"
	"github.com/originwatch/originwatch/internal/service/vpnguard"
	"github.com/originwatch/originwatch/internal/service/vpnguard/providers"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := infraconfig.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to setup logger", "error", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("application failed", zap.Error(err))
		os.Exit(1)
	}
}

// run wires every component the Session Orchestrator depends on, then
// starts the bundled HTTP transport that exposes verify, checkIP, and
// the threshold document as REST endpoints until ctx is cancelled.
func run(ctx context.Context, cfg *infraconfig.Config, logger *zap.Logger) error {
	logger.Info("starting originwatch verification core",
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Environment),
	)

	registry := config.NewRegistry()
	if cfg.ThresholdsPath != "" {
		if doc, err := os.ReadFile(cfg.ThresholdsPath); err == nil {
			if err := registry.LoadJSON(doc); err != nil {
				logger.Warn("threshold document invalid, using defaults", zap.Error(err))
			}
		} else {
			logger.Info("no threshold document found, using built-in defaults", zap.String("path", cfg.ThresholdsPath))
		}
	}

	telemetryProvider, err := telemetry.InitializeOpenTelemetry(ctx, &telemetry.Config{
		ServiceName:    "originwatch",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  30 * time.Second,
		BatchTimeout:   5 * time.Second,
	})
	if err != nil {
		logger.Warn("opentelemetry setup failed, proceeding untraced", zap.Error(err))
	} else {
		defer telemetryProvider.Shutdown(context.Background())
	}
	tracer := telemetry.NewOpenTelemetryTracer("originwatch")

	verifier := locationsvc.NewVerifier(registry)
	analyzer := environmentsvc.NewAnalyzer(registry)
	builder := fingerprintsvc.NewBuilder()

	metricsRegistry, err := metrics.NewRegistry("originwatch")
	if err != nil {
		logger.Warn("metrics registry initialization failed, proceeding unmetered", zap.Error(err))
		metricsRegistry = nil
	}

	vpnAggregator := buildVPNAggregator(cfg, registry, logger, metricsRegistry).WithTracer(tracer)

	embedder, vectorStore := buildSimilaritySearch(ctx, cfg, logger)

	liteEvaluator := risk.NewLiteEvaluator(registry, buildGenerativeSummarizer(ctx, cfg, logger)).WithTracer(tracer)
	fullEvaluator := buildFullEvaluator(ctx, cfg, logger, liteEvaluator).WithTracer(tracer)

	o := orchestrator.New(
		logger,
		verifier,
		analyzer,
		vpnAggregator,
		builder,
		embedder,
		vectorStore,
		liteEvaluator,
		fullEvaluator,
	).WithTracer(tracer)
	if metricsRegistry != nil {
		o = o.WithMetrics(metricsRegistry)
	}

	server, err := rest.NewServer(rest.ServerConfig{
		Addr:            fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Router: rest.RouterConfig{
			Auth: rest.AuthConfig{
				Secret: []byte(cfg.Server.AuthSecret),
				Issuer: cfg.Server.AuthIssuer,
			},
			OpenAPISpecPath: cfg.Server.OpenAPISpecPath,
			RateLimitRPS:    cfg.Server.RateLimitRPS,
			RateLimitBurst:  cfg.Server.RateLimitBurst,
		},
	}, logger, o, vpnAggregator, registry)
	if err != nil {
		return apperrors.Wrap(err, "building http transport")
	}

	serveErr := server.Start(ctx)

	logger.Info("shutting down gracefully")
	if vectorStore != nil {
		_ = vectorStore.Close()
	}

	return serveErr
}

// buildVPNAggregator assembles the full built-in provider registry
// from the configured credentials, wrapping it in a Redis-backed
// result cache when Redis is reachable.
func buildVPNAggregator(cfg *infraconfig.Config, registry *config.Registry, logger *zap.Logger, metricsRegistry *metrics.Registry) *vpnguard.Aggregator {
	providerSet := providers.Default(providers.Credentials{
		IPInfoToken:       cfg.VPN.IPInfoToken,
		VPNAPIKey:         cfg.VPN.VPNAPIKey,
		IPQualityScoreKey: cfg.VPN.IPQualityScoreKey,
		IPHubKey:          cfg.VPN.IPHubKey,
		AbstractAPIKey:    cfg.VPN.AbstractAPIKey,
		IPAPIKey:          cfg.VPN.IPAPIKey,
	})

	aggregator := vpnguard.NewAggregator(logger, registry, providerSet)
	if metricsRegistry != nil {
		aggregator = aggregator.WithMetrics(metricsRegistry)
	}

	if cfg.Redis.URL == "" {
		logger.Info("no redis configured, VPN aggregator results are not cached")
		return aggregator
	}

	resultCache, err := cache.NewRedisCache(&infraconfig.RedisConfig{
		URL:          cfg.Redis.URL,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, logger)
	if err != nil {
		logger.Warn("redis cache unavailable, VPN aggregator results are not cached", zap.Error(err))
		return aggregator
	}

	return aggregator.WithCache(resultCache)
}

// buildSimilaritySearch dials the embedding and vector-store clients.
// Either may come back nil: the orchestrator treats a nil embedder or
// store as "similarity search skipped", never as a fatal condition.
func buildSimilaritySearch(ctx context.Context, cfg *infraconfig.Config, logger *zap.Logger) (orchestrator.Embedder, vectorstore.Store) {
	var embedder orchestrator.Embedder
	if cfg.Gemini.APIKey != "" {
		client, err := embedding.New(ctx, cfg.Gemini.APIKey, logger)
		if err != nil {
			logger.Warn("embedding client unavailable", zap.Error(err))
		} else {
			embedder = client
		}
	} else {
		logger.Info("no embedding model credential configured, similarity search disabled")
	}

	store, err := vectorstore.NewQdrantStore(vectorstore.Config{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.Qdrant.APIKey,
		UseTLS:     cfg.Qdrant.UseTLS,
		Collection: cfg.Qdrant.Collection,
		Dimension:  cfg.Qdrant.Dimension,
	}, logger)
	if err != nil {
		logger.Warn("vector store unavailable, similarity search disabled", zap.Error(err))
		return embedder, nil
	}
	if err := store.EnsureCollection(ctx); err != nil {
		if apperrors.IsRetryable(err) {
			logger.Warn("vector store collection setup failed with a retryable error", zap.Error(err))
		} else {
			logger.Error("vector store collection setup failed permanently", zap.Error(err))
		}
	}

	return embedder, store
}

// buildGenerativeSummarizer returns the Generator the lite evaluator
// uses for its one-sentence explanation, or nil when no generative
// model credential is configured.
func buildGenerativeSummarizer(ctx context.Context, cfg *infraconfig.Config, logger *zap.Logger) risk.Generator {
	if cfg.Gemini.APIKey == "" {
		return nil
	}
	client, err := risk.NewGenerativeClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		logger.Warn("generative model client unavailable, lite evaluator uses templated explanations", zap.Error(err))
		return nil
	}
	return client
}

// buildFullEvaluator returns the full generative risk-evaluation path,
// falling back to lite entirely when no generative model credential is
// configured.
func buildFullEvaluator(ctx context.Context, cfg *infraconfig.Config, logger *zap.Logger, lite *risk.LiteEvaluator) *risk.FullEvaluator {
	if cfg.Gemini.APIKey == "" {
		return risk.NewFullEvaluator(nil, lite)
	}
	client, err := risk.NewGenerativeClient(ctx, cfg.Gemini.APIKey)
	if err != nil {
		logger.Warn("generative model client unavailable, full risk evaluation falls back to lite", zap.Error(err))
		return risk.NewFullEvaluator(nil, lite)
	}
	return risk.NewFullEvaluator(client, lite)
}