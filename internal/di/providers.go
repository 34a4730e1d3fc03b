package di

import (
	"fmt"

	drepo "VinSight/internal/domain/repository"
	mid "VinSight/internal/middleware"
	internalrepo "VinSight/internal/repository"
	"VinSight/internal/service/cache"
	"VinSight/internal/service/llm"
	"VinSight/internal/service/winedata"
	"VinSight/internal/usecase"

	"VinSight/internal/handler/api"
	"VinSight/internal/pipeline"
	pkgch "VinSight/pkg/clickhouse"
	"VinSight/pkg/config"
	xhttp "VinSight/pkg/http"
	pkgkafka "VinSight/pkg/kafka"
	applogger "VinSight/pkg/logger"
	"VinSight/pkg/metrics"
	"VinSight/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "debug", Format: "console", Output: "stdout"}
	if cfg.Environment == "production" {
		lc.Level = "info"
		lc.Format = "json"
	}
	return applogger.New(lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideCache creates the shared bytes cache: Redis when configured,
// in-process TTL cache otherwise.
func ProvideCache(cfg *config.Config) cache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideDataService creates the wine data HTTP client.
func ProvideDataService(cfg *config.Config, c cache.BytesCache, l *applogger.Logger) drepo.DataService {
	opts := []winedata.Option{
		winedata.WithCache(c, cfg.Cache.PulseTTL, cfg.Cache.OppsTTL),
	}
	if cfg.DataService.Timeout > 0 {
		opts = append(opts, winedata.WithTimeout(cfg.DataService.Timeout))
	}
	return winedata.New(cfg.DataService.BaseURL, l, opts...)
}

// ProvideCompleter creates the LLM client, or nil when disabled. The
// pipeline treats a nil completer as "no enrichment".
func ProvideCompleter(cfg *config.Config, l *applogger.Logger) drepo.Completer {
	if !cfg.LLM.Enabled {
		return nil
	}
	return llm.New(llm.Config{
		Enabled:    true,
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.LLM.Timeout,
		RatePerSec: cfg.LLM.RatePerSec,
		Burst:      cfg.LLM.Burst,
	}, l)
}

// ProvideRunner assembles the pipeline with the default stage order.
func ProvideRunner(
	cfg *config.Config,
	svc drepo.DataService,
	completer drepo.Completer,
	l *applogger.Logger,
	m drepo.Metrics,
) *pipeline.Runner {
	stages := pipeline.DefaultStages(svc, completer, cfg.Pipeline.OpportunityLimit, cfg.LLM.Temperature)
	return pipeline.NewRunner(stages, l, m, cfg.Pipeline.RunTimeout)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAuditBuffer wraps the Kafka audit sink in a retry buffer, or
// returns nil when Kafka is disabled.
func ProvideAuditBuffer(cfg *config.Config, producer *pkgkafka.Producer, m drepo.Metrics) *mid.AuditBuffer {
	if producer == nil {
		return nil
	}
	sink := internalrepo.NewKafkaAuditPublisher(producer, cfg.Kafka.Topic)
	return mid.NewAuditBuffer(sink, m)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when
// disabled. Schema init happens in App.Run via the outcome store.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideOutcomeStore creates the ClickHouse outcome store, or nil when
// ClickHouse is disabled.
func ProvideOutcomeStore(ch *pkgch.Client, l *applogger.Logger) drepo.OutcomeStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewCHOutcomeStore(ch, l)
}

// ProvideAnalysisService creates the analysis use case.
func ProvideAnalysisService(
	runner *pipeline.Runner,
	audit *mid.AuditBuffer,
	store drepo.OutcomeStore,
	l *applogger.Logger,
) *usecase.AnalysisService {
	return usecase.NewAnalysisService(runner, audit, store, l)
}

// ProvidePulseCollector creates the pulse stream collector, or nil when
// no stream URL is configured.
func ProvidePulseCollector(cfg *config.Config, c cache.BytesCache, m drepo.Metrics, l *applogger.Logger) *usecase.PulseCollector {
	if cfg.DataService.PulseStreamURL == "" {
		return nil
	}
	stream := winedata.NewStream(
		cfg.DataService.PulseStreamURL,
		cfg.DataService.ReconnectDelay,
		cfg.DataService.PingInterval,
	)
	return usecase.NewPulseCollector(stream, c, m, cfg.Cache.PulseTTL, l)
}

// ProvideHandler creates the Echo HTTP handler.
func ProvideHandler(l *applogger.Logger, svc *usecase.AnalysisService, datasvc drepo.DataService) xhttp.Handler {
	return api.NewAnalysisEchoHandler(l, svc, datasvc)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.PulseCollector,
	audit *mid.AuditBuffer,
	store drepo.OutcomeStore,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, handler, collector, audit, store, producer, chClient)
}
