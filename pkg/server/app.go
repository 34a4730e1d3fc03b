package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "VinSight/internal/domain/repository"
	mid "VinSight/internal/middleware"
	"VinSight/internal/usecase"
	pkgch "VinSight/pkg/clickhouse"
	"VinSight/pkg/config"
	xhttp "VinSight/pkg/http"
	pkgkafka "VinSight/pkg/kafka"
	applogger "VinSight/pkg/logger"
)

// App encapsulates the entire application lifecycle. Any of the
// infrastructure fields may be nil when the corresponding backend is
// disabled in config; the app starts and stops only what it was given.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	handler    xhttp.Handler
	collector  *usecase.PulseCollector
	audit      *mid.AuditBuffer
	store      drepo.OutcomeStore
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	collector *usecase.PulseCollector,
	audit *mid.AuditBuffer,
	store drepo.OutcomeStore,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		collector: collector,
		audit:     audit,
		store:     store,
		producer:  producer,
		chClient:  chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure the outcome schema exists before serving traffic.
	if a.store != nil {
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := a.store.Init(initCtx); err != nil {
			initCancel()
			a.log.Error("outcome store init failed", applogger.Error(err))
			return err
		}
		initCancel()
		a.log.Info("outcome store ready", applogger.String("database", a.cfg.ClickHouse.Database))
	}

	if a.audit != nil {
		a.audit.Start(ctx)
		a.log.Info("audit buffer started", applogger.String("topic", a.cfg.Kafka.Topic))
	}

	// With a broker available, error logs are deduplicated and shipped in
	// batches alongside the audit trail.
	if a.producer != nil {
		a.log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   time.Minute,
			CountThreshold: 100,
			Topic:          a.cfg.Kafka.Topic + ".logs",
			Publisher:      logPublisher{p: a.producer},
		})
	}

	// The pulse collector is best effort: a dead stream at boot must not
	// keep the HTTP API down, pipeline runs fall back to polling.
	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			a.log.Warn("pulse collector start failed", applogger.Error(err))
		} else {
			a.log.Info("pulse collector started",
				applogger.String("url", a.cfg.DataService.PulseStreamURL))
		}
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// logPublisher adapts the Kafka producer to the log collector sink.
type logPublisher struct {
	p *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.p.Publish(ctx, topic, nil, payload)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			a.log.Warn("pulse collector stop error", applogger.Error(err))
		}
	}

	a.log.RemoveCollector()

	// Close drains the buffer's sink; the producer underneath flushes on
	// its own Close.
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			a.log.Warn("audit buffer close error", applogger.Error(err))
		}
	} else if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
