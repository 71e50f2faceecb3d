package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/compliance/pep-registry/internal/classifier"
	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/notify"
	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/pkg/telemetry"
	"github.com/compliance/pep-registry/internal/registry"
	"github.com/compliance/pep-registry/internal/screening"
	"github.com/compliance/pep-registry/internal/server"
	"github.com/compliance/pep-registry/internal/storage/memory"
	"github.com/compliance/pep-registry/internal/storage/postgres"
	"github.com/compliance/pep-registry/internal/tasks"
)

// registerStore is the storage surface the services need from either
// backend.
type registerStore interface {
	registry.Store
	Ping(ctx context.Context) error
	Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Telemetry.ServiceName, cfg.Telemetry.Environment, cfg.Telemetry.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, &cfg.Telemetry)
	if err != nil {
		log.Fatal("failed to initialize tracing", logger.ErrorField(err))
	}

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", logger.ErrorField(err))
	}
	defer store.Close()

	// The external classifier is optional. When Redis is available its
	// verdicts are cached so repeat lookups for the same subject do not
	// hit the billed endpoint.
	var (
		external   screening.ExternalClassifier
		discoverer registry.HolderDiscoverer
	)
	if cfg.Classifier.Enabled {
		openAI := classifier.NewOpenAI(&cfg.Classifier, log)
		external = openAI
		discoverer = openAI
		if cfg.Redis.Enabled {
			client, err := classifier.NewRedisClient(ctx, &cfg.Redis)
			if err != nil {
				log.Fatal("failed to connect to redis", logger.ErrorField(err))
			}
			defer client.Close()
			external = classifier.NewCached(openAI, client, &cfg.Redis, log)
		}
	}

	var sink screening.NotificationSink
	if cfg.Kafka.Enabled {
		kafkaSink, err := notify.NewKafkaSink(&cfg.Kafka, log)
		if err != nil {
			log.Fatal("failed to connect to kafka", logger.ErrorField(err))
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	} else {
		sink = notify.NewLogSink(log)
	}

	engine := screening.NewMatchEngine(store, external, log)
	orchestrator := screening.NewOrchestrator(engine, store, sink, &cfg.Screening, log)
	service := registry.NewService(store, &cfg.Screening, log)

	if discoverer != nil {
		service.RegisterSource(registry.NewAISource(discoverer))
	}
	if cfg.Disclosure.Enabled {
		service.RegisterSource(registry.NewDisclosureSource(&cfg.Disclosure, log))
	}

	sweep := tasks.NewSweepRunner(orchestrator, &cfg.Screening, log)
	if err := sweep.Start(); err != nil {
		log.Fatal("failed to start sweep scheduler", logger.ErrorField(err))
	}

	srv := server.New(&cfg.Server, orchestrator, service, log)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", logger.ErrorField(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", logger.ErrorField(err))
	}
	sweep.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown failed", logger.ErrorField(err))
	}

	log.Info("server exited")
}

// openStore selects the storage backend from configuration. The
// in-memory store is the default so the service runs with no external
// dependencies at all.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (registerStore, error) {
	switch cfg.Database.Driver {
	case "", "memory":
		log.Info("using in-memory store")
		return memory.NewStore(), nil
	case "postgres":
		store, err := postgres.New(ctx, &cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
