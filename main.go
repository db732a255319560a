package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appinv "github.com/Zhima-Mochi/inventory-bridge/internal/application/inventory"
	"github.com/Zhima-Mochi/inventory-bridge/internal/config"
	dominv "github.com/Zhima-Mochi/inventory-bridge/internal/domain/inventory"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/id"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/inventory-bridge/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/inventory-bridge/internal/observability"
	"github.com/Zhima-Mochi/inventory-bridge/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/inventory-bridge/internal/presentation/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config_load_failed", zap.Error(err))
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env, logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := oteltrace.NewProvider(ctx, oteltrace.ProviderConfig{
		ServiceName:   cfg.ServiceName,
		Environment:   cfg.Env,
		SamplingRatio: cfg.OTel.SamplingRatio,
		ExportEnabled: cfg.OTel.Enabled,
		Endpoint:      cfg.OTel.Endpoint,
	})
	if err != nil {
		systemLogger.Fatal("tracer_provider_failed", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	counters, histograms := prometrics.Instruments(
		prometrics.New(registry, cfg.MetricsNamespace, ""),
		observability.StandardMetrics(),
	)

	logger := zaplogger.New(baseLogger)
	tel := infraobs.New(
		oteltrace.NewWithProvider(tp, cfg.ServiceName),
		logger,
		infraobs.NewMetrics(counters, histograms),
	)

	// In-memory event bus carries purchase completions to the reconciliation worker.
	bus := outbox.NewBus(logger, tel, outbox.BusConfig{
		QueueSize:      cfg.Outbox.QueueSize,
		Concurrency:    cfg.Outbox.Concurrency,
		HandlerTimeout: cfg.Outbox.HandlerTimeout,
	})
	appinv.NewPurchaseWorker(bus, tel, logger).Start()
	bus.Start(ctx)

	clientOpts := []memory.Option{memory.WithPurchaseDelay(cfg.Memory.PurchaseDelay)}
	if len(cfg.Memory.Catalog) > 0 {
		defs := make([]dominv.DefinitionID, 0, len(cfg.Memory.Catalog))
		for _, d := range cfg.Memory.Catalog {
			defs = append(defs, dominv.DefinitionID(d))
		}
		clientOpts = append(clientOpts, memory.WithCatalog(defs...))
	}
	client := memory.NewInventoryClient(clientOpts...)

	facade := appinv.NewFacade(client, bus, id.NewUUIDGenerator(), tel)
	handler := httppresentation.NewHandler(facade, logger, tel, cfg.PurchaseWaitTimeout)

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handler.Router(func(r chi.Router) {
			r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		}),
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}

	// Let in-flight purchases deliver before the bus stops accepting events.
	client.Close()
	if err := bus.Stop(shutdownCtx); err != nil {
		systemLogger.Error("event_bus_stop_error", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("tracer_provider_shutdown_error", zap.Error(err))
	}
}
