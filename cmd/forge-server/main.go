package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gnomonworks/sundial-forge/ephemeris"
	"github.com/gnomonworks/sundial-forge/internal/config"
	"github.com/gnomonworks/sundial-forge/internal/httpapi"
	"github.com/gnomonworks/sundial-forge/internal/logging"
	"github.com/gnomonworks/sundial-forge/internal/observability"
	"github.com/gnomonworks/sundial-forge/sites"
)

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file (overrides FORGE_CONFIG)")
	flag.Parse()

	if *cfgPath != "" {
		os.Setenv("FORGE_CONFIG", *cfgPath)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "forge-server: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, log, nil); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run assembles the oracle chain, catalog and HTTP servers, then blocks
// until ctx is cancelled or the API listener fails. A non-nil lis
// overrides cfg.Addr, which lets tests bind to an ephemeral port.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, lis net.Listener) error {
	collector, err := observability.NewCollector(nil)
	if err != nil {
		return fmt.Errorf("metrics collector: %w", err)
	}
	oracleMetrics, err := observability.NewOracleCollector(nil)
	if err != nil {
		return fmt.Errorf("oracle collector: %w", err)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.TracingServiceName,
		Exporter:    cfg.TracingExporter,
		Endpoint:    cfg.TracingEndpoint,
		SampleRatio: cfg.TracingSampleRatio,
	}, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	cache := ephemeris.NewCache(ephemeris.NewSolar(), cfg.CacheSize)
	oracle := oracleMetrics.Meter(cache)

	catalog := sites.Builtin()
	loadSites(ctx, log, catalog, cfg.SitesFile)

	api, err := httpapi.NewServer(httpapi.Config{
		Log:         log,
		Metrics:     collector,
		Oracle:      oracle,
		Catalog:     catalog,
		DaySamples:  cfg.DaySamples,
		PathSamples: cfg.PathSamples,
	})
	if err != nil {
		return err
	}

	if lis == nil {
		lis, err = net.Listen("tcp", cfg.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
		}
	}

	apiSrv := &http.Server{
		Handler:      api.Routes(),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	metricsSrv := serveMetrics(cfg.MetricsAddr, collector, oracleMetrics, cache, log)

	log.Info(ctx, "starting API server",
		logging.String("addr", lis.Addr().String()),
		logging.Int("sites", catalog.Len()),
	)
	errCh := make(chan error, 1)
	go func() {
		if err := apiSrv.Serve(lis); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	collector.SetReady(true)

	select {
	case err := <-errCh:
		collector.SetReady(false)
		return err
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down")
	collector.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownGraceSeconds)*time.Second)
	defer cancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "API server shutdown", logging.Err(err))
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return <-errCh
}

// serveMetrics exposes Prometheus metrics on its own listener. Cache
// gauges are refreshed from the live cache on every scrape.
func serveMetrics(addr string, collector *observability.Collector, oracleMetrics *observability.OracleCollector, cache *ephemeris.Cache, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}

	handler := collector.Handler()
	mux := http.NewServeMux()
	mux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cache != nil && oracleMetrics != nil {
			stats := cache.Stats()
			oracleMetrics.SetCacheStats(stats.Hits, stats.Misses, stats.Size)
		}
		handler.ServeHTTP(w, r)
	}))

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

// loadSites merges a JSON site file into the catalog, keeping startup
// alive when the file is missing or malformed.
func loadSites(ctx context.Context, log logging.Logger, catalog *sites.Catalog, path string) {
	if path == "" {
		return
	}

	added, err := catalog.LoadFile(path)
	if err != nil {
		log.Warn(ctx, "skipping site load",
			logging.String("path", path),
			logging.Int("added", added),
			logging.Err(err),
		)
		return
	}

	log.Info(ctx, "loaded sites", logging.String("path", path), logging.Int("count", added))
}
