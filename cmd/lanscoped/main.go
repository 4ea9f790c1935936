// Command lanscoped is the composition root for the local-network device
// discovery, identification, and classification engine: it wires
// configuration, storage, the fingerprint cache hierarchy, the behavior
// tracker, every discovery subsystem, the device registry, and the REST/WS
// API boundary together, then runs until signaled to stop.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lanscope/lanscope/internal/apiboundary"
	"github.com/lanscope/lanscope/internal/behavior"
	"github.com/lanscope/lanscope/internal/config"
	"github.com/lanscope/lanscope/internal/discovery"
	"github.com/lanscope/lanscope/internal/engine"
	"github.com/lanscope/lanscope/internal/events"
	"github.com/lanscope/lanscope/internal/fingerprint"
	"github.com/lanscope/lanscope/internal/registry"
	"github.com/lanscope/lanscope/internal/storage"
)

// version is the schema-compatibility version stamped into the database on
// first run and checked on every subsequent open (internal/storage.CheckVersion).
const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("lanscoped " + version)
		os.Exit(0)
	}

	viperCfg, err := config.LoadViper(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := config.New(viperCfg)

	logger, err := config.NewLogger(viperCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("lanscoped starting", zap.String("version", version))

	var engineCfg config.EngineConfig
	if err := cfg.Unmarshal(&engineCfg); err != nil {
		logger.Fatal("failed to unmarshal engine configuration", zap.Error(err))
	}
	if engineCfg.DatabasePath == "" {
		engineCfg = config.DefaultConfig()
		if err := cfg.Unmarshal(&engineCfg); err != nil {
			logger.Fatal("failed to unmarshal engine configuration", zap.Error(err))
		}
	}

	if f := viperCfg.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Open(ctx, engineCfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("database initialized", zap.String("path", engineCfg.DatabasePath))

	if err := store.CheckVersion(ctx, version); err != nil {
		logger.Fatal("database version check failed", zap.Error(err))
	}

	bus := events.NewBus(logger.Named("events"))

	reg := registry.New(logger.Named("registry"), store)
	defer reg.Close()

	behaviorDBPath := ""
	dataDir := filepath.Dir(engineCfg.DatabasePath)
	if dataDir != "" && dataDir != "." {
		behaviorDBPath = filepath.Join(dataDir, "behavior.db")
	} else {
		behaviorDBPath = "behavior.db"
	}
	behaviorSalt := viperCfg.GetString("behavior_hash_salt")
	behaviorTracker, err := behavior.New(logger.Named("behavior"), behaviorDBPath, engineCfg.BehaviorHashIDs, behaviorSalt, engineCfg.MaxBehaviorProfiles)
	if err != nil {
		logger.Fatal("failed to initialize behavior tracker", zap.Error(err))
	}
	defer behaviorTracker.Close()

	fpHierarchy := buildFingerprintHierarchy(logger, engineCfg, dataDir, store)

	eng := engine.New(engine.Dependencies{
		Logger:      logger.Named("engine"),
		Config:      engineCfg,
		Registry:    reg,
		Bus:         bus,
		Fingerprint: fpHierarchy,
		Behavior:    behaviorTracker,
	})
	if err := eng.Start(ctx); err != nil {
		logger.Fatal("failed to start engine", zap.Error(err))
	}

	handler := apiboundary.New(reg, logger.Named("api"))
	defer handler.Close()

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	addr := viperCfg.GetString("server.host") + ":" + viperCfg.GetString("server.port")
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("HTTP API listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := eng.Stop(shutdownCtx); err != nil {
		logger.Error("engine shutdown error", zap.Error(err))
	}
	if n, err := store.PruneExpired(shutdownCtx); err != nil {
		logger.Error("fingerprint cache prune failed", zap.Error(err))
	} else if n > 0 {
		logger.Info("pruned expired fingerprint cache entries", zap.Int("count", n))
	}

	logger.Info("lanscoped stopped")
}

// buildFingerprintHierarchy assembles the §4.14 tiered cache: a file-backed
// TTL cache for UPnP, the durable SQLite-backed remote cache, an optional
// legacy file cache for migration off an older deployment, the bundled
// offline OUI database, and the circuit-broken remote API client.
func buildFingerprintHierarchy(logger *zap.Logger, cfg config.EngineConfig, dataDir string, remoteCache fingerprint.RemoteCacheStore) *fingerprint.Hierarchy {
	upnpCachePath := "upnp-cache.db"
	if dataDir != "" && dataDir != "." {
		upnpCachePath = filepath.Join(dataDir, "upnp-cache.db")
	}
	upnpCache, err := fingerprint.NewUPnPCache(upnpCachePath, cfg.CacheTTLUPnP)
	if err != nil {
		logger.Warn("failed to open UPnP fingerprint cache, disabling that tier", zap.Error(err))
		upnpCache = nil
	}

	var legacyCache fingerprint.LegacyFileCache
	if cfg.EnableLegacyFileCache && cfg.LegacyCacheDir != "" {
		fc, err := fingerprint.NewFileLegacyCache(cfg.LegacyCacheDir)
		if err != nil {
			logger.Warn("failed to open legacy file cache, disabling that tier", zap.Error(err))
		} else {
			legacyCache = fc
		}
	}

	var remoteClient fingerprint.RemoteClient
	if cfg.FingerbankAPIKey != "" {
		remoteClient = fingerprint.NewFingerbankClient(cfg.FingerbankAPIKey)
	}

	breaker := fingerprint.NewCircuitBreaker(cfg.CircuitBreaker.Threshold, cfg.CircuitBreaker.Reset, cfg.CircuitBreaker.HalfOpenMax)

	return fingerprint.NewHierarchy(logger.Named("fingerprint"), fingerprint.Config{
		UPnPCache:    upnpCache,
		UPnPFetcher:  discovery.NewUPnPFetcher(logger.Named("upnp")),
		RemoteCache:  remoteCache,
		LegacyCache:  legacyCache,
		RemoteClient: remoteClient,
		Breaker:      breaker,
		RemoteTTL:    cfg.CacheTTLRemote,
	})
}
