// Package main runs the MUD server: the line-protocol listener, the tick
// loop, and the optional metrics and health endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/cory-johannsen/verbmud/internal/config"
	"github.com/cory-johannsen/verbmud/internal/frontend/telnet"
	"github.com/cory-johannsen/verbmud/internal/game/auth"
	"github.com/cory-johannsen/verbmud/internal/game/command"
	"github.com/cory-johannsen/verbmud/internal/game/tagger"
	"github.com/cory-johannsen/verbmud/internal/game/world"
	"github.com/cory-johannsen/verbmud/internal/gameserver"
	"github.com/cory-johannsen/verbmud/internal/observability"
	"github.com/cory-johannsen/verbmud/internal/server"
	"github.com/cory-johannsen/verbmud/internal/storage/boltstore"
	"github.com/cory-johannsen/verbmud/internal/storage/postgres"
)

// backend is an opened world store together with its lifecycle hooks.
type backend struct {
	world      world.Store
	characters world.CharacterStore
	// watch blocks until stop is closed, optionally probing the store.
	watch func(stop <-chan struct{}) error
	close func()
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "mudserver")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting MUD server",
		zap.String("listen_addr", cfg.Listen.Addr()),
		zap.String("backend", cfg.Storage.Backend),
		zap.Duration("tick", cfg.Tick.Interval),
	)

	ctx := context.Background()
	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening world storage", zap.Error(err))
	}

	hasher, err := auth.NewHasher(cfg.Auth.HashScheme)
	if err != nil {
		logger.Fatal("configuring auth", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	registry := command.DefaultRegistry()
	lexicon := tagger.NewLexicon(tagger.Options{
		Verbs:   registry.Words(),
		Adverbs: command.Adverbs(),
	})

	srv := gameserver.NewServer(cfg.Tick, gameserver.Deps{
		World:      store.world,
		Auth:       auth.NewService(store.characters, hasher, logger.Named("auth")),
		Dispatcher: command.NewDispatcher(lexicon, registry, store.world, metrics, logger.Named("command")),
		Metrics:    metrics,
		Logger:     logger.Named("gameserver"),
	})
	acceptor := telnet.NewAcceptor(cfg.Listen, srv, logger.Named("telnet"))

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	storageStop := make(chan struct{})
	lifecycle.Add("storage", &server.FuncService{
		StartFn: func() error {
			return store.watch(storageStop)
		},
		StopFn: func() {
			close(storageStop)
			store.close()
		},
	})

	tickCtx, cancelTick := context.WithCancel(ctx)
	lifecycle.Add("tick", &server.FuncService{
		StartFn: func() error {
			return srv.Run(tickCtx)
		},
		StopFn: func() {
			srv.Stop()
			cancelTick()
		},
	})

	lifecycle.Add("telnet", &server.FuncService{
		StartFn: func() error {
			return acceptor.ListenAndServe()
		},
		StopFn: func() {
			acceptor.Stop()
		},
	})

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		httpServer := &http.Server{
			Addr:              cfg.Metrics.Addr(),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		lifecycle.Add("metrics", &server.FuncService{
			StartFn: func() error {
				logger.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr()))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serving metrics on %s: %w", cfg.Metrics.Addr(), err)
				}
				return nil
			},
			StopFn: func() {
				shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			},
		})
	}

	if cfg.Health.Enabled {
		grpcServer := grpc.NewServer()
		healthServer := health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus(gameserver.HealthService, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		lifecycle.Add("health", &server.FuncService{
			StartFn: func() error {
				lis, err := net.Listen("tcp", cfg.Health.Addr())
				if err != nil {
					return fmt.Errorf("listening on %s: %w", cfg.Health.Addr(), err)
				}
				logger.Info("gRPC health listening", zap.String("addr", lis.Addr().String()))
				go srv.MonitorHealth(tickCtx, healthServer)
				if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					return err
				}
				return nil
			},
			StopFn: func() {
				healthServer.Shutdown()
				grpcServer.GracefulStop()
			},
		})
	}

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("listen_addr", cfg.Listen.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// openBackend opens the configured world storage backend.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backend, error) {
	waitForStop := func(stop <-chan struct{}) error {
		<-stop
		return nil
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		zones, err := world.LoadZonesFromDir(cfg.Storage.WorldDir)
		if err != nil {
			return nil, err
		}
		m, err := world.NewManager(zones)
		if err != nil {
			return nil, fmt.Errorf("building world: %w", err)
		}
		logger.Info("world loaded",
			zap.String("dir", cfg.Storage.WorldDir),
			zap.Int("zones", len(zones)),
			zap.Int("rooms", m.RoomCount()),
		)
		return &backend{world: m, characters: m, watch: waitForStop, close: func() {}}, nil

	case config.BackendBolt:
		s, err := boltstore.Open(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		rooms, err := s.RoomCount()
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		logger.Info("bolt store opened",
			zap.String("path", s.Path()),
			zap.Int("rooms", rooms),
		)
		return &backend{
			world:      s,
			characters: s,
			watch:      waitForStop,
			close: func() {
				if err := s.Close(); err != nil {
					logger.Warn("closing bolt store", zap.Error(err))
				}
			},
		}, nil

	case config.BackendPostgres:
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		return &backend{
			world:      postgres.NewWorldRepository(pool.DB()),
			characters: postgres.NewCharacterRepository(pool.DB()),
			watch: func(stop <-chan struct{}) error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-stop:
						return nil
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					}
				}
			},
			close: pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
