// Package main loads YAML world content into a persistent storage backend and
// optionally creates a playable character.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/verbmud/internal/config"
	"github.com/cory-johannsen/verbmud/internal/game/auth"
	"github.com/cory-johannsen/verbmud/internal/game/world"
	"github.com/cory-johannsen/verbmud/internal/observability"
	"github.com/cory-johannsen/verbmud/internal/storage/boltstore"
	"github.com/cory-johannsen/verbmud/internal/storage/postgres"
)

// importer is a backend that accepts whole zones.
type importer interface {
	world.CharacterStore
	ImportZones(ctx context.Context, zones []*world.Zone) error
}

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	target := flag.String("target", "", "storage backend to import into: postgres or bolt (default: storage.backend)")
	dir := flag.String("dir", "", "zone YAML directory (default: storage.world_dir)")
	name := flag.String("create", "", "optional character name to create after the import")
	secret := flag.String("secret", "", "secret for the created character")
	desc := flag.String("desc", "", "short description for the created character")
	room := flag.Int64("room", 1, "starting room for the created character")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *target == "" {
		*target = cfg.Storage.Backend
	}
	if *dir == "" {
		*dir = cfg.Storage.WorldDir
	}
	if *name != "" && *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: import-world [-config <file>] [-target postgres|bolt] [-dir <zones>] [-create <name> -secret <secret> [-desc <text>] [-room <id>]]")
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Logging, "import-world")
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	start := time.Now()
	zones, err := world.LoadZonesFromDir(*dir)
	if err != nil {
		logger.Fatal("loading zones", zap.Error(err))
	}
	// Cross-zone exits are checked before anything is written.
	if _, err := world.NewManager(zones); err != nil {
		logger.Fatal("validating zones", zap.Error(err))
	}

	ctx := context.Background()
	var dst importer
	switch *target {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		dst = struct {
			*postgres.WorldRepository
			*postgres.CharacterRepository
		}{postgres.NewWorldRepository(pool.DB()), postgres.NewCharacterRepository(pool.DB())}
	case config.BackendBolt:
		s, err := boltstore.Open(cfg.Storage.BoltPath)
		if err != nil {
			logger.Fatal("opening bolt store", zap.Error(err))
		}
		defer s.Close()
		dst = s
	default:
		fmt.Fprintf(os.Stderr, "unknown target %q (supported: postgres, bolt)\n", *target)
		os.Exit(1)
	}

	if err := dst.ImportZones(ctx, zones); err != nil {
		logger.Fatal("importing zones", zap.Error(err))
	}
	logger.Info("zones imported",
		zap.String("target", *target),
		zap.Int("zones", len(zones)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if *name == "" {
		return
	}
	hasher, err := auth.NewHasher(cfg.Auth.HashScheme)
	if err != nil {
		logger.Fatal("configuring auth", zap.Error(err))
	}
	svc := auth.NewService(dst, hasher, logger)
	c, err := svc.CreateCharacter(ctx, *name, *secret, *desc, world.RoomID(*room))
	if err != nil {
		logger.Fatal("creating character", zap.String("name", *name), zap.Error(err))
	}
	logger.Info("character created",
		zap.String("name", c.Name),
		zap.Int64("id", int64(c.ID)),
		zap.Int64("room", int64(c.RoomID)),
	)
}
