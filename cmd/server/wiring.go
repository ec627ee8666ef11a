package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/annel0/tome/internal/catalog"
	"github.com/annel0/tome/internal/config"
	"github.com/annel0/tome/internal/eventbus"
	"github.com/annel0/tome/internal/logging"
	"github.com/annel0/tome/internal/observer"
	"github.com/annel0/tome/internal/storage"
	"github.com/annel0/tome/internal/tile"
	"github.com/annel0/tome/internal/world"
)

// closers закрывает ресурсы в обратном порядке открытия
type closers []io.Closer

func (c *closers) add(cl io.Closer) { *c = append(*c, cl) }

func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil {
			logging.Warn("Ошибка закрытия ресурса: %v", err)
		}
	}
}

func loadCatalog(ctx context.Context, cfg config.CatalogConfig) (*tile.Catalog, error) {
	switch cfg.Source {
	case "mongo":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		src, err := catalog.NewMongoSource(ctx, catalog.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.Load(ctx)
	default:
		return catalog.LoadFile(cfg.Path)
	}
}

func buildStore(cfg config.StoreConfig, cat *tile.Catalog, res *closers) (world.TileStore, error) {
	if cfg.Backend == "badger" {
		store, err := storage.NewBadgerTileStore(cat)
		if err != nil {
			return nil, err
		}
		res.add(store)
		return store, nil
	}
	return world.NewMemoryTileStore(), nil
}

func buildObserver(ctx context.Context, cfg config.ObserverConfig, seed int64, res *closers) (world.ObserverSource, error) {
	start := cfg.Start.Vec()

	switch cfg.Source {
	case "static":
		return observer.NewStatic(start), nil
	case "redis":
		rc := storage.DefaultRedisConfig()
		rc.Addr = cfg.Redis.Addr
		rc.Password = cfg.Redis.Password
		rc.DB = cfg.Redis.DB
		if cfg.Redis.KeyPrefix != "" {
			rc.KeyPrefix = cfg.Redis.KeyPrefix
		}
		repo, err := storage.NewRedisPositionRepository(ctx, rc)
		if err != nil {
			return nil, err
		}
		res.add(repo)
		src := observer.NewRepoSource(repo, cfg.ID)
		src.Seed(start)
		return src, nil
	case "maria":
		repo, err := storage.NewMariaPositionRepo(ctx, cfg.Maria.DSN)
		if err != nil {
			return nil, err
		}
		res.add(repo)
		src := observer.NewRepoSource(repo, cfg.ID)
		src.Seed(start)
		return src, nil
	case "walker":
		w := observer.NewWalker(seed, start, cfg.Speed)
		w.SetClimb(cfg.Climb)
		return w, nil
	default:
		return nil, fmt.Errorf("неизвестный источник наблюдателя %q", cfg.Source)
	}
}

func buildBus(cfg config.EventBusConfig, res *closers) (eventbus.EventBus, error) {
	var (
		bus eventbus.EventBus
		err error
	)
	switch cfg.Backend {
	case "nats":
		bus, err = eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
		if err != nil {
			return nil, err
		}
	default:
		bus = eventbus.NewMemoryBus(4096)
	}
	res.add(bus)
	return bus, nil
}
