package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/metagraph/internal/cli/config"
	"github.com/conduit-lang/metagraph/internal/lazy"
	"github.com/conduit-lang/metagraph/internal/loader"
	"github.com/conduit-lang/metagraph/internal/logging"
	"github.com/conduit-lang/metagraph/internal/model"
	"github.com/conduit-lang/metagraph/internal/propval"
	"github.com/conduit-lang/metagraph/internal/store/redisstore"
	"github.com/conduit-lang/metagraph/internal/store/sqlstore"
)

// globalOptions holds the persistent flags of the root command.
type globalOptions struct {
	configFile string
	dsn        string
	noColor    bool
}

// session is the configured store stack shared by one command run.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *sqlstore.Store
	cache  *redisstore.Cache
	source loader.Source
}

func openSession(ctx context.Context, opts *globalOptions) (*session, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.dsn != "" {
		cfg.Store.DSN = opts.dsn
	}

	logger := logging.MustNew(cfg.Log)
	propval.ConfigureIndexing(cfg.Indexing.MaxNonIndexingSize, cfg.Indexing.MinIndexingSize)

	store, err := sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger, store: store, source: store}
	if cfg.Redis.Enabled {
		cache, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
			TTL:      cfg.Redis.TTL,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		cacheOpts := []redisstore.Option{redisstore.WithLogger(logger)}
		if cfg.Redis.Elements {
			cacheOpts = append(cacheOpts, redisstore.WithElements())
		}
		s.cache = cache
		s.source = redisstore.NewCachedSource(store, cache, cacheOpts...)
	}

	logger.Debug("opened session",
		zap.String("driver", cfg.Store.Driver),
		zap.Bool("redis", cfg.Redis.Enabled))
	return s, nil
}

// newLoader builds a loader over a fresh repository and registers the
// bootstrap elements.
func (s *session) newLoader(ctx context.Context, workers int) (*loader.Loader, error) {
	repo := model.NewRepository()
	prims, err := lazy.NewPrimitiveValueResolver(s.cfg.Primitives.Mode, repo)
	if err != nil {
		return nil, err
	}
	builder := lazy.NewBuilder(repo, lazy.DefaultClassRegistry(), prims, s.logger)

	if workers <= 0 {
		workers = s.cfg.Preload.Workers
	}
	l, err := loader.New(ctx, s.source, builder, loader.Options{
		Timeout: s.cfg.Store.Timeout,
		Workers: workers,
		Logger:  s.logger,
	})
	if err != nil {
		return nil, err
	}
	if err := l.Bootstrap(); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *session) Close() error {
	s.logger.Sync()
	if s.cache != nil {
		s.cache.Close()
	}
	return s.store.Close()
}
