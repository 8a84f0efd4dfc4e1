package main

import (
	"fmt"

	"jobboard-ledger/internal/config"
	"jobboard-ledger/internal/ledger"
	"jobboard-ledger/internal/logger"
	"jobboard-ledger/internal/storage/memory"
	"jobboard-ledger/internal/storage/redis"
	"jobboard-ledger/internal/storage/sqldb"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what a single command invocation needs.
type app struct {
	ledger  *ledger.Ledger
	log     *zap.Logger
	closers []func() error
}

func (a *app) close() {
	if a.log == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "jobboard",
		Short:         "Ledger of job listings and applications.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}

	root.AddCommand(
		newPostJobCmd(a),
		newApplyCmd(a),
		newUpdateStatusCmd(a),
		newCloseJobCmd(a),
		newViewJobCmd(a),
		newViewApplicationCmd(a),
		newCountersCmd(a),
	)

	return root, a
}

func (a *app) open() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.log = log

	var store ledger.Store
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("using in-memory storage, state is lost on exit")
		store = memory.New()
	default:
		if err := ensureDir(cfg); err != nil {
			return err
		}
		s, err := sqldb.New(cfg.StorageDriver, cfg.DatabaseDSN, log)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		store = s
	}
	a.closers = append(a.closers, store.Close)

	var cache ledger.Cache
	if cfg.CacheEnabled() {
		c, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, log)
		if err != nil {
			// the store is authoritative, run without the cache
			log.Warn("redis unavailable, cache disabled", zap.Error(err))
		} else {
			cache = c
			a.closers = append(a.closers, c.Close)
		}
	}

	a.ledger = ledger.New(store, cache, log)

	log.Debug("ledger ready",
		zap.String("storage_driver", cfg.StorageDriver),
		zap.Bool("cache", cache != nil),
	)

	return nil
}
