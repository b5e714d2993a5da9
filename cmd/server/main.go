package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiryu-dev/five-in-a-row/internal/adapters/redis"
	"github.com/kiryu-dev/five-in-a-row/internal/config"
	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/kiryu-dev/five-in-a-row/internal/transport/ws"
	"github.com/kiryu-dev/five-in-a-row/internal/usecase/hub"
	"github.com/kiryu-dev/five-in-a-row/internal/usecase/synchronizer"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	pingTimeout     = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	cfgPath := flag.String("config", "./config.yml", "path to config, empty for the defaults")
	flag.Parse()
	cfg := config.Default()
	if *cfgPath != "" {
		if cfg, err = config.New(*cfgPath); err != nil {
			logger.Fatal(err.Error())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hubCfg := hub.Config{
		BoardSize:      cfg.Engine.BoardSize,
		WinThreshold:   cfg.Engine.WinThreshold,
		Seed:           cfg.Engine.Seed,
		ThinkingDelays: cfg.Delays(),
	}
	var (
		opts []hub.Option
		repo domain.SnapshotRepository
	)
	if cfg.Redis.Addr != "" {
		redisCli := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = redisCli.Close()
		}()
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := redisCli.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal("redis is unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		repo = redis.New(redisCli, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
		opts = append(opts, hub.WithRepository(repo))
	} else {
		logger.Warn("redis address is empty: sessions will not survive a restart")
	}

	var (
		h      = hub.New(hubCfg, logger, opts...)
		server = ws.New(cfg.Server.Addr, h, logger)
	)
	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.Go(server.ListenAndServe)
	errGroup.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.WithMessage(err, "shutdown http server")
		}
		return nil
	})
	if repo != nil {
		var syncer domain.SyncUseCase = synchronizer.New(repo, h, cfg.Sync.Period, logger)
		errGroup.Go(func() error {
			return syncer.Sync(ctx)
		})
	}
	if err := errGroup.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("gracefully shut down the server")
}
