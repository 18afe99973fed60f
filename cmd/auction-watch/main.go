package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/NguyenAn0808/online-auction-sub002/internal/client"
	"github.com/NguyenAn0808/online-auction-sub002/internal/config"
	"github.com/NguyenAn0808/online-auction-sub002/internal/dash"
	"github.com/NguyenAn0808/online-auction-sub002/internal/feed"
	"github.com/NguyenAn0808/online-auction-sub002/internal/metrics"
	"github.com/NguyenAn0808/online-auction-sub002/internal/watcher"
)

func main() {
	cfgPath := flag.String("config", "./config.yaml", "path to config file")
	flag.Parse()

	logger, err := watcher.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		logger.Warn("received signal, shutting down...")
		cancel()
	}()

	metrics.Serve(ctx, cfg.Metrics.ListenAddr, nil, logger)

	board := dash.NewStore(logger)
	board.Serve(ctx, cfg.Dash.ListenAddr)

	var pub *feed.Publisher
	if cfg.Redis.Addr != "" {
		pub = feed.NewPublisher(cfg)
		defer pub.Close()
	} else {
		logger.Info("redis feed disabled: empty addr")
	}

	backend := client.New(cfg, logger)

	logger.Info("auction watcher starting",
		zap.Strings("auctions", cfg.Auctions),
		zap.String("backend", cfg.Backend.BaseURL),
	)
	watcher.New(cfg, backend, pub, board, logger).Run(ctx)
}
