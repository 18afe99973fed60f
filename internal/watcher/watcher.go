// Package watcher wires one pipeline per configured auction: sync view ->
// countdown / metrics / feed / dashboard.
package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/NguyenAn0808/online-auction-sub002/internal/config"
	"github.com/NguyenAn0808/online-auction-sub002/internal/countdown"
	"github.com/NguyenAn0808/online-auction-sub002/internal/dash"
	"github.com/NguyenAn0808/online-auction-sub002/internal/feed"
	"github.com/NguyenAn0808/online-auction-sub002/internal/syncview"
)

type Watcher struct {
	cfg     *config.Config
	log     *zap.Logger
	backend syncview.Backend
	pub     *feed.Publisher // nil when Redis is not configured
	board   *dash.Store
}

func New(cfg *config.Config, backend syncview.Backend, pub *feed.Publisher, board *dash.Store, log *zap.Logger) *Watcher {
	return &Watcher{cfg: cfg, log: log, backend: backend, pub: pub, board: board}
}

// Run opens one pipeline per configured auction and blocks until the
// context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	if len(w.cfg.Auctions) == 0 {
		w.log.Warn("no auctions configured")
		<-ctx.Done()
		return
	}
	for _, id := range w.cfg.Auctions {
		go w.runAuction(ctx, id)
	}
	w.log.Info("watcher started", zap.Int("auctions", len(w.cfg.Auctions)))
	<-ctx.Done()
	w.log.Info("watcher finished")
}

func (w *Watcher) runAuction(ctx context.Context, auctionID string) {
	log := w.log.With(zap.String("auction", auctionID))
	view := syncview.Open(ctx, auctionID, w.backend, w.cfg, log)
	defer view.Close()

	var clock *countdown.Clock
	defer func() {
		if clock != nil {
			clock.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case up := <-view.Updates():
			// Start the countdown once the deadline is known; later
			// refreshes may push it out on a server-side auto-extend.
			if up.Record.EndTime != nil {
				if clock == nil {
					clock = countdown.New(up.Record.EndTime, func() {
						log.Info("countdown reached zero, stopping record polling")
						view.MarkEnded()
					}, log)
					clock.Start(ctx)
				} else {
					clock.SetEndTime(up.Record.EndTime)
				}
			}
			w.apply(ctx, auctionID, up, clock, log)
		}
	}
}

func (w *Watcher) apply(ctx context.Context, auctionID string, up syncview.Update, clock *countdown.Clock, log *zap.Logger) {
	var highest int64
	if up.Ranking.Highest != nil {
		highest = up.Ranking.Highest.Amount
	}
	var remaining string
	if clock != nil {
		if r, ok := clock.Remaining(); ok {
			remaining = r.String()
		}
	}

	if w.board != nil {
		w.board.Update(dash.Row{
			AuctionID:    auctionID,
			CurrentPrice: up.Record.CurrentPrice,
			PriceHolder:  up.Record.PriceHolder,
			Status:       string(up.Record.Status),
			HighestBid:   highest,
			BidCount:     len(up.Bids),
			Remaining:    remaining,
		})
	}

	if w.pub != nil {
		err := w.pub.Publish(ctx, feed.Entry{
			AuctionID:    auctionID,
			CurrentPrice: up.Record.CurrentPrice,
			PriceHolder:  up.Record.PriceHolder,
			Status:       string(up.Record.Status),
			HighestBid:   highest,
			BidCount:     len(up.Bids),
			TsMs:         up.Ts.UnixMilli(),
		})
		if err != nil {
			log.Warn("feed publish failed", zap.Error(err))
		}
	}
}

func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.MessageKey = "msg"
	cfg.EncoderConfig.CallerKey = "caller"
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	return cfg.Build()
}
