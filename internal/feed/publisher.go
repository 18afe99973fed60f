// Package feed mirrors the watcher's merged read-model into Redis so
// other processes (dashboards, alerting) can follow auctions without
// polling the backend themselves.
package feed

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/NguyenAn0808/online-auction-sub002/internal/config"
)

// Entry is one published read of an auction's state.
type Entry struct {
	AuctionID    string
	CurrentPrice int64
	PriceHolder  string
	Status       string
	HighestBid   int64
	BidCount     int
	TsMs         int64
}

type Publisher struct {
	rdb    *redis.Client
	stream string
	active string
	snapNS string
}

func NewPublisher(cfg *config.Config) *Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	return &Publisher{
		rdb:    rdb,
		stream: cfg.Redis.Stream,
		active: cfg.Redis.ActiveKey,
		snapNS: cfg.Redis.SnapNS,
	}
}

// Publish upserts the auction's latest snapshot hash, refreshes the active
// index and appends one stream event.
func (p *Publisher) Publish(ctx context.Context, e Entry) error {
	key := p.snapNS + e.AuctionID
	if err := p.rdb.HSet(ctx, key, map[string]interface{}{
		"auction_id":    e.AuctionID,
		"current_price": e.CurrentPrice,
		"price_holder":  e.PriceHolder,
		"status":        e.Status,
		"highest_bid":   e.HighestBid,
		"bid_count":     e.BidCount,
		"ts_ms":         e.TsMs,
	}).Err(); err != nil {
		return err
	}
	if err := p.rdb.ZAdd(ctx, p.active, redis.Z{
		Score: float64(e.TsMs), Member: e.AuctionID,
	}).Err(); err != nil {
		return err
	}
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"auction_id":    e.AuctionID,
			"current_price": e.CurrentPrice,
			"status":        e.Status,
			"ts_ms":         e.TsMs,
		},
	}).Err()
}

func (p *Publisher) Close() error { return p.rdb.Close() }
