package feed

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/NguyenAn0808/online-auction-sub002/internal/config"
)

type Consumer struct {
	rdb    *redis.Client
	active string
	snapNS string
}

func NewConsumer(cfg *config.Config) *Consumer {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
	})
	return &Consumer{
		rdb:    rdb,
		active: cfg.Redis.ActiveKey,
		snapNS: cfg.Redis.SnapNS,
	}
}

// ReadSnapshot reads the latest published state for one auction.
// Returns redis.Nil when the auction was never published.
func (c *Consumer) ReadSnapshot(ctx context.Context, auctionID string) (Entry, error) {
	m, err := c.rdb.HGetAll(ctx, c.snapNS+auctionID).Result()
	if err != nil {
		return Entry{}, err
	}
	if len(m) == 0 {
		return Entry{}, redis.Nil
	}
	price, _ := strconv.ParseInt(m["current_price"], 10, 64)
	highest, _ := strconv.ParseInt(m["highest_bid"], 10, 64)
	count, _ := strconv.Atoi(m["bid_count"])
	ts, _ := strconv.ParseInt(m["ts_ms"], 10, 64)
	return Entry{
		AuctionID:    m["auction_id"],
		CurrentPrice: price,
		PriceHolder:  m["price_holder"],
		Status:       m["status"],
		HighestBid:   highest,
		BidCount:     count,
		TsMs:         ts,
	}, nil
}

// RecentAuctionIDs lists auctions published since sinceMs, per the active
// index ZSET.
func (c *Consumer) RecentAuctionIDs(ctx context.Context, sinceMs int64) ([]string, error) {
	return c.rdb.ZRangeByScore(ctx, c.active, &redis.ZRangeBy{
		Min: strconv.FormatInt(sinceMs, 10),
		Max: "+inf",
	}).Result()
}

func (c *Consumer) Close() error { return c.rdb.Close() }
