package watcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/NguyenAn0808/online-auction-sub002/internal/auction"
	"github.com/NguyenAn0808/online-auction-sub002/internal/config"
	"github.com/NguyenAn0808/online-auction-sub002/internal/dash"
)

type fakeBackend struct {
	mu           sync.Mutex
	record       auction.Record
	bids         []auction.Bid
	auctionCalls atomic.Int64
}

func (f *fakeBackend) FetchAuction(ctx context.Context, id string) (auction.Record, error) {
	f.auctionCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record, nil
}

func (f *fakeBackend) FetchBids(ctx context.Context, id string) ([]auction.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bids, nil
}

func (f *fakeBackend) FetchBlocklist(ctx context.Context, id string) ([]auction.BlockEntry, error) {
	return nil, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{Auctions: []string{"a1"}}
	cfg.Timings.AuctionIntervalMs = 20
	cfg.Timings.BidsIntervalMs = 20
	return cfg
}

func TestWatcher_UpdatesBoard(t *testing.T) {
	end := time.Now().Add(time.Hour)
	fb := &fakeBackend{
		record: auction.Record{
			ID:           "a1",
			CurrentPrice: 100000,
			StepPrice:    5000,
			EndTime:      &end,
			Status:       auction.StatusActive,
		},
		bids: []auction.Bid{
			{ID: "b1", BidderID: "u1", Amount: 100000, Status: auction.BidAccepted, CreatedAt: time.Now()},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	board := dash.NewStore(zap.NewNop())
	w := New(testConfig(), fb, nil, board, zap.NewNop())
	go w.Run(ctx)

	assert.Eventually(t, func() bool {
		rows := board.Rows()
		return len(rows) == 1 && rows[0].CurrentPrice == 100000
	}, 2*time.Second, 10*time.Millisecond)

	rows := board.Rows()
	assert.Equal(t, "a1", rows[0].AuctionID)
	assert.Equal(t, int64(100000), rows[0].HighestBid)
	assert.Equal(t, 1, rows[0].BidCount)
}

func TestWatcher_CountdownEndStopsRecordPolling(t *testing.T) {
	end := time.Now().Add(-time.Second) // already past
	fb := &fakeBackend{
		record: auction.Record{
			ID:           "a1",
			CurrentPrice: 100000,
			EndTime:      &end,
			Status:       auction.StatusActive,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := New(testConfig(), fb, nil, dash.NewStore(zap.NewNop()), zap.NewNop())
	go w.Run(ctx)

	// The clock's first tick sees the elapsed deadline and halts record
	// polling; fetch counts must then stop growing.
	assert.Eventually(t, func() bool { return fb.auctionCalls.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	calls := fb.auctionCalls.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, calls, fb.auctionCalls.Load())
}
