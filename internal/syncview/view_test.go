package syncview

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NguyenAn0808/online-auction-sub002/internal/auction"
	"github.com/NguyenAn0808/online-auction-sub002/internal/config"
)

type fakeBackend struct {
	mu        sync.Mutex
	record    auction.Record
	recordErr error
	bids      []auction.Bid
	bidsErr   error
	blocklist []auction.BlockEntry

	auctionCalls atomic.Int64
	bidCalls     atomic.Int64
}

func (f *fakeBackend) FetchAuction(ctx context.Context, id string) (auction.Record, error) {
	f.auctionCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return auction.Record{}, f.recordErr
	}
	return f.record, nil
}

func (f *fakeBackend) FetchBids(ctx context.Context, id string) ([]auction.Bid, error) {
	f.bidCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bidsErr != nil {
		return nil, f.bidsErr
	}
	return f.bids, nil
}

func (f *fakeBackend) FetchBlocklist(ctx context.Context, id string) ([]auction.BlockEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocklist, nil
}

func (f *fakeBackend) setRecord(r auction.Record) {
	f.mu.Lock()
	f.record = r
	f.mu.Unlock()
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Timings.AuctionIntervalMs = 20
	cfg.Timings.BidsIntervalMs = 20
	return cfg
}

func activeRecord() auction.Record {
	return auction.Record{
		ID:           "a1",
		CurrentPrice: 100000,
		StartPrice:   50000,
		StepPrice:    5000,
		Status:       auction.StatusActive,
	}
}

func TestView_FetchesAndExposesModel(t *testing.T) {
	fb := &fakeBackend{record: activeRecord()}
	fb.bids = []auction.Bid{
		{ID: "b1", BidderID: "u1", Amount: 100000, Status: auction.BidAccepted, CreatedAt: time.Now()},
	}

	v := Open(context.Background(), "a1", fb, testConfig(), zap.NewNop())
	defer v.Close()

	assert.Eventually(t, func() bool {
		_, ok := v.Record()
		return ok && len(v.Bids()) == 1
	}, time.Second, 5*time.Millisecond)

	rec, _ := v.Record()
	assert.Equal(t, int64(100000), rec.CurrentPrice)
	require.NotNil(t, v.Ranking().Highest)
	assert.Equal(t, "b1", v.Ranking().Highest.ID)
}

func TestView_NotFoundStopsAllPolling(t *testing.T) {
	fb := &fakeBackend{recordErr: auction.ErrNotFound}

	v := Open(context.Background(), "gone", fb, testConfig(), zap.NewNop())
	defer v.Close()

	assert.Eventually(t, v.NotFound, time.Second, 5*time.Millisecond)

	// Let any in-flight tick drain, then verify neither fetch runs again.
	time.Sleep(50 * time.Millisecond)
	auctionCalls := fb.auctionCalls.Load()
	bidCalls := fb.bidCalls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, auctionCalls, fb.auctionCalls.Load())
	assert.Equal(t, bidCalls, fb.bidCalls.Load())
}

func TestView_TransientErrorRetriesNextTick(t *testing.T) {
	fb := &fakeBackend{record: activeRecord()}
	fb.mu.Lock()
	fb.recordErr = assert.AnError
	fb.mu.Unlock()

	v := Open(context.Background(), "a1", fb, testConfig(), zap.NewNop())
	defer v.Close()

	assert.Eventually(t, func() bool { return fb.auctionCalls.Load() >= 2 },
		time.Second, 5*time.Millisecond)
	_, ok := v.Record()
	assert.False(t, ok)

	fb.mu.Lock()
	fb.recordErr = nil
	fb.mu.Unlock()

	assert.Eventually(t, func() bool {
		_, ok := v.Record()
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestView_EndedStopsRecordPollingOnly(t *testing.T) {
	rec := activeRecord()
	rec.Status = auction.StatusEnded
	fb := &fakeBackend{record: rec}

	v := Open(context.Background(), "a1", fb, testConfig(), zap.NewNop())
	defer v.Close()

	assert.Eventually(t, func() bool {
		r, ok := v.Record()
		return ok && r.Status == auction.StatusEnded
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	auctionCalls := fb.auctionCalls.Load()
	bidCallsBefore := fb.bidCalls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, auctionCalls, fb.auctionCalls.Load())
	assert.Greater(t, fb.bidCalls.Load(), bidCallsBefore)
}

func TestView_MergeKeepsAbsentFields(t *testing.T) {
	fb := &fakeBackend{record: activeRecord()}

	v := Open(context.Background(), "a1", fb, testConfig(), zap.NewNop())
	defer v.Close()

	assert.Eventually(t, func() bool {
		_, ok := v.Record()
		return ok
	}, time.Second, 5*time.Millisecond)

	// Partial refresh: step price absent, fresh price and holder present.
	fb.setRecord(auction.Record{
		ID:           "a1",
		CurrentPrice: 110000,
		PriceHolder:  "u7",
		Status:       auction.StatusActive,
	})

	assert.Eventually(t, func() bool {
		r, _ := v.Record()
		return r.CurrentPrice == 110000
	}, time.Second, 5*time.Millisecond)

	r, _ := v.Record()
	assert.Equal(t, int64(5000), r.StepPrice, "absent field must keep prior value")
	assert.Equal(t, int64(50000), r.StartPrice)
	assert.Equal(t, "u7", r.PriceHolder)
}

func TestView_DisplayPriceFallsBackToRankedHighest(t *testing.T) {
	rec := activeRecord()
	rec.CurrentPrice = 0
	fb := &fakeBackend{record: rec}
	fb.bids = []auction.Bid{
		{ID: "b1", BidderID: "u1", Amount: 70000, Status: auction.BidAccepted, CreatedAt: time.Now()},
	}

	v := Open(context.Background(), "a1", fb, testConfig(), zap.NewNop())
	defer v.Close()

	assert.Eventually(t, func() bool { return len(v.Bids()) == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(70000), v.DisplayPrice())

	// An authoritative price always wins over the computed highest.
	rec.CurrentPrice = 100000
	fb.setRecord(rec)
	assert.Eventually(t, func() bool { return v.DisplayPrice() == 100000 },
		time.Second, 5*time.Millisecond)
}

func TestView_BlockedBidderExcludedFromRanking(t *testing.T) {
	fb := &fakeBackend{record: activeRecord()}
	fb.bids = []auction.Bid{
		{ID: "b1", BidderID: "shill", Amount: 900000, Status: auction.BidAccepted, CreatedAt: time.Now()},
		{ID: "b2", BidderID: "u2", Amount: 105000, Status: auction.BidPending, CreatedAt: time.Now()},
	}
	fb.blocklist = []auction.BlockEntry{{BidderID: "shill", BlockedAt: time.Now()}}

	v := Open(context.Background(), "a1", fb, testConfig(), zap.NewNop())
	defer v.Close()

	assert.Eventually(t, func() bool { return v.Ranking().Highest != nil },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, "b2", v.Ranking().Highest.ID)
}

func TestView_OptimisticStatusReconciledByNextPoll(t *testing.T) {
	fb := &fakeBackend{record: activeRecord()}
	fb.bids = []auction.Bid{
		{ID: "b1", BidderID: "u1", Amount: 200000, Status: auction.BidPending, CreatedAt: time.Now()},
		{ID: "b2", BidderID: "u2", Amount: 100000, Status: auction.BidPending, CreatedAt: time.Now()},
	}

	v := Open(context.Background(), "a1", fb, testConfig(), zap.NewNop())
	defer v.Close()

	assert.Eventually(t, func() bool { return v.Ranking().Highest != nil },
		time.Second, 5*time.Millisecond)
	require.Equal(t, "b1", v.Ranking().Highest.ID)

	// Optimistic local reject drops b1 from the ranking immediately.
	v.ApplyOptimisticBidStatus("b1", auction.BidRejected)
	require.NotNil(t, v.Ranking().Highest)
	assert.Equal(t, "b2", v.Ranking().Highest.ID)

	// The next authoritative fetch still says pending and wins back.
	assert.Eventually(t, func() bool {
		h := v.Ranking().Highest
		return h != nil && h.ID == "b1"
	}, time.Second, 5*time.Millisecond)
}

func TestView_CloseStopsTicks(t *testing.T) {
	fb := &fakeBackend{record: activeRecord()}
	v := Open(context.Background(), "a1", fb, testConfig(), zap.NewNop())

	assert.Eventually(t, func() bool { return fb.auctionCalls.Load() >= 1 },
		time.Second, 5*time.Millisecond)
	v.Close()
	time.Sleep(50 * time.Millisecond)
	calls := fb.auctionCalls.Load() + fb.bidCalls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, calls, fb.auctionCalls.Load()+fb.bidCalls.Load())
}
