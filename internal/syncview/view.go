// Package syncview maintains a continuously refreshed read-model of one
// auction: the merged record, the raw bid ledger and the ranking derived
// from it. The model is mutated only by the view's own poll handlers;
// everything else reads it.
package syncview

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NguyenAn0808/online-auction-sub002/internal/auction"
	"github.com/NguyenAn0808/online-auction-sub002/internal/config"
	"github.com/NguyenAn0808/online-auction-sub002/internal/metrics"
	"github.com/NguyenAn0808/online-auction-sub002/internal/poll"
	"github.com/NguyenAn0808/online-auction-sub002/internal/rank"
)

// Backend is the slice of the REST client the view polls.
type Backend interface {
	FetchAuction(ctx context.Context, auctionID string) (auction.Record, error)
	FetchBids(ctx context.Context, auctionID string) ([]auction.Bid, error)
	FetchBlocklist(ctx context.Context, auctionID string) ([]auction.BlockEntry, error)
}

// Update is one refreshed read of the model, fanned out to consumers.
type Update struct {
	Record  auction.Record
	Bids    []auction.Bid
	Ranking rank.Result
	Ts      time.Time
}

type View struct {
	auctionID string
	backend   Backend
	log       *zap.Logger

	auctionPoll *poll.Poller
	bidsPoll    *poll.Poller

	mu         sync.RWMutex
	record     auction.Record
	haveRecord bool
	bids       []auction.Bid
	blocklist  []auction.BlockEntry
	ranking    rank.Result
	notFound   bool

	updates chan Update
}

// Open starts the two independent poll loops, each on its own interval.
// The auction record and the bid ledger refresh independently and are not
// mutually consistent at any instant; the composer's snapshot is the
// reconciliation point.
func Open(ctx context.Context, auctionID string, backend Backend, cfg *config.Config, log *zap.Logger) *View {
	v := &View{
		auctionID:   auctionID,
		backend:     backend,
		log:         log.With(zap.String("auction", auctionID)),
		auctionPoll: poll.New("auction:"+auctionID, log),
		bidsPoll:    poll.New("bids:"+auctionID, log),
		updates:     make(chan Update, 64),
	}
	v.auctionPoll.Start(ctx, v.fetchAuctionTick, cfg.AuctionInterval(), true)
	v.bidsPoll.Start(ctx, v.fetchBidsTick, cfg.BidsInterval(), true)
	return v
}

func (v *View) fetchAuctionTick(ctx context.Context) error {
	rec, err := v.backend.FetchAuction(ctx, v.auctionID)
	if errors.Is(err, auction.ErrNotFound) {
		v.markNotFound()
		return nil
	}
	if err != nil {
		// Transient: swallowed here, retried on the next tick.
		metrics.AuctionFetchErrors.Inc()
		return err
	}

	v.mu.Lock()
	if v.haveRecord {
		rec = auction.Merge(v.record, rec)
	}
	v.record = rec
	v.haveRecord = true
	v.mu.Unlock()

	metrics.CurrentPrice.WithLabelValues(v.auctionID).Set(float64(rec.CurrentPrice))
	if rec.Status == auction.StatusEnded {
		v.log.Info("auction ended, stopping record polling")
		v.auctionPoll.Stop()
	}
	v.publish()
	return nil
}

func (v *View) fetchBidsTick(ctx context.Context) error {
	bids, err := v.backend.FetchBids(ctx, v.auctionID)
	if errors.Is(err, auction.ErrNotFound) {
		v.log.Info("bid ledger not found, stopping bid polling")
		v.bidsPoll.Stop()
		return nil
	}
	if err != nil {
		metrics.BidFetchErrors.Inc()
		return err
	}

	// Blocklist rides on the ledger tick so both ranking inputs come from
	// the same refresh. A failed blocklist fetch keeps the previous one.
	blocklist, err := v.backend.FetchBlocklist(ctx, v.auctionID)
	v.mu.Lock()
	if err != nil {
		blocklist = v.blocklist
	}
	v.bids = bids
	v.blocklist = blocklist
	v.ranking = rank.Rank(bids, blocklist)
	v.mu.Unlock()

	v.publish()
	return nil
}

func (v *View) markNotFound() {
	v.mu.Lock()
	already := v.notFound
	v.notFound = true
	v.mu.Unlock()
	if already {
		return
	}
	v.log.Info("auction not found, polling stopped for good")
	v.auctionPoll.Stop()
	v.bidsPoll.Stop()
}

func (v *View) publish() {
	up := Update{Ts: time.Now()}
	v.mu.RLock()
	up.Record = v.record
	up.Bids = v.bids
	up.Ranking = v.ranking
	v.mu.RUnlock()

	select {
	case v.updates <- up:
	default:
		v.log.Warn("update channel full; dropping")
	}
}

// Record returns the latest merged record; ok is false before the first
// successful fetch.
func (v *View) Record() (auction.Record, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.record, v.haveRecord
}

func (v *View) Bids() []auction.Bid {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.bids
}

func (v *View) Ranking() rank.Result {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ranking
}

func (v *View) NotFound() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.notFound
}

// DisplayPrice is the authoritative current price, falling back to the
// ranked highest bid only when the backend has not supplied one. The
// computed highest never overrides a present authoritative price.
func (v *View) DisplayPrice() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.record.CurrentPrice > 0 {
		return v.record.CurrentPrice
	}
	if v.ranking.Highest != nil {
		return v.ranking.Highest.Amount
	}
	return v.record.StartPrice
}

// LivePrice feeds the bid composer: current display price plus step.
func (v *View) LivePrice() (current, step int64) {
	cur := v.DisplayPrice()
	v.mu.RLock()
	defer v.mu.RUnlock()
	return cur, v.record.StepPrice
}

// ApplyOptimisticBidStatus applies a local status change right after an
// action request returns success, for responsiveness. The next
// authoritative ledger fetch overwrites it; the optimistic value is never
// treated as durable truth.
func (v *View) ApplyOptimisticBidStatus(bidID string, status auction.BidStatus) {
	v.mu.Lock()
	changed := false
	bids := make([]auction.Bid, len(v.bids))
	copy(bids, v.bids)
	for i := range bids {
		if bids[i].ID == bidID && bids[i].Status != status {
			bids[i].Status = status
			changed = true
		}
	}
	if changed {
		v.bids = bids
		v.ranking = rank.Rank(bids, v.blocklist)
	}
	v.mu.Unlock()
	if changed {
		v.publish()
	}
}

// Updates fans out one value per completed refresh. Slow consumers miss
// intermediate updates rather than blocking the pollers.
func (v *View) Updates() <-chan Update {
	return v.updates
}

// MarkEnded stops record polling; the countdown clock calls this when it
// reaches the deadline. Bid polling continues because historical bids stay
// interesting after close.
func (v *View) MarkEnded() {
	v.auctionPoll.Stop()
}

// Close tears down both pollers. No task fires after Close returns,
// including ticks already scheduled.
func (v *View) Close() {
	v.auctionPoll.Stop()
	v.bidsPoll.Stop()
}
