// Package rank derives the displayed "current highest bid" from a raw,
// possibly stale bid ledger. It is recomputed on every ledger refresh, so
// Rank is a pure function: no I/O, no mutation of its inputs, identical
// output for identical input.
package rank

import (
	"sort"

	"github.com/NguyenAn0808/online-auction-sub002/internal/auction"
)

type Result struct {
	Ranked  []auction.Bid
	Highest *auction.Bid
}

// Rank filters out blocked bidders and rejected bids, then orders the rest
// by amount descending. Ties go to the earlier CreatedAt, so the first bid
// at a given amount stays ahead of later identical bids across refreshes.
func Rank(bids []auction.Bid, blocklist []auction.BlockEntry) Result {
	blocked := make(map[string]struct{}, len(blocklist))
	for _, e := range blocklist {
		blocked[e.BidderID] = struct{}{}
	}

	ranked := make([]auction.Bid, 0, len(bids))
	for _, b := range bids {
		if _, ok := blocked[b.BidderID]; ok {
			continue
		}
		if b.Status == auction.BidRejected {
			continue
		}
		ranked = append(ranked, b)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})

	var highest *auction.Bid
	if len(ranked) > 0 {
		top := ranked[0]
		highest = &top
	}
	return Result{Ranked: ranked, Highest: highest}
}
