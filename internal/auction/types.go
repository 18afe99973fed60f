package auction

import "time"

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

// Record is the client-side cache of one auction. The server owns it; the
// client only merges freshly fetched fields over the previous copy.
// All amounts are VND, which has no fractional unit.
type Record struct {
	ID           string
	CurrentPrice int64
	StartPrice   int64
	StepPrice    int64
	BuyNowPrice  int64 // 0 when the auction has no buy-now option
	EndTime      *time.Time
	PriceHolder  string // bidder id of the current leader, "" when none
	Status       Status

	// Bidding policy configured on the product.
	MinRatingPercent float64
	AllowLowRated    bool
}

// Bid is one ledger entry. Append-only from the client's perspective;
// status transitions happen server-side and are observed via refresh.
type Bid struct {
	ID        string
	BidderID  string
	Amount    int64
	Status    BidStatus
	CreatedAt time.Time
}

// BlockEntry scopes a bidder out of ranking and bidding for one auction.
type BlockEntry struct {
	BidderID  string
	BlockedAt time.Time
}

// Session carries the signed-in user's identity. It is passed explicitly
// into every component that needs it; nothing reads ambient auth state.
type Session struct {
	UserID string
}

func (s Session) SignedIn() bool { return s.UserID != "" }

// Merge overlays a freshly fetched record on the cached one. Fields absent
// from the refresh (zero-valued) keep their previous value, except
// CurrentPrice and PriceHolder, which always come from the fresh fetch.
func Merge(prev, fresh Record) Record {
	out := fresh
	if out.ID == "" {
		out.ID = prev.ID
	}
	if out.StartPrice == 0 {
		out.StartPrice = prev.StartPrice
	}
	if out.StepPrice == 0 {
		out.StepPrice = prev.StepPrice
	}
	if out.BuyNowPrice == 0 {
		out.BuyNowPrice = prev.BuyNowPrice
	}
	if out.EndTime == nil {
		out.EndTime = prev.EndTime
	}
	if out.Status == "" {
		out.Status = prev.Status
	}
	if out.MinRatingPercent == 0 {
		out.MinRatingPercent = prev.MinRatingPercent
	}
	return out
}
