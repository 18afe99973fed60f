package composer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NguyenAn0808/online-auction-sub002/internal/auction"
	"github.com/NguyenAn0808/online-auction-sub002/internal/client"
)

type Step int

const (
	StepInput Step = iota
	StepConfirm
	StepSubmitting
	StepClosed
)

// LiveView supplies the live price the snapshot freezes from.
type LiveView interface {
	LivePrice() (current, step int64)
}

type EligibilityFetcher interface {
	FetchEligibility(ctx context.Context, userID string) (client.Eligibility, error)
}

type Submitter interface {
	SubmitBid(ctx context.Context, auctionID string, maxBid int64) (int64, error)
}

// Policy is the product's configured bar for who may bid.
type Policy struct {
	MinRatingPercent float64
	AllowLowRated    bool
}

// Eligibility is the verdict computed once per composer open. When not
// allowed, Reason is the blocking inline message.
type Eligibility struct {
	Allowed bool
	Reason  string
}

// Outcome is reported to the caller after a successful submission.
type Outcome struct {
	AuctionID     string
	MaxBid        int64
	WinningAmount int64
}

type FlowConfig struct {
	AuctionID   string
	Session     auction.Session
	Live        LiveView
	Eligibility EligibilityFetcher
	Submitter   Submitter
	Policy      Policy
	CloseDelay  time.Duration
	OnOutcome   func(Outcome)
	OnClose     func()
	Log         *zap.Logger
}

// Flow is the input -> confirm -> submit state machine for one auto-bid.
// All advisory only: the server decides final bid validity.
type Flow struct {
	auctionID  string
	session    auction.Session
	live       LiveView
	elig       EligibilityFetcher
	submitter  Submitter
	policy     Policy
	closeDelay time.Duration
	onOutcome  func(Outcome)
	onClose    func()
	log        *zap.Logger

	mu          sync.Mutex
	sessionID   uuid.UUID
	open        bool
	snap        Snapshot
	lastMin     int64
	step        Step
	input       string
	errMsg      string
	successMsg  string
	eligibility Eligibility
	inFlight    bool
}

func NewFlow(cfg FlowConfig) *Flow {
	return &Flow{
		auctionID:  cfg.AuctionID,
		session:    cfg.Session,
		live:       cfg.Live,
		elig:       cfg.Eligibility,
		submitter:  cfg.Submitter,
		policy:     cfg.Policy,
		closeDelay: cfg.CloseDelay,
		onOutcome:  cfg.OnOutcome,
		onClose:    cfg.OnClose,
		log:        cfg.Log,
	}
}

// Open resets every piece of transient state and freezes a fresh snapshot
// from the then-current live price. A reopened composer never inherits a
// previous session's typed amount, messages or staleness. Eligibility is
// fetched exactly once per open.
func (f *Flow) Open(ctx context.Context) {
	verdict := f.checkEligibility(ctx)

	current, step := f.live.LivePrice()
	snap := Capture(current, step)

	f.mu.Lock()
	f.sessionID = uuid.New()
	f.open = true
	f.snap = snap
	f.lastMin = snap.MinBid
	f.step = StepInput
	f.input = ""
	f.errMsg = ""
	f.successMsg = ""
	f.eligibility = verdict
	f.inFlight = false
	f.mu.Unlock()
}

func (f *Flow) checkEligibility(ctx context.Context) Eligibility {
	if !f.session.SignedIn() {
		return Eligibility{Reason: "Sign in to place a bid"}
	}
	e, err := f.elig.FetchEligibility(ctx, f.session.UserID)
	if err != nil {
		f.log.Warn("eligibility check failed", zap.Error(err))
		return Eligibility{Reason: "Could not verify bidding eligibility"}
	}
	if !e.CanBid {
		return Eligibility{Reason: "You are not allowed to bid on this auction"}
	}
	if !f.policy.AllowLowRated {
		if e.RatingPercentage == nil {
			return Eligibility{Reason: "This seller does not accept bids from unrated bidders"}
		}
		if *e.RatingPercentage < f.policy.MinRatingPercent {
			return Eligibility{Reason: fmt.Sprintf(
				"Your positive rating %.0f%% is below the required %.0f%%",
				*e.RatingPercentage, f.policy.MinRatingPercent)}
		}
	}
	return Eligibility{Allowed: true}
}

func (f *Flow) SetInput(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open || f.step != StepInput {
		return
	}
	f.input = text
}

// IsStale reports whether the live price has moved past the frozen
// snapshot since it was captured.
func (f *Flow) IsStale() bool {
	current, _ := f.live.LivePrice()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open && f.snap.IsStale(current)
}

// Refresh re-freezes the snapshot from the current live values. Only ever
// called from an explicit user action; nothing refreshes automatically, so
// a half-typed amount is never invalidated behind the user's back.
func (f *Flow) Refresh() {
	current, step := f.live.LivePrice()
	snap := Capture(current, step)

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open || f.step == StepClosed {
		return
	}
	f.snap = snap
	f.errMsg = ""
}

// Continue moves Input -> Confirm when the typed amount passes validation
// and the bidder is eligible; otherwise it stays put and surfaces the
// inline message.
func (f *Flow) Continue() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open || f.step != StepInput {
		return
	}
	if !f.eligibility.Allowed {
		f.errMsg = f.eligibility.Reason
		return
	}
	if _, msg := f.validateLocked(); msg != "" {
		f.errMsg = msg
		return
	}
	f.errMsg = ""
	f.step = StepConfirm
}

// Back returns from Confirm to Input, keeping the typed amount.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open && f.step == StepConfirm {
		f.step = StepInput
	}
}

// validateLocked checks the typed amount against the frozen minimum. The
// remembered minimum only advances on a successful pass, which is what
// distinguishes the first-ever failure message from the "price updated"
// variant after a refresh raised the bar.
func (f *Flow) validateLocked() (int64, string) {
	amount, ok := parseAmount(f.input)
	if !ok {
		return 0, "Enter a valid bid amount"
	}
	if amount < f.snap.MinBid {
		if f.snap.MinBid > f.lastMin {
			return 0, "Price updated. Minimum bid is now " + auction.FormatVND(f.snap.MinBid)
		}
		return 0, "Minimum bid is " + auction.FormatVND(f.snap.MinBid)
	}
	f.lastMin = f.snap.MinBid
	return amount, ""
}

// Submit fires the external submission exactly once per Confirm
// activation. A second activation while one is outstanding is a no-op.
func (f *Flow) Submit(ctx context.Context) {
	f.mu.Lock()
	if !f.open || f.step != StepConfirm || !f.eligibility.Allowed || f.inFlight {
		f.mu.Unlock()
		return
	}
	amount, msg := f.validateLocked()
	if msg != "" {
		f.errMsg = msg
		f.step = StepInput
		f.mu.Unlock()
		return
	}
	f.inFlight = true
	f.step = StepSubmitting
	sid := f.sessionID
	f.mu.Unlock()

	go func() {
		win, err := f.submitter.SubmitBid(ctx, f.auctionID, amount)
		f.complete(sid, amount, win, err)
	}()
}

func (f *Flow) complete(sid uuid.UUID, maxBid, win int64, err error) {
	f.mu.Lock()
	if sid != f.sessionID {
		// Composer closed or reopened while the request was in flight.
		f.mu.Unlock()
		f.log.Debug("dropping stale submission result")
		return
	}
	f.inFlight = false

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "Bid submission failed, please try again"
		}
		f.errMsg = msg
		f.step = StepInput // typed amount preserved
		f.mu.Unlock()
		f.log.Warn("bid submission failed", zap.String("auction", f.auctionID), zap.Error(err))
		return
	}

	f.errMsg = ""
	f.successMsg = "Auto bid placed. Current winning amount: " + auction.FormatVND(win)
	cb := f.onOutcome
	delay := f.closeDelay
	f.mu.Unlock()

	f.log.Info("bid submitted",
		zap.String("auction", f.auctionID),
		zap.Int64("max_bid", maxBid),
		zap.Int64("winning_amount", win),
	)
	if cb != nil {
		cb(Outcome{AuctionID: f.auctionID, MaxBid: maxBid, WinningAmount: win})
	}
	time.AfterFunc(delay, func() { f.closeSession(sid) })
}

// Close discards the session. No snapshot exists outside an open one, and
// any submission result arriving afterwards is ignored.
func (f *Flow) Close() {
	f.mu.Lock()
	sid := f.sessionID
	f.mu.Unlock()
	f.closeSession(sid)
}

func (f *Flow) closeSession(sid uuid.UUID) {
	f.mu.Lock()
	if sid != f.sessionID || !f.open {
		f.mu.Unlock()
		return
	}
	f.open = false
	f.step = StepClosed
	f.snap = Snapshot{}
	f.sessionID = uuid.Nil
	cb := f.onClose
	f.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (f *Flow) CurrentStep() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) Input() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

func (f *Flow) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

func (f *Flow) SuccessMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.successMsg
}

func (f *Flow) Eligibility() Eligibility {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eligibility
}

// Snapshot returns the frozen pair; ok is false when no session is open.
func (f *Flow) Snapshot() (Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.open
}
