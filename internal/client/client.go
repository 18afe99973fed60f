// Package client talks to the auction backend's REST endpoints. The wire
// format is owned by the backend; only the shapes consumed by the sync
// engine are decoded here.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/NguyenAn0808/online-auction-sub002/internal/auction"
	"github.com/NguyenAn0808/online-auction-sub002/internal/config"
	"github.com/NguyenAn0808/online-auction-sub002/internal/metrics"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.Backend.BaseURL,
		http:    &http.Client{Timeout: cfg.BackendTimeout()},
		log:     log,
	}
}

type auctionResp struct {
	ID               string     `json:"id"`
	CurrentPrice     int64      `json:"current_price"`
	StartPrice       int64      `json:"start_price"`
	StepPrice        int64      `json:"step_price"`
	BuyNowPrice      int64      `json:"buy_now_price"`
	EndTime          *time.Time `json:"end_time"`
	PriceHolder      string     `json:"price_holder"`
	Status           string     `json:"status"`
	MinRatingPercent float64    `json:"min_rating_percent"`
	AllowLowRated    bool       `json:"allow_low_rated"`
}

type bidResp struct {
	ID        string    `json:"id"`
	BidderID  string    `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type blockResp struct {
	BidderID  string    `json:"bidder_id"`
	BlockedAt time.Time `json:"blocked_at"`
}

// Eligibility is the rating collaborator's verdict for one user.
type Eligibility struct {
	CanBid           bool     `json:"can_bid"`
	RatingPercentage *float64 `json:"rating_percentage"`
}

func (c *Client) FetchAuction(ctx context.Context, auctionID string) (auction.Record, error) {
	start := time.Now()
	var ar auctionResp
	if err := c.getJSON(ctx, "/api/auctions/"+url.PathEscape(auctionID), &ar); err != nil {
		return auction.Record{}, err
	}
	metrics.FetchLatency.Observe(time.Since(start).Seconds())
	return auction.Record{
		ID:               ar.ID,
		CurrentPrice:     ar.CurrentPrice,
		StartPrice:       ar.StartPrice,
		StepPrice:        ar.StepPrice,
		BuyNowPrice:      ar.BuyNowPrice,
		EndTime:          ar.EndTime,
		PriceHolder:      ar.PriceHolder,
		Status:           auction.Status(ar.Status),
		MinRatingPercent: ar.MinRatingPercent,
		AllowLowRated:    ar.AllowLowRated,
	}, nil
}

func (c *Client) FetchBids(ctx context.Context, auctionID string) ([]auction.Bid, error) {
	start := time.Now()
	var rows []bidResp
	if err := c.getJSON(ctx, "/api/auctions/"+url.PathEscape(auctionID)+"/bids", &rows); err != nil {
		return nil, err
	}
	metrics.FetchLatency.Observe(time.Since(start).Seconds())
	out := make([]auction.Bid, 0, len(rows))
	for _, r := range rows {
		out = append(out, auction.Bid{
			ID:        r.ID,
			BidderID:  r.BidderID,
			Amount:    r.Amount,
			Status:    auction.BidStatus(r.Status),
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

func (c *Client) FetchBlocklist(ctx context.Context, auctionID string) ([]auction.BlockEntry, error) {
	var rows []blockResp
	if err := c.getJSON(ctx, "/api/auctions/"+url.PathEscape(auctionID)+"/blocklist", &rows); err != nil {
		return nil, err
	}
	out := make([]auction.BlockEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, auction.BlockEntry{BidderID: r.BidderID, BlockedAt: r.BlockedAt})
	}
	return out, nil
}

func (c *Client) FetchEligibility(ctx context.Context, userID string) (Eligibility, error) {
	var e Eligibility
	if err := c.getJSON(ctx, "/api/users/"+url.PathEscape(userID)+"/eligibility", &e); err != nil {
		return Eligibility{}, err
	}
	return e, nil
}

// SubmitBid sends one auto-bid (proxy maximum) and returns the competition
// winning amount computed server-side. Non-200 responses surface the
// backend's message when it provides one.
func (c *Client) SubmitBid(ctx context.Context, auctionID string, maxBid int64) (int64, error) {
	body, _ := json.Marshal(map[string]any{
		"auction_id": auctionID,
		"max_bid":    maxBid,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/auctions/"+url.PathEscape(auctionID)+"/auto-bids", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Message != "" {
			return 0, fmt.Errorf("submit bid: %s", e.Message)
		}
		return 0, fmt.Errorf("submit bid: status %d", resp.StatusCode)
	}

	metrics.BidsSubmitted.Inc()
	var out struct {
		CompetitionWinningAmount int64 `json:"competition_winning_amount"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, err
	}
	return out.CompetitionWinningAmount, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return auction.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: %d: %s", path, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
