// Package dash serves a small live board of the watched auctions: a JSON
// snapshot endpoint plus a websocket that pushes rows as they change.
package dash

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Row is one auction as shown on the board.
type Row struct {
	AuctionID    string `json:"auctionId"`
	CurrentPrice int64  `json:"currentPrice"`
	PriceHolder  string `json:"priceHolder,omitempty"`
	Status       string `json:"status"`
	HighestBid   int64  `json:"highestBid"`
	BidCount     int    `json:"bidCount"`
	Remaining    string `json:"remaining,omitempty"`
	TS           int64  `json:"ts"`
}

type Store struct {
	mu   sync.RWMutex
	rows map[string]Row
	hub  *hub
	log  *zap.Logger
}

func NewStore(log *zap.Logger) *Store {
	return &Store{
		rows: make(map[string]Row, 16),
		hub:  newHub(log),
		log:  log,
	}
}

// Update replaces the auction's row and pushes it to socket subscribers.
func (s *Store) Update(row Row) {
	row.TS = time.Now().UnixMilli()
	s.mu.Lock()
	s.rows[row.AuctionID] = row
	s.mu.Unlock()
	s.hub.broadcast(row)
}

// Rows returns the board sorted by auction id for stable rendering.
func (s *Store) Rows() []Row {
	s.mu.RLock()
	out := make([]Row, 0, len(s.rows))
	for _, r := range s.rows {
		out = append(out, r)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].AuctionID < out[j].AuctionID })
	return out
}

// Serve starts the board's HTTP server; no-op with an empty addr.
func (s *Store) Serve(ctx context.Context, addr string) {
	if addr == "" {
		s.log.Info("dash disabled: empty addr")
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/rows", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Rows())
	})
	mux.HandleFunc("/ws", s.hub.handleWS)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.log.Info("dash server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("dash server error", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.hub.closeAll()
	}()
}
