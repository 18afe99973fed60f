package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CurrentPrice = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "auction_current_price_vnd",
		Help: "Authoritative current price (VND) per watched auction",
	}, []string{"auction"})

	AuctionFetchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auction_record_fetch_errors_total",
		Help: "Number of failed auction record fetches",
	})

	BidFetchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auction_bid_fetch_errors_total",
		Help: "Number of failed bid ledger fetches",
	})

	BidsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auction_bids_submitted_total",
		Help: "Number of bid submissions sent to the backend",
	})

	FetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auction_fetch_latency_seconds",
		Help:    "Time to fetch one auction record or bid ledger",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		CurrentPrice,
		AuctionFetchErrors,
		BidFetchErrors,
		BidsSubmitted,
		FetchLatency,
	)
}
