// Package composer drives one bid-composition session: a frozen price
// snapshot to type against, and the input/confirm/submit flow around it.
package composer

import (
	"math"
	"strconv"
	"strings"
)

// Snapshot freezes {currentPrice, minBid} from a single instant. Both
// fields always come from the same read; a snapshot is never mixed from
// two live values. It is immutable: refresh replaces it wholesale.
type Snapshot struct {
	CurrentPrice int64
	MinBid       int64
}

// Capture freezes the live price with its step increment.
func Capture(liveCurrentPrice, stepPrice int64) Snapshot {
	return Snapshot{
		CurrentPrice: liveCurrentPrice,
		MinBid:       liveCurrentPrice + stepPrice,
	}
}

// IsStale reports whether the live price has moved past the frozen one.
// Prices never decrease in this domain, so staleness is one-directional.
func (s Snapshot) IsStale(liveCurrentPrice int64) bool {
	return liveCurrentPrice > s.CurrentPrice
}

// parseAmount accepts the typed bid text, tolerating thousands separators
// and surrounding spaces. ok is false for anything that is not a finite
// positive integer amount.
func parseAmount(input string) (int64, bool) {
	s := strings.TrimSpace(input)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f <= 0 {
		return 0, false
	}
	return int64(f), true
}
