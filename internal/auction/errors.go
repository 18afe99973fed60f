package auction

import "errors"

// ErrNotFound marks an auction (or its ledger) the backend no longer knows.
// Pollers treat it as terminal: no retry, no backoff.
var ErrNotFound = errors.New("auction not found")
