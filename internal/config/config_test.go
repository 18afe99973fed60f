package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
auctions: ["a1", "a2"]
backend:
  base_url: "http://localhost:8080"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a2"}, cfg.Auctions)
	assert.Equal(t, 3*time.Second, cfg.AuctionInterval())
	assert.Equal(t, 2*time.Second, cfg.BidsInterval())
	assert.Equal(t, 2*time.Second, cfg.CloseDelay())
	assert.Equal(t, 6*time.Second, cfg.BackendTimeout())
	assert.Equal(t, 80.0, cfg.Bidding.MinRatingPercent)
	assert.Equal(t, "auction:stream", cfg.Redis.Stream)
	assert.Equal(t, "auction:active", cfg.Redis.ActiveKey)
	assert.Equal(t, "auction:snap:", cfg.Redis.SnapNS)
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: "http://localhost:8080"
  timeout_ms: 1500
timings:
  auction_interval_ms: 5000
  bids_interval_ms: 1000
bidding:
  min_rating_percent: 90
  allow_low_rated: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.BackendTimeout())
	assert.Equal(t, 5*time.Second, cfg.AuctionInterval())
	assert.Equal(t, time.Second, cfg.BidsInterval())
	assert.Equal(t, 90.0, cfg.Bidding.MinRatingPercent)
	assert.True(t, cfg.Bidding.AllowLowRated)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
