package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Auctions []string `yaml:"auctions"`

	Backend struct {
		BaseURL   string `yaml:"base_url"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"backend"`

	Timings struct {
		AuctionIntervalMs int `yaml:"auction_interval_ms"`
		BidsIntervalMs    int `yaml:"bids_interval_ms"`
		CloseDelayMs      int `yaml:"close_delay_ms"`
	} `yaml:"timings"`

	Bidding struct {
		MinRatingPercent float64 `yaml:"min_rating_percent"`
		AllowLowRated    bool    `yaml:"allow_low_rated"`
	} `yaml:"bidding"`

	Redis struct {
		Addr      string `yaml:"addr"`
		DB        int    `yaml:"db"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		Stream    string `yaml:"stream"`
		ActiveKey string `yaml:"active_key"`
		SnapNS    string `yaml:"snap_ns"`
	} `yaml:"redis"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`

	Dash struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"dash"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Backend.TimeoutMs == 0 {
		c.Backend.TimeoutMs = 6000
	}
	if c.Timings.AuctionIntervalMs == 0 {
		c.Timings.AuctionIntervalMs = 3000
	}
	if c.Timings.BidsIntervalMs == 0 {
		c.Timings.BidsIntervalMs = 2000
	}
	if c.Timings.CloseDelayMs == 0 {
		c.Timings.CloseDelayMs = 2000
	}
	if c.Bidding.MinRatingPercent == 0 {
		c.Bidding.MinRatingPercent = 80
	}
	if c.Redis.Stream == "" {
		c.Redis.Stream = "auction:stream"
	}
	if c.Redis.ActiveKey == "" {
		c.Redis.ActiveKey = "auction:active"
	}
	if c.Redis.SnapNS == "" {
		c.Redis.SnapNS = "auction:snap:"
	}
}

func (c *Config) AuctionInterval() time.Duration {
	return time.Duration(c.Timings.AuctionIntervalMs) * time.Millisecond
}
func (c *Config) BidsInterval() time.Duration {
	return time.Duration(c.Timings.BidsIntervalMs) * time.Millisecond
}
func (c *Config) CloseDelay() time.Duration {
	return time.Duration(c.Timings.CloseDelayMs) * time.Millisecond
}
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutMs) * time.Millisecond
}
