package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs at startup so main stays lean.
type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string

	// DonationCooldown is how long a donor must wait after a donation before
	// becoming eligible again.
	DonationCooldown time.Duration
	// FanOutLimit bounds how many donors a single match pass may notify.
	FanOutLimit int
	// NotifyWorkers bounds parallel transport dispatches during fan-out.
	NotifyWorkers int
	// SweepInterval is how often the expiry sweeper scans for stale requisitions.
	SweepInterval time.Duration
	// DiscoverCacheTTL bounds staleness of the cached donor discovery feed.
	DiscoverCacheTTL time.Duration
	// AutoFulfill controls whether requisitions fulfill themselves once the
	// willing-donor count reaches units needed. Kept configurable pending a
	// product decision on manual-only fulfillment.
	AutoFulfill bool
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() Config {
	return Config{
		Addr:             envString("LIFELINK_ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		DonationCooldown: time.Duration(envInt("DONATION_COOLDOWN_DAYS", 90)) * 24 * time.Hour,
		FanOutLimit:      envInt("NOTIFY_FANOUT_LIMIT", 100),
		NotifyWorkers:    envInt("NOTIFY_WORKERS", 8),
		SweepInterval:    envDuration("SWEEP_INTERVAL", time.Minute),
		DiscoverCacheTTL: envDuration("DISCOVER_CACHE_TTL", 30*time.Second),
		AutoFulfill:      envString("AUTO_FULFILL", "true") == "true",
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
