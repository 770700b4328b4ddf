package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	RedisURL      string
	PlatformURL   string
	PlatformToken string
	VotingPeriod  time.Duration
	ReconcileCron string
}

func Load() Config {
	return Config{
		Addr:          getenv("BOT_ADDR", ":8686"),
		RedisURL:      getenv("REDIS_URL", "redis://localhost:6379/0"),
		PlatformURL:   getenv("PLATFORM_URL", "http://localhost:8080"),
		PlatformToken: getenv("PLATFORM_TOKEN", ""),
		// Voting window length per session, in days.
		VotingPeriod: time.Duration(getenvInt("VOTING_PERIOD_DAYS", 7)) * 24 * time.Hour,
		// Hourly on the hour, the cadence the summary text promises.
		ReconcileCron: getenv("RECONCILE_CRON", "0 * * * *"),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
