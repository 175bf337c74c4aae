// Package config loads cmd/synapsed's process configuration from the
// environment, grounded on the teacher's getEnv helper pattern.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full set of knobs cmd/synapsed reads at startup.
type Config struct {
	ListenAddr string

	StoragePath string

	RedisAddr string
	NATSURL   string

	CacheMaxCost int64
	CacheTTL     time.Duration

	EmbeddingProvider string

	CompactionInterval time.Duration
}

// FromEnv loads Config from environment variables, applying the same
// defaults documented throughout SPEC_FULL.md.
func FromEnv() Config {
	return Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		StoragePath:        getEnv("STORAGE_ROOT", "data/graphs"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		NATSURL:            os.Getenv("NATS_URL"),
		CacheMaxCost:       getEnvInt64("CACHE_MAX_COST", 1<<26),
		CacheTTL:           getEnvDuration("CACHE_TTL", 10*time.Minute),
		EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "local"),
		CompactionInterval: getEnvDuration("COMPACTION_INTERVAL", 15*time.Minute),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
