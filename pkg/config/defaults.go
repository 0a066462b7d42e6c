package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roomly"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Advisory lock tuning. The TTL bounds how long a crashed creator can
	// block a room; the wait timeout bounds how long a caller queues for a
	// contended room before getting a retryable timeout.
	DefaultLockTTL          = 10 * time.Second
	DefaultLockWaitTimeout  = 5 * time.Second
	DefaultLockPollInterval = 50 * time.Millisecond

	DefaultPaginationLimit = 100
)
