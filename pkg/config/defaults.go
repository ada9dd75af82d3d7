package config

import "time"

const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
)

const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultStorageBackend = BackendMongo
	DefaultLockBackend    = BackendMongo

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tablebook"
	DefaultMongoConnTimeout  = 10 * time.Second
	DefaultDBTimeout         = 5 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultLockTTL         = 10 * time.Second
	DefaultLockWaitTimeout = 3 * time.Second
	DefaultNotifyTimeout   = 5 * time.Second

	// 96 steps of 15 minutes covers a whole day in each direction.
	DefaultSlotStepMinutes    = 15
	DefaultSlotSearchMaxSteps = 96

	DefaultReservationEventsTopic = "reservation-events"
	DefaultNotifierGroupID        = "reservation-notifier"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
