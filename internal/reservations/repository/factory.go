package repository

import (
	"tablebook/pkg/config"
)

func NewReservationRepository(cfg *config.Config) ReservationRepository {
	if cfg.StorageBackend == config.BackendMemory {
		return NewMemoryReservationRepository()
	}
	return NewMongoReservationRepository(cfg)
}

func NewSlotLocker(cfg *config.Config) SlotLocker {
	switch cfg.LockBackend {
	case config.BackendRedis:
		return NewRedisSlotLocker(cfg)
	case config.BackendMongo:
		return NewMongoSlotLocker(cfg)
	default:
		return NewMemorySlotLocker(cfg.LockWaitTimeout)
	}
}
