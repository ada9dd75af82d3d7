package repository

import (
	"tablebook/pkg/config"
)

func NewTenantRepository(cfg *config.Config) TenantRepository {
	if cfg.StorageBackend == config.BackendMemory {
		return NewMemoryTenantRepository()
	}
	return NewMongoTenantRepository(cfg)
}
