package repository

import (
	"context"
	"slices"

	"loanquote/internal/models"
)

// MemoryRepository serves a fixed set of configs.
type MemoryRepository struct {
	configs []models.LenderConfig
}

// NewMemoryRepository creates a repository over configs, kept in the given order.
func NewMemoryRepository(configs ...models.LenderConfig) *MemoryRepository {
	return &MemoryRepository{configs: slices.Clone(configs)}
}

// ListConfigs returns a copy of the configs.
func (r *MemoryRepository) ListConfigs(context.Context) ([]models.LenderConfig, error) {
	out := slices.Clone(r.configs)
	if out == nil {
		out = []models.LenderConfig{}
	}
	return out, nil
}
