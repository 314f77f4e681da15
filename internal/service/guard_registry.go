package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
	"github.com/omniagentpay/application-layer-sub001/internal/guard"
	"github.com/omniagentpay/application-layer-sub001/internal/repository"
)

// GuardRegistry holds the active guard configs. The in-memory map is
// authoritative at runtime; admin saves write through to the repository
// synchronously since they are rare and operator-driven.
type GuardRegistry struct {
	mu      sync.RWMutex
	configs map[string]domain.GuardConfig
	order   []string

	repo   repository.GuardRepository
	logger *slog.Logger
}

func NewGuardRegistry(repo repository.GuardRepository, logger *slog.Logger) *GuardRegistry {
	return &GuardRegistry{
		configs: make(map[string]domain.GuardConfig),
		repo:    repo,
		logger:  logger,
	}
}

// Load pulls persisted configs, seeding the defaults on an empty table.
func (r *GuardRegistry) Load(ctx context.Context) error {
	configs, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load guard configs: %w", err)
	}
	if len(configs) == 0 {
		configs = defaultGuards()
		for i := range configs {
			if err := r.repo.Save(ctx, &configs[i]); err != nil {
				return fmt.Errorf("seed guard config %s: %w", configs[i].ID, err)
			}
		}
		r.logger.Info("seeded default guard configs", "count", len(configs))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cfg := range configs {
		if _, ok := r.configs[cfg.ID]; !ok {
			r.order = append(r.order, cfg.ID)
		}
		r.configs[cfg.ID] = cfg
	}
	return nil
}

// List returns every config in insertion order.
func (r *GuardRegistry) List() []domain.GuardConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.GuardConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.configs[id])
	}
	return out
}

// Save validates and stores a config, then persists it.
func (r *GuardRegistry) Save(ctx context.Context, cfg domain.GuardConfig) error {
	if cfg.ID == "" {
		return &domain.ValidationError{Field: "id", Reason: "guard id is required"}
	}
	if _, err := guard.FromConfig(cfg); err != nil {
		return &domain.ValidationError{Field: "config", Reason: err.Error()}
	}

	r.mu.Lock()
	if _, ok := r.configs[cfg.ID]; !ok {
		r.order = append(r.order, cfg.ID)
	}
	r.configs[cfg.ID] = cfg
	r.mu.Unlock()

	if err := r.repo.Save(ctx, &cfg); err != nil {
		return fmt.Errorf("persist guard config %s: %w", cfg.ID, err)
	}
	return nil
}

// ActiveGuards builds the typed guards for every enabled config, in
// insertion order. Disabled configs are skipped entirely.
func (r *GuardRegistry) ActiveGuards() ([]guard.Guard, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	guards := make([]guard.Guard, 0, len(r.order))
	for _, id := range r.order {
		cfg := r.configs[id]
		if !cfg.Enabled {
			continue
		}
		g, err := guard.FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		guards = append(guards, g)
	}
	return guards, nil
}

func defaultGuards() []domain.GuardConfig {
	return []domain.GuardConfig{
		{ID: "guard-budget", Name: "Daily budget", Type: domain.GuardBudget, Enabled: true, Limit: 3000, Period: domain.PeriodDay},
		{ID: "guard-single-tx", Name: "Per-transaction cap", Type: domain.GuardSingleTx, Enabled: true, Limit: 2000},
		{ID: "guard-rate-limit", Name: "Hourly intent rate", Type: domain.GuardRateLimit, Enabled: true, Limit: 20, Period: domain.PeriodHour},
		{ID: "guard-auto-approve", Name: "Auto-approve threshold", Type: domain.GuardAutoApprove, Enabled: true, Threshold: 100},
	}
}
