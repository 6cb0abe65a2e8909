package usecase

import (
	"context"

	"github.com/oneelevenhq/leadbridge/core/config"
	domainHealth "github.com/oneelevenhq/leadbridge/domains/health"
	"github.com/oneelevenhq/leadbridge/infrastructure/valkey"
	"github.com/oneelevenhq/leadbridge/pkg/eventworker"
	"gorm.io/gorm"
)

type healthService struct {
	cfg   *config.Config
	db    *gorm.DB
	cache *valkey.Client
	pool  *eventworker.EventWorkerPool
}

func NewHealthService(cfg *config.Config, db *gorm.DB, cache *valkey.Client, pool *eventworker.EventWorkerPool) domainHealth.IHealthUsecase {
	return &healthService{cfg: cfg, db: db, cache: cache, pool: pool}
}

func (s *healthService) GetStatus(ctx context.Context) (domainHealth.Report, error) {
	report := domainHealth.Report{
		Version:   s.cfg.App.Version,
		Store:     domainHealth.StatusOk,
		Cache:     domainHealth.StatusUnknown,
		EventPool: s.pool.Stats(),
	}

	if sqlDB, err := s.db.DB(); err != nil {
		report.Store = domainHealth.StatusError
	} else if err := sqlDB.PingContext(ctx); err != nil {
		report.Store = domainHealth.StatusError
	}

	if s.cache != nil {
		if s.cache.IsConnected() {
			report.Cache = domainHealth.StatusOk
		} else {
			report.Cache = domainHealth.StatusError
		}
	}

	return report, nil
}
