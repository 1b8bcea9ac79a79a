package services

import (
	"context"
	"sync"
	"time"

	"github.com/stakevault-io/staking-pool-service/internal/clients/bankclient"
	"github.com/stakevault-io/staking-pool-service/internal/config"
	"github.com/stakevault-io/staking-pool-service/internal/db"
	"github.com/stakevault-io/staking-pool-service/internal/queue"
)

type Service struct {
	// mu serializes mutating ledger operations; reads take the shared side.
	// The deployment assumption is a single writer instance per pool.
	mu sync.RWMutex

	cfg          *config.Config
	db           db.DbInterface
	bank         bankclient.BankClient
	queueManager *queue.QueueManager
	clock        func() time.Time
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	bank bankclient.BankClient,
	qm *queue.QueueManager,
) *Service {
	return &Service{
		cfg:          cfg,
		db:           db,
		bank:         bank,
		queueManager: qm,
		clock:        time.Now,
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock == nil {
		return
	}
	s.clock = clock
}

// now is the settlement timestamp of the current operation, unix seconds.
func (s *Service) now() int64 {
	return s.clock().Unix()
}

// Ping verifies database connectivity. Used by the healthcheck endpoint.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
