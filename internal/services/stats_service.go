package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/debtflow/debtflow-api/internal/repository"
	"github.com/debtflow/debtflow-api/pkg/logger"
)

// StatsOverview is the dashboard summary for one organization
type StatsOverview struct {
	OpenCases          int64           `json:"open_cases"`
	PaidCases          int64           `json:"paid_cases"`
	TotalOutstanding   decimal.Decimal `json:"total_outstanding"`
	CollectedThisMonth decimal.Decimal `json:"collected_this_month"`
	RecoveryRate       decimal.Decimal `json:"recovery_rate"`
	RefreshedAt        time.Time       `json:"refreshed_at"`
}

type StatsService struct {
	caseRepo repository.CaseRepository

	mu    sync.RWMutex
	cache map[string]*StatsOverview
	ttl   time.Duration
}

func NewStatsService(caseRepo repository.CaseRepository) *StatsService {
	return &StatsService{
		caseRepo: caseRepo,
		cache:    make(map[string]*StatsOverview),
		ttl:      15 * time.Minute,
	}
}

// Overview returns the cached summary for the organization, recomputing it
// when the cache entry is stale or missing.
func (s *StatsService) Overview(ctx context.Context, orgID string) (*StatsOverview, error) {
	s.mu.RLock()
	cached, ok := s.cache[orgID]
	s.mu.RUnlock()

	if ok && time.Since(cached.RefreshedAt) < s.ttl {
		return cached, nil
	}
	return s.Refresh(ctx, orgID)
}

// Refresh recomputes the summary and replaces the cache entry
func (s *StatsService) Refresh(ctx context.Context, orgID string) (*StatsOverview, error) {
	stats, err := s.caseRepo.GetStats(ctx, orgID)
	if err != nil {
		return nil, err
	}

	overview := &StatsOverview{
		OpenCases:          stats.OpenCases,
		PaidCases:          stats.PaidCases,
		TotalOutstanding:   stats.TotalOutstanding,
		CollectedThisMonth: stats.CollectedThisMonth,
		RecoveryRate:       recoveryRate(stats),
		RefreshedAt:        time.Now(),
	}

	s.mu.Lock()
	s.cache[orgID] = overview
	s.mu.Unlock()

	return overview, nil
}

// RefreshAll recomputes every cached organization. Used by the scheduled job
// so dashboards stay warm between requests.
func (s *StatsService) RefreshAll(ctx context.Context) {
	s.mu.RLock()
	orgIDs := make([]string, 0, len(s.cache))
	for orgID := range s.cache {
		orgIDs = append(orgIDs, orgID)
	}
	s.mu.RUnlock()

	for _, orgID := range orgIDs {
		if _, err := s.Refresh(ctx, orgID); err != nil {
			logger.Error(fmt.Sprintf("Failed to refresh stats for organization %s: %v", orgID, err))
		}
	}
}

// recoveryRate is closed paid cases over all resolved-or-open cases
func recoveryRate(stats *repository.CaseStats) decimal.Decimal {
	total := stats.OpenCases + stats.PaidCases
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(stats.PaidCases).
		Div(decimal.NewFromInt(total)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}
