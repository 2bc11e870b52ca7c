package application

import (
	"context"

	"github.com/linktofunnel/storefront/internal/domain"
)

// KPISnapshot aggregates the ledger into the dashboard figures. Formulas stay
// simple on purpose: projection is the 30-day average extended to a month.
func (s *Service) KPISnapshot(ctx context.Context) (domain.KPISnapshot, error) {
	now := s.nowFn().UTC()
	stats, err := s.sales.RevenueStats(ctx, now)
	if err != nil {
		return domain.KPISnapshot{}, err
	}

	snap := domain.KPISnapshot{
		GeneratedAt:        now,
		TotalSales:         stats.TotalSales,
		TotalRevenueCents:  stats.TotalRevenueCents,
		TodayRevenueCents:  stats.TodayRevenueCents,
		MonthRevenueCents:  stats.MonthRevenueCents,
		MonthlyTargetCents: s.cfg.MonthlyTargetCents,
	}
	if stats.TotalSales > 0 {
		snap.AvgOrderCents = stats.TotalRevenueCents / stats.TotalSales
	}
	snap.AvgDailyCents = stats.Last30DaysCents / 30
	snap.MonthlyProjection = snap.AvgDailyCents * 30
	if snap.MonthlyTargetCents > 0 {
		snap.ProgressToTarget = float64(snap.MonthlyProjection) / float64(snap.MonthlyTargetCents) * 100
		snap.OnTrack = snap.MonthlyProjection >= snap.MonthlyTargetCents
	}
	return snap, nil
}
