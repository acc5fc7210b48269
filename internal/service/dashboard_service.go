package service

import (
	"context"
	"time"

	"dealership/internal/model"
	"dealership/internal/repository"

	"github.com/shopspring/decimal"
)

const dashboardMonths = 6

type DashboardService interface {
	GetStats(ctx context.Context) (*model.DashboardStats, error)
}

type dashboardService struct {
	repo repository.DashboardRepository
	now  func() time.Time
}

func NewDashboardService(repo repository.DashboardRepository) DashboardService {
	return &dashboardService{repo: repo, now: time.Now}
}

// GetStats assembles the dashboard counters. Revenue counts completed
// payments only.
func (s *dashboardService) GetStats(ctx context.Context) (*model.DashboardStats, error) {
	stats := &model.DashboardStats{
		ByStatus:     map[model.Status]int64{},
		TotalRevenue: decimal.Zero,
	}
	for _, status := range model.AllStatuses {
		stats.ByStatus[status] = 0
	}

	byStatus, err := s.repo.CountApplicationsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Status] = row.Count
		stats.TotalApplications += row.Count
	}
	stats.PendingReview = stats.ByStatus[model.StatusSubmitted] + stats.ByStatus[model.StatusUnderReview]

	payments, err := s.repo.PaymentTotalsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, row := range payments {
		stats.TotalPayments += row.Count
		switch row.Status {
		case model.PaymentStatusPending:
			stats.PendingPayments = row.Count
		case model.PaymentStatusCompleted:
			stats.CompletedPayments = row.Count
			stats.TotalRevenue = row.Amount
		case model.PaymentStatusFailed:
			stats.FailedPayments = row.Count
		}
	}

	stats.SupportRequests, stats.UnresolvedSupport, err = s.repo.CountSupport(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(dashboardMonths - 1), 0)
	monthly, err := s.repo.MonthlySubmissions(ctx, since)
	if err != nil {
		return nil, err
	}
	stats.MonthlySubmissions = fillMonths(since, dashboardMonths, monthly)
	return stats, nil
}

// fillMonths returns one entry per month starting at since, zero-filled.
func fillMonths(since time.Time, n int, rows []model.MonthlyCount) []model.MonthlyCount {
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Month] = r.Count
	}
	out := make([]model.MonthlyCount, 0, n)
	for i := 0; i < n; i++ {
		month := since.AddDate(0, i, 0).Format("2006-01")
		out = append(out, model.MonthlyCount{Month: month, Count: counts[month]})
	}
	return out
}
