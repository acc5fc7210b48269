package repository

import (
	"context"
	"fmt"
	"time"

	"dealership/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatusCount struct {
	Status model.Status
	Count  int64
}

type PaymentTotals struct {
	Status string
	Count  int64
	Amount decimal.Decimal
}

// DashboardRepository runs the aggregate queries behind the admin dashboard.
type DashboardRepository interface {
	CountApplicationsByStatus(ctx context.Context) ([]StatusCount, error)
	PaymentTotalsByStatus(ctx context.Context) ([]PaymentTotals, error)
	CountSupport(ctx context.Context) (total, unresolved int64, err error)
	MonthlySubmissions(ctx context.Context, since time.Time) ([]model.MonthlyCount, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) CountApplicationsByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	if err := GetDB(ctx, r.db).Model(&model.Application{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count applications by status: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) PaymentTotalsByStatus(ctx context.Context) ([]PaymentTotals, error) {
	var rows []PaymentTotals
	if err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Select("status, COUNT(*) as count, COALESCE(SUM(amount), 0) as amount").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to total payments: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) CountSupport(ctx context.Context) (int64, int64, error) {
	var result struct {
		Total      int64
		Unresolved int64
	}
	if err := GetDB(ctx, r.db).Model(&model.SupportRequest{}).
		Select("COUNT(*) as total, COUNT(*) FILTER (WHERE is_resolved = false) as unresolved").
		Scan(&result).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count support requests: %w", err)
	}
	return result.Total, result.Unresolved, nil
}

func (r *dashboardRepository) MonthlySubmissions(ctx context.Context, since time.Time) ([]model.MonthlyCount, error) {
	var rows []model.MonthlyCount
	if err := GetDB(ctx, r.db).Model(&model.Application{}).
		Select("TO_CHAR(created_at, 'YYYY-MM') as month, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("month").
		Order("month asc").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count monthly submissions: %w", err)
	}
	return rows, nil
}
