package model

import "github.com/shopspring/decimal"

// DashboardStats aggregates the counters shown on the back-office dashboard.
type DashboardStats struct {
	TotalApplications int64            `json:"totalApplications"`
	ByStatus          map[Status]int64 `json:"byStatus"`
	PendingReview     int64            `json:"pendingReview"`

	TotalPayments     int64           `json:"totalPayments"`
	PendingPayments   int64           `json:"pendingPayments"`
	CompletedPayments int64           `json:"completedPayments"`
	FailedPayments    int64           `json:"failedPayments"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`

	SupportRequests   int64 `json:"supportRequests"`
	UnresolvedSupport int64 `json:"unresolvedSupport"`

	MonthlySubmissions []MonthlyCount `json:"monthlySubmissions"`
}

// MonthlyCount is the number of applications submitted in one calendar month.
type MonthlyCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}
