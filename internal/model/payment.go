package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// PaymentMethodUPI is the only channel accepted.
const PaymentMethodUPI = "UPI"

// Payment is an applicant's claim of having paid, pending admin review.
// TransactionID and UTRNumber are not checked against any gateway.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"applicationId"`
	Application   *Application    `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	TrackingID    string          `gorm:"type:varchar(20);not null;index" json:"trackingId"`
	TransactionID string          `gorm:"type:varchar(100);not null" json:"transactionId"`
	UTRNumber     string          `gorm:"column:utr_number;type:varchar(100);not null" json:"utrNumber"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Method        string          `gorm:"type:varchar(20);not null;default:'UPI'" json:"method"`
	Status        string          `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedBy    *uuid.UUID      `gorm:"type:uuid" json:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time      `json:"reviewedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
