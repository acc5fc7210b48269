package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the single status vocabulary used by every screen and endpoint.
type Status string

const (
	StatusSubmitted              Status = "SUBMITTED"
	StatusUnderReview            Status = "UNDER_REVIEW"
	StatusAdditionalInfoRequired Status = "ADDITIONAL_INFO_REQUIRED"
	StatusApproved               Status = "APPROVED"
	StatusPaymentPending         Status = "PAYMENT_PENDING"
	StatusPaymentVerified        Status = "PAYMENT_VERIFIED"
	StatusRejected               Status = "REJECTED"
)

// AllStatuses lists the statuses in happy-path order, Rejected last.
var AllStatuses = []Status{
	StatusSubmitted,
	StatusUnderReview,
	StatusAdditionalInfoRequired,
	StatusApproved,
	StatusPaymentPending,
	StatusPaymentVerified,
	StatusRejected,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Application is one dealership request, looked up publicly by TrackingID.
type Application struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TrackingID string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"trackingId"`
	Status     Status    `gorm:"type:varchar(30);not null;index" json:"status"`

	// Personal information
	FirstName string `gorm:"type:varchar(50);not null" json:"firstName"`
	LastName  string `gorm:"type:varchar(50);not null" json:"lastName"`
	Email     string `gorm:"type:varchar(100);not null;index" json:"email"`
	Phone     string `gorm:"type:varchar(15);not null" json:"phone"`

	// Business details
	BusinessName    string `gorm:"type:varchar(100);not null" json:"businessName"`
	BusinessType    string `gorm:"type:varchar(50);not null" json:"businessType"`
	GSTNumber       string `gorm:"type:varchar(15)" json:"gstNumber,omitempty"`
	PANNumber       string `gorm:"type:varchar(10);not null" json:"panNumber"`
	YearsInBusiness int    `gorm:"not null" json:"yearsInBusiness"`

	// Location
	Address string `gorm:"type:text;not null" json:"address"`
	City    string `gorm:"type:varchar(50);not null" json:"city"`
	State   string `gorm:"type:varchar(60);not null" json:"state"`
	Pincode string `gorm:"type:varchar(10);not null" json:"pincode"`
	Area    string `gorm:"type:varchar(100);not null" json:"area"`

	// Additional information
	InvestmentCapacity   string          `gorm:"type:varchar(50)" json:"investmentCapacity,omitempty"`
	ExistingBusiness     string          `gorm:"type:text" json:"existingBusiness,omitempty"`
	ReasonForInterest    string          `gorm:"type:text" json:"reasonForInterest,omitempty"`
	ExpectedMonthlySales decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"expectedMonthlySales"`

	// Fixed at creation, never editable by the applicant.
	PaymentAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"paymentAmount"`

	RejectionReason   string `gorm:"type:text" json:"rejectionReason,omitempty"`
	ApprovalLetterURL string `gorm:"type:varchar(255)" json:"approvalLetterUrl,omitempty"`
	AdminNotes        string `gorm:"type:text" json:"adminNotes,omitempty"`

	History []StatusHistory `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE" json:"history"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// StatusHistory is one append-only entry of an application's status trail.
type StatusHistory struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"applicationId"`
	Sequence      int        `gorm:"not null" json:"sequence"`
	FromStatus    Status     `gorm:"type:varchar(30)" json:"fromStatus,omitempty"`
	Status        Status     `gorm:"type:varchar(30);not null" json:"status"`
	Trigger       string     `gorm:"type:varchar(30);not null" json:"trigger"`
	Note          string     `gorm:"type:text" json:"note,omitempty"`
	ChangedBy     *uuid.UUID `gorm:"type:uuid" json:"changedBy,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime:false" json:"createdAt"`
}
