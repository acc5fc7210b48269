package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSubmitApplication = "SUBMIT_APPLICATION"
	ActionChangeStatus      = "CHANGE_STATUS"
	ActionSupplyInfo        = "SUPPLY_INFO"
	ActionSubmitPayment     = "SUBMIT_PAYMENT"
	ActionReviewPayment     = "REVIEW_PAYMENT"
	ActionGenerateLetter    = "GENERATE_APPROVAL_LETTER"
	ActionResolveSupport    = "RESOLVE_SUPPORT_REQUEST"
)

// AuditLog tracks who did what to which record. UserID is nil for public
// (unauthenticated) actions.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"userId"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entityId"`
	EntityName string     `gorm:"type:varchar(255)" json:"entityName,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
}
