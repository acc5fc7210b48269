package model

import (
	"time"

	"github.com/google/uuid"
)

// SupportRequest is a contact-form submission.
type SupportRequest struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name       string     `gorm:"type:varchar(100);not null" json:"name"`
	Email      string     `gorm:"type:varchar(100);not null" json:"email"`
	Subject    string     `gorm:"type:varchar(200);not null" json:"subject"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	IsResolved bool       `gorm:"default:false;index" json:"isResolved"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// ApprovalLetter references a generated letter by its storage location only.
type ApprovalLetter struct {
	ID            uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ApplicationID uuid.UUID    `gorm:"type:uuid;uniqueIndex;not null" json:"applicationId"`
	Application   *Application `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	DealershipID  string       `gorm:"type:varchar(30);uniqueIndex;not null" json:"dealershipId"`
	FilePath      string       `gorm:"type:varchar(255);not null" json:"filePath"`
	CreatedAt     time.Time    `json:"createdAt"`
}
