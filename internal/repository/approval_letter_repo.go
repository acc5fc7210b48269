package repository

import (
	"context"
	"fmt"

	"dealership/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ApprovalLetterRepository interface {
	Create(ctx context.Context, letter *model.ApprovalLetter) error
	FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.ApprovalLetter, error)
	ExistsForApplication(ctx context.Context, applicationID uuid.UUID) (bool, error)
	List(ctx context.Context, offset, limit int) ([]model.ApprovalLetter, int64, error)
}

type approvalLetterRepository struct {
	db *gorm.DB
}

func NewApprovalLetterRepository(db *gorm.DB) ApprovalLetterRepository {
	return &approvalLetterRepository{db: db}
}

func (r *approvalLetterRepository) Create(ctx context.Context, letter *model.ApprovalLetter) error {
	return GetDB(ctx, r.db).Create(letter).Error
}

func (r *approvalLetterRepository) FindByApplicationID(ctx context.Context, applicationID uuid.UUID) (*model.ApprovalLetter, error) {
	var letter model.ApprovalLetter
	if err := GetDB(ctx, r.db).First(&letter, "application_id = ?", applicationID).Error; err != nil {
		return nil, notFound(err, "approval letter")
	}
	return &letter, nil
}

func (r *approvalLetterRepository) ExistsForApplication(ctx context.Context, applicationID uuid.UUID) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.ApprovalLetter{}).Where("application_id = ?", applicationID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *approvalLetterRepository) List(ctx context.Context, offset, limit int) ([]model.ApprovalLetter, int64, error) {
	var letters []model.ApprovalLetter
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ApprovalLetter{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count approval letters: %w", err)
	}
	if err := db.Preload("Application").Order("created_at desc").Offset(offset).Limit(limit).Find(&letters).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list approval letters: %w", err)
	}
	return letters, total, nil
}
