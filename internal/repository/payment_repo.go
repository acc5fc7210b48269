package repository

import (
	"context"
	"fmt"

	"dealership/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentFilter struct {
	Status string
	Offset int
	Limit  int
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]model.Payment, int64, error)
	ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.Payment, error)
	HasPending(ctx context.Context, applicationID uuid.UUID) (bool, error)
	Update(ctx context.Context, payment *model.Payment) error
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Omit("Application").Create(payment).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).Preload("Application").First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "payment")
	}
	return &payment, nil
}

func (r *paymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "payment")
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, filter PaymentFilter) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Payment{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}
	if err := query.Preload("Application").Order("created_at desc").Offset(filter.Offset).Limit(filter.Limit).Find(&payments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, total, nil
}

func (r *paymentRepository) ListByApplication(ctx context.Context, applicationID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := GetDB(ctx, r.db).Where("application_id = ?", applicationID).Order("created_at desc").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments for application: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) HasPending(ctx context.Context, applicationID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Where("application_id = ? AND status = ?", applicationID, model.PaymentStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(payment).Error
}
