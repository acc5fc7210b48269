package repository

import (
	"context"
	"fmt"

	"dealership/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationFilter narrows the admin list. Zero values mean "any".
type ApplicationFilter struct {
	Status model.Status
	Search string
	Offset int
	Limit  int
}

type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Application, error)
	FindByTrackingID(ctx context.Context, trackingID string) (*model.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]model.Application, int64, error)
	Update(ctx context.Context, app *model.Application) error
	AppendHistory(ctx context.Context, entry *model.StatusHistory) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func withHistory(db *gorm.DB) *gorm.DB {
	return db.Preload("History", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence asc")
	})
}

func (r *applicationRepository) Create(ctx context.Context, app *model.Application) error {
	return GetDB(ctx, r.db).Create(app).Error
}

func (r *applicationRepository) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Application{}).Where("tracking_id = ?", trackingID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *applicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := withHistory(GetDB(ctx, r.db)).First(&app, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "application")
	}
	return &app, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *applicationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	err := withHistory(GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})).
		First(&app, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "application")
	}
	return &app, nil
}

func (r *applicationRepository) FindByTrackingID(ctx context.Context, trackingID string) (*model.Application, error) {
	var app model.Application
	if err := withHistory(GetDB(ctx, r.db)).First(&app, "tracking_id = ?", trackingID).Error; err != nil {
		return nil, notFound(err, "application")
	}
	return &app, nil
}

func (r *applicationRepository) List(ctx context.Context, filter ApplicationFilter) ([]model.Application, int64, error) {
	var apps []model.Application
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Application{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"tracking_id ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR business_name ILIKE ?",
			like, like, like, like, like,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}
	if err := query.Order("created_at desc").Offset(filter.Offset).Limit(filter.Limit).Find(&apps).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, total, nil
}

// Update saves the application row. History is written with AppendHistory.
func (r *applicationRepository) Update(ctx context.Context, app *model.Application) error {
	return GetDB(ctx, r.db).Omit(clause.Associations).Save(app).Error
}

func (r *applicationRepository) AppendHistory(ctx context.Context, entry *model.StatusHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}
