package repository

import (
	"context"

	"github.com/debtflow/debtflow-api/internal/models"
	"gorm.io/gorm"
)

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Organization, error)
	FindByUser(ctx context.Context, userID string) (*models.Organization, error)
	Create(ctx context.Context, org *models.Organization) error
	Update(ctx context.Context, org *models.Organization) error
}

type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByUser resolves the organization a user belongs to via the roles table
func (r *organizationRepository) FindByUser(ctx context.Context, userID string) (*models.Organization, error) {
	var role models.Role
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("user_id = ?", userID).
		First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role.Organization, nil
}

func (r *organizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *organizationRepository) Update(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}
