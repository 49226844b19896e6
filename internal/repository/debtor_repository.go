package repository

import (
	"context"

	"github.com/debtflow/debtflow-api/internal/models"
	"gorm.io/gorm"
)

// DebtorRepository defines the interface for debtor data access
type DebtorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Debtor, error)
	FindByIDWithCases(ctx context.Context, id string) (*models.Debtor, error)
	List(ctx context.Context, orgID string, query *ListQuery) ([]models.Debtor, int64, error)
	Create(ctx context.Context, debtor *models.Debtor) error
	Update(ctx context.Context, debtor *models.Debtor) error
}

type debtorRepository struct {
	db *gorm.DB
}

// NewDebtorRepository creates a new debtor repository
func NewDebtorRepository(db *gorm.DB) DebtorRepository {
	return &debtorRepository{db: db}
}

func (r *debtorRepository) FindByID(ctx context.Context, id string) (*models.Debtor, error) {
	var debtor models.Debtor
	err := r.db.WithContext(ctx).First(&debtor, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &debtor, nil
}

func (r *debtorRepository) FindByIDWithCases(ctx context.Context, id string) (*models.Debtor, error) {
	var debtor models.Debtor
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Preload("Cases", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Cases.Payments").
		Preload("Cases.Events").
		First(&debtor, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &debtor, nil
}

func (r *debtorRepository) List(ctx context.Context, orgID string, query *ListQuery) ([]models.Debtor, int64, error) {
	var debtors []models.Debtor
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Debtor{}).Where("debtors.organization_id = ?", orgID)

	if query.Filters != nil {
		if val, ok := query.Filters["type"]; ok && val != "" {
			db = db.Where("debtors.type = ?", val)
		}
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where(
			"debtors.first_name ILIKE ? OR debtors.last_name ILIKE ? OR debtors.company_name ILIKE ? OR debtors.email ILIKE ?",
			search, search, search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if query.SortBy != "" {
		order := query.SortBy
		if query.SortDir == "desc" {
			order += " DESC"
		}
		db = db.Order(order)
	} else {
		db = db.Order("debtors.created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Cases").
		Find(&debtors).Error
	if err != nil {
		return nil, 0, err
	}

	return debtors, total, nil
}

func (r *debtorRepository) Create(ctx context.Context, debtor *models.Debtor) error {
	return r.db.WithContext(ctx).Create(debtor).Error
}

func (r *debtorRepository) Update(ctx context.Context, debtor *models.Debtor) error {
	return r.db.WithContext(ctx).Save(debtor).Error
}
