package repository

import (
	"context"
	"time"

	"github.com/debtflow/debtflow-api/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CaseRepository defines the interface for case data access
type CaseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Case, error)
	FindByIDWithDetails(ctx context.Context, id string) (*models.Case, error)
	List(ctx context.Context, orgID string, query *ListQuery) ([]models.Case, int64, error)
	Create(ctx context.Context, c *models.Case) error
	Update(ctx context.Context, c *models.Case) error
	FindNextActionDue(ctx context.Context, before time.Time) ([]models.Case, error)
	GetStats(ctx context.Context, orgID string) (*CaseStats, error)
}

// CaseStats holds aggregate collection figures for an organization
type CaseStats struct {
	OpenCases          int64           `json:"open_cases"`
	PaidCases          int64           `json:"paid_cases"`
	TotalOutstanding   decimal.Decimal `json:"total_outstanding"`
	CollectedThisMonth decimal.Decimal `json:"collected_this_month"`
}

type caseRepository struct {
	db *gorm.DB
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

func (r *caseRepository) FindByID(ctx context.Context, id string) (*models.Case, error) {
	var c models.Case
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) FindByIDWithDetails(ctx context.Context, id string) (*models.Case, error) {
	var c models.Case
	err := r.db.WithContext(ctx).
		Joins("Debtor").
		Joins("Organization").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Events.Role.User").
		First(&c, "cases.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseRepository) List(ctx context.Context, orgID string, query *ListQuery) ([]models.Case, int64, error) {
	var cases []models.Case
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Case{}).Where("cases.organization_id = ?", orgID)

	if query.Filters != nil {
		if val, ok := query.Filters["status"]; ok && val != "" {
			db = db.Where("cases.status = ?", val)
		}
		if val, ok := query.Filters["debtor_id"]; ok && val != "" {
			db = db.Where("cases.debtor_id = ?", val)
		}
		if val, ok := query.Filters["due_before"]; ok && val != "" {
			db = db.Where("cases.due_date <= ?", val)
		}
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN debtors ON debtors.id = cases.debtor_id").
			Where("debtors.first_name ILIKE ? OR debtors.last_name ILIKE ? OR debtors.company_name ILIKE ? OR cases.external_reference ILIKE ?",
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
		db = db.Order("cases.created_at DESC")
	}

	if query.PerPage > 0 {
		db = db.Offset((query.Page - 1) * query.PerPage).Limit(query.PerPage)
	}

	err := db.
		Preload("Debtor").
		Preload("Organization").
		Find(&cases).Error
	if err != nil {
		return nil, 0, err
	}

	return cases, total, nil
}

func (r *caseRepository) Create(ctx context.Context, c *models.Case) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *caseRepository) Update(ctx context.Context, c *models.Case) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// FindNextActionDue returns open cases whose next-action date has passed
func (r *caseRepository) FindNextActionDue(ctx context.Context, before time.Time) ([]models.Case, error) {
	var cases []models.Case
	err := r.db.WithContext(ctx).
		Where("next_action_date IS NOT NULL AND next_action_date <= ?", before).
		Where("status NOT IN ?", []string{
			models.CaseStatusPaidInFull,
			models.CaseStatusUncollectible,
			models.CaseStatusClosed,
		}).
		Preload("Debtor").
		Find(&cases).Error
	return cases, err
}

func (r *caseRepository) GetStats(ctx context.Context, orgID string) (*CaseStats, error) {
	stats := &CaseStats{}
	terminal := []string{
		models.CaseStatusPaidInFull,
		models.CaseStatusUncollectible,
		models.CaseStatusClosed,
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("organization_id = ? AND status NOT IN ?", orgID, terminal).
		Count(&stats.OpenCases).Error; err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Where("organization_id = ? AND status = ?", orgID, models.CaseStatusPaidInFull).
		Count(&stats.PaidCases).Error; err != nil {
		return nil, err
	}

	var outstanding struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Case{}).
		Select("COALESCE(SUM(current_balance), 0) as total").
		Where("organization_id = ? AND status NOT IN ?", orgID, terminal).
		Scan(&outstanding).Error; err != nil {
		return nil, err
	}
	stats.TotalOutstanding = outstanding.Total

	monthStart := time.Now().UTC()
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)

	var collected struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("COALESCE(SUM(payments.amount), 0) as total").
		Joins("JOIN cases ON cases.id = payments.case_id").
		Where("cases.organization_id = ? AND payments.status = ? AND payments.processed_date >= ?",
			orgID, models.PaymentStatusCleared, monthStart).
		Scan(&collected).Error; err != nil {
		return nil, err
	}
	stats.CollectedThisMonth = collected.Total

	return stats, nil
}
