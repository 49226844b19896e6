package repository

import (
	"context"
	"time"

	"github.com/debtflow/debtflow-api/internal/models"
	"gorm.io/gorm"
)

// CaseEventRepository defines the interface for case event data access
type CaseEventRepository interface {
	Create(ctx context.Context, event *models.CaseEvent) error
	FindByCase(ctx context.Context, caseID string) ([]models.CaseEvent, error)
	ExistsSince(ctx context.Context, caseID, eventType string, since time.Time) (bool, error)
}

type caseEventRepository struct {
	db *gorm.DB
}

// NewCaseEventRepository creates a new case event repository
func NewCaseEventRepository(db *gorm.DB) CaseEventRepository {
	return &caseEventRepository{db: db}
}

func (r *caseEventRepository) Create(ctx context.Context, event *models.CaseEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *caseEventRepository) FindByCase(ctx context.Context, caseID string) ([]models.CaseEvent, error) {
	var events []models.CaseEvent
	err := r.db.WithContext(ctx).
		Preload("Role.User").
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

// ExistsSince reports whether an event of the given type was already recorded
// for the case after the given time. Used by scheduled jobs to avoid
// re-flagging the same case on every run.
func (r *caseEventRepository) ExistsSince(ctx context.Context, caseID, eventType string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CaseEvent{}).
		Where("case_id = ? AND event_type = ? AND created_at >= ?", caseID, eventType, since).
		Count(&count).Error
	return count > 0, err
}
