package repository

import (
	"context"

	"github.com/debtflow/debtflow-api/internal/models"
	"gorm.io/gorm"
)

// PaymentRepository defines the interface for payment data access
type PaymentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindByCase(ctx context.Context, caseID string) ([]models.Payment, error)
	// FindBySession correlates an inbound processor notification to a stored
	// payment: primary match on session id, fallback on customer id where no
	// session id has been attached yet.
	FindBySession(ctx context.Context, sessionID, customerID string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	// UpdateIfStatus persists the payment only when its stored status still
	// equals fromStatus. Returns false when another write got there first.
	UpdateIfStatus(ctx context.Context, payment *models.Payment, fromStatus string) (bool, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Case").
		Preload("Case.Debtor").
		First(&payment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByCase(ctx context.Context, caseID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) FindBySession(ctx context.Context, sessionID, customerID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Case").
		Where("stripe_checkout_session_id = ?", sessionID).
		Or(r.db.Where("stripe_customer_id = ?", customerID).Where("stripe_checkout_session_id IS NULL")).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepository) UpdateIfStatus(ctx context.Context, payment *models.Payment, fromStatus string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", payment.ID, fromStatus).
		Updates(map[string]interface{}{
			"status":                     payment.Status,
			"reference":                  payment.Reference,
			"stripe_checkout_session_id": payment.StripeCheckoutSessionID,
			"processed_date":             payment.ProcessedDate,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
