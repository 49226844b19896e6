package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/debtflow/debtflow-api/internal/models"
	"github.com/debtflow/debtflow-api/internal/repository"
)

// CreateDebtorInput holds the parameters for registering a debtor
type CreateDebtorInput struct {
	Type        string  `json:"type" binding:"required"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	CompanyName *string `json:"company_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	TaxID       *string `json:"tax_id"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	PostalCode  *string `json:"postal_code"`
}

type DebtorService struct {
	repo repository.DebtorRepository
}

func NewDebtorService(repo repository.DebtorRepository) *DebtorService {
	return &DebtorService{repo: repo}
}

func (s *DebtorService) FindByID(ctx context.Context, id string) (*models.Debtor, error) {
	debtor, err := s.repo.FindByIDWithCases(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return debtor, err
}

func (s *DebtorService) List(ctx context.Context, orgID string, query *repository.ListQuery) ([]models.Debtor, int64, error) {
	return s.repo.List(ctx, orgID, query)
}

// Create registers a debtor. Individuals need a name, companies need a
// company name.
func (s *DebtorService) Create(ctx context.Context, orgID string, input *CreateDebtorInput) (*models.Debtor, error) {
	switch input.Type {
	case models.DebtorTypeIndividual:
		if isBlank(input.FirstName) && isBlank(input.LastName) {
			return nil, fmt.Errorf("%w: individual debtors require a first or last name", ErrValidation)
		}
	case models.DebtorTypeCompany:
		if isBlank(input.CompanyName) {
			return nil, fmt.Errorf("%w: company debtors require a company name", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: debtor type must be %q or %q", ErrValidation, models.DebtorTypeIndividual, models.DebtorTypeCompany)
	}

	debtor := &models.Debtor{
		OrganizationID: orgID,
		Type:           input.Type,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		CompanyName:    input.CompanyName,
		Email:          input.Email,
		Phone:          input.Phone,
		TaxID:          input.TaxID,
		Address:        input.Address,
		City:           input.City,
		PostalCode:     input.PostalCode,
	}
	if err := s.repo.Create(ctx, debtor); err != nil {
		return nil, err
	}
	return debtor, nil
}

// Update modifies the contact fields of a debtor
func (s *DebtorService) Update(ctx context.Context, id string, input *CreateDebtorInput) (*models.Debtor, error) {
	debtor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if input.FirstName != nil {
		debtor.FirstName = input.FirstName
	}
	if input.LastName != nil {
		debtor.LastName = input.LastName
	}
	if input.CompanyName != nil {
		debtor.CompanyName = input.CompanyName
	}
	if input.Email != nil {
		debtor.Email = input.Email
	}
	if input.Phone != nil {
		debtor.Phone = input.Phone
	}
	if input.TaxID != nil {
		debtor.TaxID = input.TaxID
	}
	if input.Address != nil {
		debtor.Address = input.Address
	}
	if input.City != nil {
		debtor.City = input.City
	}
	if input.PostalCode != nil {
		debtor.PostalCode = input.PostalCode
	}

	if err := s.repo.Update(ctx, debtor); err != nil {
		return nil, err
	}
	return debtor, nil
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}
