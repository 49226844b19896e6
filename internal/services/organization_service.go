package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/debtflow/debtflow-api/internal/models"
	"github.com/debtflow/debtflow-api/internal/repository"
)

type OrganizationService struct {
	repo     repository.OrganizationRepository
	userRepo repository.UserRepository
}

func NewOrganizationService(repo repository.OrganizationRepository, userRepo repository.UserRepository) *OrganizationService {
	return &OrganizationService{repo: repo, userRepo: userRepo}
}

// FindByUser resolves the organization a user works for through their role
func (s *OrganizationService) FindByUser(ctx context.Context, userID string) (*models.Organization, error) {
	org, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return org, err
}

// RoleForUser returns the user's role record, used to attribute audit events
func (s *OrganizationService) RoleForUser(ctx context.Context, userID string) (*models.Role, error) {
	role, err := s.userRepo.FindRoleByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return role, err
}

// Create bootstraps an organization and makes the creating user its owner.
// The local user row is provisioned on first contact, the identity provider
// mints the token and we only mirror the subject.
func (s *OrganizationService) Create(ctx context.Context, userID, email, name string, externalRef *string) (*models.Organization, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: organization name is required", ErrValidation)
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user := &models.User{
			ID:          userID,
			ExternalRef: userID,
			Email:       email,
			FullName:    email,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	}

	org := &models.Organization{
		Name:        name,
		ExternalRef: externalRef,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, err
	}

	role := &models.Role{
		UserID:         userID,
		OrganizationID: org.ID,
		Name:           models.RoleOwner,
	}
	if err := s.userRepo.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	return org, nil
}
