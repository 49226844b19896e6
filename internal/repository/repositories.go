package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Organization OrganizationRepository
	User         UserRepository
	Debtor       DebtorRepository
	Case         CaseRepository
	Payment      PaymentRepository
	CaseEvent    CaseEventRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Organization: NewOrganizationRepository(db),
		User:         NewUserRepository(db),
		Debtor:       NewDebtorRepository(db),
		Case:         NewCaseRepository(db),
		Payment:      NewPaymentRepository(db),
		CaseEvent:    NewCaseEventRepository(db),
	}
}

// ListQuery holds common list parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}
