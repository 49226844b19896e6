package services

import (
	"github.com/debtflow/debtflow-api/internal/config"
	"github.com/debtflow/debtflow-api/internal/jobs"
	"github.com/debtflow/debtflow-api/internal/processor"
	"github.com/debtflow/debtflow-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Organization *OrganizationService
	Debtor       *DebtorService
	Case         *CaseService
	Payment      *PaymentService
	Transcript   *TranscriptService
	Stats        *StatsService
	Export       *ExportService
	Email        *EmailService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(
	repos *repository.Repositories,
	proc processor.Client,
	extractor PaymentInfoExtractor,
	worker *jobs.Worker,
	cfg *config.Config,
) *Services {
	emailSvc := NewEmailService(cfg)
	statsSvc := NewStatsService(repos.Case)

	return &Services{
		Organization: NewOrganizationService(repos.Organization, repos.User),
		Debtor:       NewDebtorService(repos.Debtor),
		Case:         NewCaseService(repos.Case, repos.Debtor, repos.CaseEvent),
		Payment:      NewPaymentService(repos.Payment, repos.Case, repos.Debtor, repos.CaseEvent, proc, emailSvc, worker, cfg),
		Transcript:   NewTranscriptService(repos.CaseEvent, repos.Case, extractor, worker),
		Stats:        statsSvc,
		Export:       NewExportService(repos.Case, statsSvc),
		Email:        emailSvc,
		Job:          NewJobService(worker),
	}
}
