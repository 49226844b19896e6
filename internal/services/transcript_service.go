package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/debtflow/debtflow-api/internal/ai"
	"github.com/debtflow/debtflow-api/internal/jobs"
	"github.com/debtflow/debtflow-api/internal/models"
	"github.com/debtflow/debtflow-api/internal/repository"
	"github.com/debtflow/debtflow-api/pkg/logger"
)

// PaymentInfoExtractor pulls structured payment details out of a call transcript
type PaymentInfoExtractor interface {
	ExtractPaymentInfo(ctx context.Context, transcript []ai.TranscriptMessage) (*ai.ExtractedPaymentInfo, error)
}

// AssistantCallPayload is the webhook body posted by the voice assistant
// after a call ends. Fields we do not use are accepted and ignored.
type AssistantCallPayload struct {
	ConversationID string                 `json:"conversation_id"`
	Status         string                 `json:"status"`
	Transcript     []ai.TranscriptMessage `json:"transcript"`
	Metadata       map[string]string      `json:"metadata"`
}

type TranscriptService struct {
	eventRepo repository.CaseEventRepository
	caseRepo  repository.CaseRepository
	extractor PaymentInfoExtractor
	worker    *jobs.Worker
}

func NewTranscriptService(
	eventRepo repository.CaseEventRepository,
	caseRepo repository.CaseRepository,
	extractor PaymentInfoExtractor,
	worker *jobs.Worker,
) *TranscriptService {
	return &TranscriptService{
		eventRepo: eventRepo,
		caseRepo:  caseRepo,
		extractor: extractor,
		worker:    worker,
	}
}

// ProcessAssistantCall acknowledges an assistant call notification. The call
// is always accepted; transcript analysis runs in the background and records
// its findings on the case when one is referenced in the payload metadata.
func (s *TranscriptService) ProcessAssistantCall(ctx context.Context, payload *AssistantCallPayload) {
	logger.Info(fmt.Sprintf("[Assistant] Call %s finished with status %s, %d transcript turns",
		payload.ConversationID, payload.Status, len(payload.Transcript)))

	caseID := payload.Metadata["case_id"]
	if caseID == "" || len(payload.Transcript) == 0 {
		return
	}
	if s.extractor == nil || s.worker == nil {
		return
	}

	transcript := payload.Transcript
	conversationID := payload.ConversationID
	s.worker.Enqueue(func(jobCtx context.Context) error {
		return s.analyzeTranscript(jobCtx, caseID, conversationID, transcript)
	})
}

func (s *TranscriptService) analyzeTranscript(ctx context.Context, caseID, conversationID string, transcript []ai.TranscriptMessage) error {
	if _, err := s.caseRepo.FindByID(ctx, caseID); err != nil {
		logger.Warn(fmt.Sprintf("[Assistant] Call %s references unknown case %s", conversationID, caseID))
		return nil
	}

	info, err := s.extractor.ExtractPaymentInfo(ctx, transcript)
	if err != nil {
		logger.Error(fmt.Sprintf("[Assistant] Transcript analysis failed for call %s: %v", conversationID, err))
		return err
	}

	notes := fmt.Sprintf("Assistant call %s completed", conversationID)
	if info.Amount != nil {
		notes = fmt.Sprintf("Assistant call %s: debtor discussed paying %s", conversationID, *info.Amount)
	}

	var payload *string
	if raw, err := json.Marshal(info); err == nil {
		p := string(raw)
		payload = &p
	}

	event := &models.CaseEvent{
		CaseID:    caseID,
		EventType: models.EventTypeAssistantCall,
		Notes:     notes,
		Payload:   payload,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		logger.Error(fmt.Sprintf("[Assistant] Failed to record call event for case %s: %v", caseID, err))
		return err
	}
	return nil
}
