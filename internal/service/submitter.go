package service

import (
	"context"
	"log/slog"
	"time"

	"comfyrun/internal/core/domain"
	"comfyrun/internal/core/ports"
)

// Submitter performs the liveness check and submits the job document.
// It never retries: a resubmission would create a duplicate job.
type Submitter struct {
	svc    ports.ExecutionService
	logger *slog.Logger
}

// NewSubmitter creates a new Submitter.
func NewSubmitter(svc ports.ExecutionService, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{svc: svc, logger: logger}
}

// Submit returns the handle of the newly created job.
func (s *Submitter) Submit(ctx context.Context, req domain.JobRequest) (domain.JobHandle, error) {
	if err := s.svc.Ping(ctx); err != nil {
		s.logger.Error("job.submit.unreachable", "error", err)
		return domain.JobHandle{}, domain.SubmissionError("service is not reachable", err)
	}

	promptID, err := s.svc.QueuePrompt(ctx, req.Workflow)
	if err != nil {
		s.logger.Error("job.submit.rejected", "error", err)
		return domain.JobHandle{}, domain.SubmissionError("job was not accepted", err)
	}
	if promptID == "" {
		return domain.JobHandle{}, domain.SubmissionError("service returned no job identifier", nil)
	}

	s.logger.Info("job.submit.ok", "prompt_id", promptID)
	return domain.JobHandle{PromptID: promptID, SubmittedAt: time.Now().UTC()}, nil
}
