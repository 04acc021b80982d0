package service

import (
	"context"
	"log/slog"
	"time"

	"comfyrun/internal/core/domain"
	"comfyrun/internal/core/ports"
)

// Options tune the orchestrator. Poll is used as given: a zero PollConfig
// polls without any delay.
type Options struct {
	Poll             PollConfig
	FetchConcurrency int
}

// DefaultOptions returns the standard poll cadence and one download per descriptor.
func DefaultOptions() Options {
	return Options{Poll: DefaultPollConfig()}
}

// Orchestrator coordinates the job lifecycle.
type Orchestrator struct {
	submitter *Submitter
	poller    *Poller
	resolver  *Resolver
	fetcher   *Fetcher
	logger    *slog.Logger
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(svc ports.ExecutionService, tc ports.Transcoder, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		submitter: NewSubmitter(svc, logger),
		poller:    NewPoller(svc, opts.Poll, logger),
		resolver:  NewResolver(logger),
		fetcher:   NewFetcher(svc, tc, opts.FetchConcurrency, logger),
		logger:    logger,
	}
}

// RunJob submits req, waits for it to finish and returns its output records.
// Per-artifact failures are reported in the records; only submission,
// execution and timeout failures are returned as errors.
func (o *Orchestrator) RunJob(ctx context.Context, req domain.JobRequest) (*domain.JobResult, error) {
	handle, err := o.submitter.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With("prompt_id", handle.PromptID)

	outputs, err := o.poller.Wait(ctx, handle, req.Timeout)
	if err != nil {
		return nil, err
	}

	descriptors := o.resolver.Resolve(outputs, req.AllowedTypes)
	logger.Info("job.resolve.ok", "nodes", len(outputs), "descriptors", len(descriptors))

	outcomes := o.fetcher.FetchAll(ctx, descriptors, req.OutputFormat, req.JPEGQuality)
	records := Assemble(outcomes)

	failed := 0
	for _, r := range records {
		if !r.OK() {
			failed++
		}
	}
	logger.Info("job.done", "records", len(records), "failed", failed)

	return &domain.JobResult{
		PromptID:    handle.PromptID,
		Records:     records,
		SubmittedAt: handle.SubmittedAt,
		CompletedAt: time.Now().UTC(),
	}, nil
}
