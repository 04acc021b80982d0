package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"comfyrun/internal/core/domain"
	"comfyrun/internal/core/ports"
)

const (
	DefaultPollGrace    = 5 * time.Second
	DefaultPollInterval = 1 * time.Second
)

// PollConfig controls the poll cadence.
type PollConfig struct {
	Grace    time.Duration // delay before the first poll
	Interval time.Duration // delay between polls

	// MaxMissingPolls fails the job after that many consecutive polls
	// where it is absent from history. Zero keeps polling until timeout.
	MaxMissingPolls int
}

// DefaultPollConfig returns the standard 5s grace / 1s cadence.
func DefaultPollConfig() PollConfig {
	return PollConfig{Grace: DefaultPollGrace, Interval: DefaultPollInterval}
}

// Poller waits for a submitted job to reach a terminal state.
type Poller struct {
	svc    ports.ExecutionService
	cfg    PollConfig
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a new Poller.
func NewPoller(svc ports.ExecutionService, cfg PollConfig, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{svc: svc, cfg: cfg, logger: logger, sleep: sleepCtx}
}

// Attempts is the poll budget for a timeout, one poll per second of it.
func Attempts(timeout time.Duration) int {
	n := int(timeout / time.Second)
	if n < 1 {
		n = 1
	}
	return n
}

// Wait polls until the job completes, fails, or the attempt budget runs out.
// On completion it returns the node outputs in payload order.
func (p *Poller) Wait(ctx context.Context, h domain.JobHandle, timeout time.Duration) ([]domain.NodeOutput, error) {
	logger := p.logger.With("prompt_id", h.PromptID)
	attempts := Attempts(timeout)
	minutes := int(timeout / time.Minute)

	if err := p.sleep(ctx, p.cfg.Grace); err != nil {
		return nil, err
	}

	var lastErr error
	missing := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		st, err := p.svc.History(ctx, h.PromptID)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, domain.ErrMalformedResponse) {
				logger.Error("job.poll.malformed", "attempt", attempt, "error", err)
				return nil, domain.ExecutionFailure("unreadable status payload", err)
			}
			lastErr = err
			logger.Warn("job.poll.error", "attempt", attempt, "error", err)

		case st.State == domain.StateFailed:
			logger.Error("job.poll.failed", "attempt", attempt, "reason", st.Reason)
			return nil, domain.ExecutionFailure(st.Reason, nil)

		case st.State == domain.StateCompleted:
			logger.Info("job.poll.completed", "attempt", attempt, "nodes", len(st.Outputs))
			return st.Outputs, nil

		case st.Absent:
			missing++
			logger.Debug("job.poll.absent", "attempt", attempt, "consecutive", missing)
			if p.cfg.MaxMissingPolls > 0 && missing >= p.cfg.MaxMissingPolls {
				return nil, domain.ExecutionFailure(
					fmt.Sprintf("job not found in history after %d consecutive polls", missing), nil)
			}

		default:
			missing = 0
			logger.Debug("job.poll.pending", "attempt", attempt)
		}

		if attempt < attempts {
			if err := p.sleep(ctx, p.cfg.Interval); err != nil {
				return nil, err
			}
		}
	}

	logger.Error("job.poll.timeout", "attempts", attempts, "timeout_minutes", minutes)
	return nil, domain.TimeoutError(minutes, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
