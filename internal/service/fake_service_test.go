package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"comfyrun/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type historyReply struct {
	status domain.JobStatus
	err    error
}

// fakeService replays scripted history replies; the last reply repeats.
type fakeService struct {
	mu sync.Mutex

	pingErr  error
	promptID string
	queueErr error

	replies      []historyReply
	historyCalls int
	pingCalls    int
	queueCalls   int

	views    map[string][]byte
	viewErrs map[string]error
}

func (f *fakeService) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingCalls++
	return f.pingErr
}

func (f *fakeService) QueuePrompt(ctx context.Context, workflow json.RawMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queueCalls++
	return f.promptID, f.queueErr
}

func (f *fakeService) History(ctx context.Context, promptID string) (domain.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if len(f.replies) == 0 {
		return domain.JobStatus{State: domain.StatePending, Absent: true}, nil
	}
	i := f.historyCalls - 1
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i].status, f.replies[i].err
}

func (f *fakeService) View(ctx context.Context, d domain.OutputDescriptor) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.viewErrs[d.Filename]; err != nil {
		return nil, err
	}
	return f.views[d.Filename], nil
}

func pending() historyReply {
	return historyReply{status: domain.JobStatus{State: domain.StatePending}}
}

func absent() historyReply {
	return historyReply{status: domain.JobStatus{State: domain.StatePending, Absent: true}}
}

func completed(outputs ...domain.NodeOutput) historyReply {
	return historyReply{status: domain.JobStatus{State: domain.StateCompleted, Outputs: outputs}}
}

func node(id, output string) domain.NodeOutput {
	return domain.NodeOutput{NodeID: id, Output: json.RawMessage(output)}
}
