package ports

import (
	"context"
	"encoding/json"

	"comfyrun/internal/core/domain"
)

// ExecutionService is the remote service that runs job graphs.
type ExecutionService interface {
	// Ping performs the liveness probe.
	Ping(ctx context.Context) error

	// QueuePrompt submits the job-graph document and returns its prompt ID.
	QueuePrompt(ctx context.Context, workflow json.RawMessage) (string, error)

	// History returns the current status of a submitted job.
	// A job not yet listed is reported as pending with Absent set.
	History(ctx context.Context, promptID string) (domain.JobStatus, error)

	// View downloads the raw bytes of one output file.
	View(ctx context.Context, d domain.OutputDescriptor) ([]byte, error)
}

// Transcoder normalizes a downloaded artifact into its final encoding.
type Transcoder interface {
	Transcode(a domain.Artifact, format domain.ImageFormat, quality int) (Transcoded, error)
}

// Transcoded is the final content of an artifact.
type Transcoded struct {
	Data      []byte
	Extension string
	MIMEType  string
}

// Storage persists the outputs of a job.
type Storage interface {
	// InitJob creates the job directory structure.
	InitJob(ctx context.Context, jobID string) error

	// SaveInput saves the submitted workflow document.
	SaveInput(ctx context.Context, jobID string, data []byte) error

	// SaveRecord writes a successful record's content and returns its path.
	SaveRecord(ctx context.Context, jobID string, rec domain.OutputRecord) (string, error)

	// SaveManifest writes the metadata view of every record.
	SaveManifest(ctx context.Context, jobID string, records []domain.OutputRecord) error

	// GetJobPath returns the filesystem path for a given job ID.
	GetJobPath(jobID string) string
}
