package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrSubmission     = errors.New("submission error")
	ErrExecution      = errors.New("execution failure")
	ErrTimeout        = errors.New("timeout")
	ErrArtifact       = errors.New("artifact error")

	// ErrMalformedResponse marks a remote payload that failed boundary validation.
	ErrMalformedResponse = errors.New("malformed response")
)

// JobError is a classified failure of the job lifecycle.
type JobError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *JobError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *JobError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// NewJobError classifies cause under kind.
func NewJobError(kind error, message string, cause error) *JobError {
	return &JobError{Kind: kind, Message: message, Cause: cause}
}

// SubmissionError reports a failed liveness check or a rejected submission.
func SubmissionError(message string, cause error) error {
	return NewJobError(ErrSubmission, message, cause)
}

// ExecutionFailure reports a job the service ran but could not complete.
func ExecutionFailure(message string, cause error) error {
	return NewJobError(ErrExecution, message, cause)
}

// TimeoutError reports an exhausted poll budget; lastErr is the last poll error, if any.
func TimeoutError(minutes int, lastErr error) error {
	return NewJobError(ErrTimeout, fmt.Sprintf("job did not complete within %d minute(s)", minutes), lastErr)
}

// ArtifactError reports a failed download or transcode of one output.
func ArtifactError(message string, cause error) error {
	return NewJobError(ErrArtifact, message, cause)
}

// InvalidRequest reports caller parameters that were rejected.
func InvalidRequest(message string) error {
	return NewJobError(ErrInvalidRequest, message, nil)
}
