package localstorage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"comfyrun/internal/core/domain"
	"comfyrun/internal/core/ports"
)

var _ ports.Storage = (*LocalStorage)(nil)

// LocalStorage implements ports.Storage for the local filesystem.
type LocalStorage struct {
	BaseDir string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{BaseDir: baseDir}
}

// InitJob creates the job directory.
func (s *LocalStorage) InitJob(ctx context.Context, jobID string) error {
	path, err := s.jobDir(jobID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create job directory %s: %w", path, err)
	}
	return nil
}

// SaveInput saves the submitted workflow.
func (s *LocalStorage) SaveInput(ctx context.Context, jobID string, data []byte) error {
	dir, err := s.jobDir(jobID)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "input.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save input.json: %w", err)
	}
	return nil
}

// SaveRecord writes the content of a successful record under outputs/,
// keeping its subfolder and replacing its extension with the final one.
// A name already taken in the job gets a numeric suffix (a.jpeg, a_1.jpeg, ...).
func (s *LocalStorage) SaveRecord(ctx context.Context, jobID string, rec domain.OutputRecord) (string, error) {
	if !rec.OK() {
		return "", fmt.Errorf("record %s has no content: %s", rec.Descriptor.Filename, rec.Error)
	}
	jobDir, err := s.jobDir(jobID)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(jobDir, "outputs", cleanSubfolder(rec.Descriptor.Subfolder))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	for i := 0; i < maxNameAttempts; i++ {
		path := filepath.Join(dir, outputName(rec, i))
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		if _, err := file.Write(rec.Content); err != nil {
			file.Close()
			return "", fmt.Errorf("failed to write output file %s: %w", path, err)
		}
		if err := file.Close(); err != nil {
			return "", fmt.Errorf("failed to close output file %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %s in %s", rec.Descriptor.Filename, dir)
}

// SaveManifest saves the metadata view of every record, failures included.
func (s *LocalStorage) SaveManifest(ctx context.Context, jobID string, records []domain.OutputRecord) error {
	meta := make([]domain.RecordMetadata, 0, len(records))
	for _, r := range records {
		meta = append(meta, r.Metadata())
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	dir, err := s.jobDir(jobID)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save manifest.json: %w", err)
	}
	return nil
}

// GetJobPath returns the path for a job directory.
func (s *LocalStorage) GetJobPath(jobID string) string {
	return filepath.Join(s.BaseDir, "jobs", jobID)
}

// jobDir is GetJobPath for IDs that name exactly one directory under jobs/.
// Job IDs come from the remote service and are not trusted.
func (s *LocalStorage) jobDir(jobID string) (string, error) {
	if jobID == "" || jobID == "." || jobID == ".." ||
		strings.ContainsAny(jobID, `/\`) || strings.ContainsRune(jobID, 0) {
		return "", fmt.Errorf("invalid job id %q", jobID)
	}
	return s.GetJobPath(jobID), nil
}

// cleanSubfolder confines a remote subfolder to the job directory.
func cleanSubfolder(sub string) string {
	return strings.TrimPrefix(filepath.Clean("/"+sub), "/")
}

const maxNameAttempts = 1000

// outputName is the file name of rec; n > 0 appends "_n" to the stem.
func outputName(rec domain.OutputRecord, n int) string {
	base := filepath.Base(rec.Descriptor.Filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if n > 0 {
		base = fmt.Sprintf("%s_%d", base, n)
	}
	if rec.FileType == "" {
		return base
	}
	return base + "." + rec.FileType
}
