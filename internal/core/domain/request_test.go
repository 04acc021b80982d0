package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewJobRequest_Defaults(t *testing.T) {
	req, err := NewJobRequest(RunParams{Workflow: `{"1":{"class_type":"SaveImage"}}`})
	if err != nil {
		t.Fatalf("NewJobRequest failed: %v", err)
	}
	if !req.AllowedTypes["png"] || !req.AllowedTypes["jpg"] || len(req.AllowedTypes) != 2 {
		t.Errorf("unexpected allowed types: %v", req.AllowedTypes)
	}
	if req.OutputFormat != FormatJPEG {
		t.Errorf("expected jpeg, got %s", req.OutputFormat)
	}
	if req.JPEGQuality != 80 {
		t.Errorf("expected quality 80, got %d", req.JPEGQuality)
	}
	if req.Timeout != 30*time.Minute || req.TimeoutMinutes() != 30 {
		t.Errorf("expected 30m timeout, got %v", req.Timeout)
	}
}

func TestNewJobRequest_Normalizes(t *testing.T) {
	req, err := NewJobRequest(RunParams{
		Workflow:         ` {"1":{}} `,
		AllowedFileTypes: []string{".PNG", " mp3"},
		OutputFormat:     "PNG",
		JPEGQuality:      Int(100),
		TimeoutMinutes:   Int(1),
	})
	if err != nil {
		t.Fatalf("NewJobRequest failed: %v", err)
	}
	if !req.AllowedTypes["png"] || !req.AllowedTypes["mp3"] || req.AllowedTypes["jpg"] {
		t.Errorf("unexpected allowed types: %v", req.AllowedTypes)
	}
	if req.OutputFormat != FormatPNG {
		t.Errorf("expected png, got %s", req.OutputFormat)
	}
	if string(req.Workflow) != `{"1":{}}` {
		t.Errorf("workflow not trimmed: %q", req.Workflow)
	}
}

func TestNewJobRequest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params RunParams
		want   string
	}{
		{"missing workflow", RunParams{}, "workflow is required"},
		{"workflow not json", RunParams{Workflow: "{nope"}, "JSON object"},
		{"workflow array", RunParams{Workflow: `[1,2]`}, "JSON object"},
		{"workflow empty object", RunParams{Workflow: `{}`}, "JSON object"},
		{"unsupported type", RunParams{Workflow: `{"1":{}}`, AllowedFileTypes: []string{"gif"}}, "unsupported file type"},
		{"bad format", RunParams{Workflow: `{"1":{}}`, OutputFormat: "webp"}, "unsupported output format"},
		{"quality too high", RunParams{Workflow: `{"1":{}}`, JPEGQuality: Int(101)}, "out of range"},
		{"quality negative", RunParams{Workflow: `{"1":{}}`, JPEGQuality: Int(-1)}, "out of range"},
		{"quality zero", RunParams{Workflow: `{"1":{}}`, JPEGQuality: Int(0)}, "out of range"},
		{"negative timeout", RunParams{Workflow: `{"1":{}}`, TimeoutMinutes: Int(-5)}, "positive"},
		{"timeout zero", RunParams{Workflow: `{"1":{}}`, TimeoutMinutes: Int(0)}, "positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJobRequest(tt.params)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestJobError_Is(t *testing.T) {
	cause := errors.New("connection refused")
	err := SubmissionError("service is not reachable", cause)

	if !errors.Is(err, ErrSubmission) {
		t.Error("expected errors.Is(err, ErrSubmission)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("submission error must not match ErrTimeout")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("message should wrap the cause: %q", err)
	}

	timeout := TimeoutError(1, nil)
	if !errors.Is(timeout, ErrTimeout) || !strings.Contains(timeout.Error(), "1 minute") {
		t.Errorf("unexpected timeout error: %v", timeout)
	}
}

func TestParseLocationKind(t *testing.T) {
	cases := map[string]LocationKind{
		"output": LocationOutput,
		"temp":   LocationTemp,
		"input":  LocationOther,
		"":       LocationOther,
	}
	for in, want := range cases {
		if got := ParseLocationKind(in); got != want {
			t.Errorf("ParseLocationKind(%q) = %s, want %s", in, got, want)
		}
	}
}
