package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"comfyrun/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunCmd_WritesOutputs(t *testing.T) {
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/system_stats":
			w.Write([]byte(`{}`))
		case "/prompt":
			w.Write([]byte(`{"prompt_id": "job-7"}`))
		case "/history/job-7":
			w.Write([]byte(`{"job-7": {"status": {"completed": true, "status_str": "success"},
				"outputs": {"9": {"images": [{"filename": "out.png", "subfolder": "", "type": "output"}]}}}}`))
		case "/view":
			w.Write(img.Bytes())
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	t.Setenv("COMFY_BASE_URL", srv.URL)
	t.Setenv("COMFY_POLL_GRACE", "1ms")
	t.Setenv("COMFY_POLL_INTERVAL", "1ms")

	outDir := t.TempDir()
	cmd := RunCmd(discardLogger)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{`{"1": {"class_type": "SaveImage"}}`, "--types", "png", "--format", "png", "--timeout", "1", "--out-dir", outDir})

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out.String(), "job-7") || !strings.Contains(out.String(), "image/png") {
		t.Errorf("unexpected summary:\n%s", out.String())
	}

	jobDir := filepath.Join(outDir, "jobs", "job-7")
	for _, name := range []string{"input.json", "manifest.json", filepath.Join("outputs", "out.png")} {
		if _, err := os.Stat(filepath.Join(jobDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
}

func TestRunCmd_RequiresWorkflow(t *testing.T) {
	cmd := RunCmd(discardLogger)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{})
	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected an error without a workflow")
	}
}

func TestRunCmd_RejectsZeroQualityAndTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	}))
	defer srv.Close()
	t.Setenv("COMFY_BASE_URL", srv.URL)

	for _, flag := range []string{"--quality", "--timeout"} {
		t.Run(flag, func(t *testing.T) {
			cmd := RunCmd(discardLogger)
			cmd.SetOut(io.Discard)
			cmd.SetErr(io.Discard)
			cmd.SetArgs([]string{`{"1": {}}`, flag, "0", "--out-dir", t.TempDir()})
			err := cmd.ExecuteContext(context.Background())
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("%s 0: err = %v, want invalid request", flag, err)
			}
		})
	}
}
