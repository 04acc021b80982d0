package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"comfyrun/internal/core/domain"
	"comfyrun/internal/core/ports"
	"comfyrun/internal/transcode"
)

// Outcome is the result of fetching and transcoding one descriptor.
type Outcome struct {
	Descriptor domain.OutputDescriptor
	Final      ports.Transcoded
	Err        error
}

// Fetcher downloads and transcodes descriptors concurrently.
type Fetcher struct {
	svc         ports.ExecutionService
	transcoder  ports.Transcoder
	concurrency int
	logger      *slog.Logger
}

// NewFetcher creates a new Fetcher. concurrency <= 0 runs one task per descriptor.
func NewFetcher(svc ports.ExecutionService, tc ports.Transcoder, concurrency int, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{svc: svc, transcoder: tc, concurrency: concurrency, logger: logger}
}

// FetchAll returns one outcome per descriptor, in descriptor order.
// A failing descriptor is reported in its outcome and never stops the others.
func (f *Fetcher) FetchAll(ctx context.Context, ds []domain.OutputDescriptor, format domain.ImageFormat, quality int) []Outcome {
	outcomes := make([]Outcome, len(ds))

	var g errgroup.Group
	if f.concurrency > 0 {
		g.SetLimit(f.concurrency)
	}
	for i, d := range ds {
		i, d := i, d
		g.Go(func() error {
			outcomes[i] = f.fetchOne(ctx, d, format, quality)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (f *Fetcher) fetchOne(ctx context.Context, d domain.OutputDescriptor, format domain.ImageFormat, quality int) Outcome {
	start := time.Now()
	out := Outcome{Descriptor: d}

	data, err := f.svc.View(ctx, d)
	if err != nil {
		out.Err = domain.ArtifactError("download failed", err)
		f.logger.Warn("artifact.fetch.error", "filename", d.Filename, "error", err)
		return out
	}

	a := domain.Artifact{Descriptor: d, Data: data, Extension: transcode.Extension(d.Filename)}
	final, err := f.transcoder.Transcode(a, format, quality)
	if err != nil {
		out.Err = domain.ArtifactError("transcode failed", err)
		f.logger.Warn("artifact.transcode.error", "filename", d.Filename, "error", err)
		return out
	}

	out.Final = final
	f.logger.Info("artifact.fetch.ok",
		"filename", d.Filename,
		"bytes", len(final.Data),
		"file_type", final.Extension,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}
