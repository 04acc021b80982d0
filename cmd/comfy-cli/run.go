package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"comfyrun/internal/adapters/localstorage"
	"comfyrun/internal/core/domain"
	"comfyrun/internal/core/ports"
	"comfyrun/internal/service"
	"comfyrun/internal/transcode"
)

func RunCmd(newLogger func() *slog.Logger) *cobra.Command {
	var (
		params       domain.RunParams
		quality      int
		timeout      int
		workflowFile string
		outDir       string
	)

	cmd := &cobra.Command{
		Use:   "run [workflow-json]",
		Short: "Submit a workflow, wait for it and fetch its outputs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			switch {
			case len(args) == 1:
				params.Workflow = args[0]
			case workflowFile != "":
				data, err := os.ReadFile(workflowFile)
				if err != nil {
					return fmt.Errorf("read workflow: %w", err)
				}
				params.Workflow = string(data)
			default:
				return fmt.Errorf("a workflow is required: pass it as an argument or with --file")
			}

			params.JPEGQuality = domain.Int(quality)
			params.TimeoutMinutes = domain.Int(timeout)
			req, err := domain.NewJobRequest(params)
			if err != nil {
				return err
			}

			client, cfg, err := newServiceClient(logger)
			if err != nil {
				return err
			}
			orchestrator := service.NewOrchestrator(client, transcode.New(), service.Options{
				Poll: service.PollConfig{
					Grace:           cfg.Poll.Grace,
					Interval:        cfg.Poll.Interval,
					MaxMissingPolls: cfg.Poll.MaxMissingPolls,
				},
				FetchConcurrency: cfg.Fetch.Concurrency,
			}, logger)

			ctx := cmd.Context()
			result, err := orchestrator.RunJob(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "\n=== Job Summary ===")
			fmt.Fprintf(out, "Prompt ID:    %s\n", result.PromptID)
			fmt.Fprintf(out, "Outputs:      %d\n", len(result.Records))
			for i, r := range result.Records {
				if r.OK() {
					fmt.Fprintf(out, "  [%d] %s -> %s (%s, %s)\n", i, r.Descriptor.Filename, r.FileType, r.MIMEType, r.Size)
				} else {
					fmt.Fprintf(out, "  [%d] %s FAILED: %s\n", i, r.Descriptor.Filename, r.Error)
				}
			}

			if outDir != "" {
				var storage ports.Storage = localstorage.NewLocalStorage(outDir)
				if err := storage.InitJob(ctx, result.PromptID); err != nil {
					return err
				}
				if err := storage.SaveInput(ctx, result.PromptID, req.Workflow); err != nil {
					return err
				}
				for _, r := range result.Records {
					if !r.OK() {
						continue
					}
					if _, err := storage.SaveRecord(ctx, result.PromptID, r); err != nil {
						return err
					}
				}
				if err := storage.SaveManifest(ctx, result.PromptID, result.Records); err != nil {
					return err
				}
				fmt.Fprintf(out, "Saved to:     %s\n", storage.GetJobPath(result.PromptID))
			}
			fmt.Fprintf(out, "Completed At: %s\n", result.CompletedAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVarP(&workflowFile, "file", "f", "", "path to a workflow JSON file")
	cmd.Flags().StringSliceVar(&params.AllowedFileTypes, "types", domain.DefaultAllowedTypes, "file types to collect (png, jpg, mp3)")
	cmd.Flags().StringVar(&params.OutputFormat, "format", string(domain.FormatJPEG), "image output format (jpeg or png)")
	cmd.Flags().IntVar(&quality, "quality", domain.DefaultJPEGQuality, "jpeg quality 1-100")
	cmd.Flags().IntVar(&timeout, "timeout", domain.DefaultTimeoutMinutes, "timeout in minutes")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "write outputs and a manifest under this directory")
	return cmd
}
