package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"comfyrun/internal/adapters/comfy"
	"comfyrun/internal/adapters/transport"
	"comfyrun/internal/config"
)

func main() {
	// .env is optional; variables may be set in the environment instead.
	envErr := godotenv.Load()

	var (
		verbose bool
		logger  *slog.Logger
	)
	rootCmd := &cobra.Command{
		Use:           "comfy-cli",
		Short:         "Run ComfyUI workflows and collect their outputs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	newLogger := func() *slog.Logger {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		if envErr != nil {
			logger.Debug("no .env file found")
		}
		return logger
	}

	rootCmd.AddCommand(RunCmd(newLogger))
	rootCmd.AddCommand(PingCmd(newLogger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger == nil {
			logger = newLogger()
		}
		logger.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// newServiceClient builds the remote client from environment configuration.
func newServiceClient(logger *slog.Logger) (*comfy.Client, *config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	t := transport.NewClient(cfg.Service.BaseURL, cfg.Service.APIKey, cfg.Service.HTTPTimeout, logger)
	return comfy.NewClient(t, logger), cfg, nil
}
