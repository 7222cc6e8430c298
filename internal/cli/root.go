package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"docsearch/config"
	"docsearch/internal/connectivity"
	"docsearch/internal/errhandler"
	"docsearch/internal/httpclient"
	"docsearch/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitRetryable = 4
)

// exitError carries the process exit code for a handled failure.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

type options struct {
	cfgPath string
	isDebug bool
	offline bool
}

// runtime is everything a command needs, built once per invocation.
type runtime struct {
	cfg      *config.Config
	client   *httpclient.Client
	handler  *errhandler.Handler
	registry *prometheus.Registry
	out      io.Writer
	debug    bool
}

// NewRootCmd builds the docsearch command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "docsearch",
		Short: "Upload documents and ask questions about them",
		Long: `docsearch talks to a retrieval-augmented document search backend.
It uploads PDF and Markdown files for indexing and answers questions from them.`,
		Example: `  # Index a document
  docsearch upload ./handbook.pdf
  docsearch upload s3://team-docs/guide.md

  # Ask a question
  docsearch query "How do I rotate the API keys?" --max-chunks 8

  # Check the backend
  docsearch health`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.offline, "offline", false, "treat the network as unavailable")

	rootCmd.AddCommand(
		newUploadCmd(opts),
		newQueryCmd(opts),
		newHealthCmd(opts),
	)
	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return ExitFailure
}

func setup(cmd *cobra.Command, opts *options) (*runtime, error) {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, err
	}

	// Setup logging
	level := cfg.LogLevel
	if opts.isDebug {
		level = config.Debug
	}
	logger.Init(level)

	var probe connectivity.Probe = connectivity.Static(true)
	if opts.offline {
		probe = connectivity.Static(false)
	}
	classifier := errhandler.NewClassifier(probe)

	out := cmd.OutOrStdout()
	handler := errhandler.NewHandler(classifier, cfg.ErrorLog.Capacity, errhandler.Hooks{
		ContactSupport: func() error {
			_, err := fmt.Fprintf(out, "Contact support: %s\n", cfg.ErrorLog.SupportEmail)
			return err
		},
	})

	registry := prometheus.NewRegistry()
	client := httpclient.New(httpclient.ConfigFrom(cfg),
		httpclient.WithClassifier(classifier),
		httpclient.WithReporter(handler),
		httpclient.WithMetrics(httpclient.NewMetrics(registry)),
	)

	return &runtime{
		cfg:      cfg,
		client:   client,
		handler:  handler,
		registry: registry,
		out:      out,
		debug:    opts.isDebug,
	}, nil
}

// fail renders err for the user and maps it to an exit code.
func (rt *runtime) fail(err error, retry func() error) error {
	errCtx := rt.handler.Handle(err, retry)
	printError(rt.out, errCtx, rt.debug)
	if rt.debug {
		printMetrics(rt.out, rt.registry)
	}

	code := ExitFailure
	if appErr := errCtx.AppError(); appErr != nil && appErr.Retryable() {
		code = ExitRetryable
	}
	return &exitError{code: code}
}
