package cli

import (
	"context"
	"fmt"
	"strings"

	"docsearch/config"
	"docsearch/internal/connectivity"
	"docsearch/internal/core/healthcheck"
	"docsearch/internal/core/query"
	"docsearch/internal/core/upload"
	"docsearch/pkg/logger"
	s3client "docsearch/pkg/s3"

	"github.com/spf13/cobra"
)

func newUploadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a PDF or Markdown document for indexing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var downloader upload.Downloader
			if s3client.IsURI(args[0]) {
				s3c, err := s3client.NewClient(ctx, rt.cfg.S3)
				if err != nil {
					logger.Error(err, "%v: s3 client unavailable", config.ModuleS3)
				} else {
					downloader = s3c
				}
			}

			svc := upload.NewService(rt.client, rt.cfg, downloader)
			run := func() error {
				resp, err := svc.Upload(ctx, args[0])
				if err != nil {
					return err
				}
				printUpload(rt.out, resp)
				return nil
			}
			if err := run(); err != nil {
				return rt.fail(err, run)
			}
			return nil
		},
	}
}

type queryFlags struct {
	maxChunks   int
	threshold   float64
	maxTokens   int
	temperature float64
	includeLow  bool
}

func newQueryCmd(opts *options) *cobra.Command {
	qf := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Ask a question about the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			req := query.Request{
				Question: strings.Join(args, " "),
				Config:   qf.config(cmd),
			}

			svc := query.NewService(rt.client, rt.cfg)
			run := func() error {
				resp, err := svc.Query(cmd.Context(), req)
				if err != nil {
					return err
				}
				printAnswer(rt.out, resp)
				return nil
			}
			if err := run(); err != nil {
				return rt.fail(err, run)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&qf.maxChunks, "max-chunks", 5, "maximum number of source chunks (1-20)")
	cmd.Flags().Float64Var(&qf.threshold, "threshold", 0.7, "minimum similarity score (0-1)")
	cmd.Flags().IntVar(&qf.maxTokens, "max-tokens", 500, "maximum answer length in tokens (50-4000)")
	cmd.Flags().Float64Var(&qf.temperature, "temperature", 0.3, "generation temperature (0-1)")
	cmd.Flags().BoolVar(&qf.includeLow, "include-low", false, "keep low-confidence sources")
	return cmd
}

// config sends only the settings the user set explicitly.
func (qf *queryFlags) config(cmd *cobra.Command) *query.Config {
	var cfg query.Config
	set := false
	if cmd.Flags().Changed("max-chunks") {
		cfg.MaxChunks, set = &qf.maxChunks, true
	}
	if cmd.Flags().Changed("threshold") {
		cfg.SimilarityThreshold, set = &qf.threshold, true
	}
	if cmd.Flags().Changed("max-tokens") {
		cfg.MaxResponseTokens, set = &qf.maxTokens, true
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature, set = &qf.temperature, true
	}
	if cmd.Flags().Changed("include-low") {
		cfg.IncludeLowConfidence, set = &qf.includeLow, true
	}
	if !set {
		return nil
	}
	return &cfg
}

func newHealthCmd(opts *options) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show backend health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			if watch {
				return rt.watch(cmd.Context())
			}

			svc := healthcheck.NewService(rt.client, rt.cfg)
			run := func() error {
				resp, err := svc.Check(cmd.Context())
				if err != nil {
					return err
				}
				printHealth(rt.out, resp)
				return nil
			}
			if err := run(); err != nil {
				return rt.fail(err, run)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep probing and report connectivity changes")
	return cmd
}

// watch reports online/offline transitions until ctx is cancelled.
func (rt *runtime) watch(ctx context.Context) error {
	monitor := connectivity.NewMonitor(rt.cfg.Client.BaseURL, rt.cfg.Connectivity.HealthPath,
		rt.cfg.Connectivity.ProbeInterval, nil)
	remove := monitor.AddListener(func(online bool) {
		state := "offline"
		if online {
			state = "online"
		}
		fmt.Fprintf(rt.out, "backend is %s\n", state)
	})
	defer remove()

	if monitor.Check(ctx) {
		fmt.Fprintln(rt.out, "backend is online")
	}
	monitor.Run(ctx)
	return nil
}
