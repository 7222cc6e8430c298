package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"docsearch/internal/core/healthcheck"
	"docsearch/internal/core/query"
	"docsearch/internal/core/upload"
	"docsearch/internal/errhandler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/lo"
)

func printUpload(w io.Writer, resp *upload.Response) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Document\t%s\n", resp.DocumentID)
	_, _ = fmt.Fprintf(tw, "File\t%s\n", resp.Filename)
	_, _ = fmt.Fprintf(tw, "Chunks\t%d\n", resp.ChunksCreated)
	_, _ = fmt.Fprintf(tw, "Took\t%dms\n", resp.ProcessingTimeMs)
	if resp.Message != "" {
		_, _ = fmt.Fprintf(tw, "Message\t%s\n", resp.Message)
	}
	_ = tw.Flush()
}

func printAnswer(w io.Writer, resp *query.Response) {
	_, _ = fmt.Fprintln(w, resp.Answer)
	_, _ = fmt.Fprintf(w, "\nConfidence: %.0f%%  (%dms)\n\nSources:\n", resp.Confidence*100, resp.ResponseTimeMs)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tSCORE\tFILE\tSECTION")
	for i, src := range resp.Sources {
		section := strings.Join(src.Headers, " > ")
		if section == "" {
			section = fmt.Sprintf("chunk %d", src.ChunkIndex)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\n", i+1, src.RelevanceScore, src.SourceFile, section)
	}
	_ = tw.Flush()
}

func printHealth(w io.Writer, resp *healthcheck.Response) {
	_, _ = fmt.Fprintf(w, "Status: %s (up %ds)\n", resp.Status, resp.UptimeSeconds)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SERVICE\tSTATUS")
	names := lo.Keys(resp.Services)
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", name, resp.Services[name])
	}
	_ = tw.Flush()
}

func printError(w io.Writer, errCtx errhandler.ErrorContext, debug bool) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", errCtx.UserMessage())
	if appErr := errCtx.AppError(); appErr != nil {
		_, _ = fmt.Fprintf(w, "  %s (%s, %s)\n", appErr.Code(), appErr.Type(), appErr.Severity())
	}
	if debug {
		_, _ = fmt.Fprintf(w, "  %s\n", errCtx.TechnicalMessage())
	}

	labels := lo.Map(errCtx.RecoveryOptions(), func(o errhandler.ErrorRecovery, _ int) string {
		return o.Label
	})
	_, _ = fmt.Fprintf(w, "Options: %s\n", strings.Join(labels, " | "))

	for _, o := range errCtx.RecoveryOptions() {
		if o.Action == errhandler.ActionContactSupport {
			_ = o.Handler()
		}
	}
}

// printMetrics dumps the client counters gathered during this run.
func printMetrics(w io.Writer, reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			_, _ = fmt.Fprintf(w, "  %s{%s} %v\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}
