package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/logocluster/internal/model"
)

// SummaryWriter prints run statistics for terminal display.
type SummaryWriter struct {
	baseWriter
	verbose bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithVerbose adds clustering diagnostics to the output.
func WithVerbose(verbose bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.verbose = verbose
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary of report.
func (w *SummaryWriter) Write(report *Report) (int, error) {
	var sb strings.Builder
	s := report.Summary

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")
	sb.WriteString("FINAL STATISTICS\n")
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Total websites:    %d\n", s.Total)
	fmt.Fprintf(&sb, "Logos extracted:   %d (%.1f%%)\n", s.Extracted, s.ExtractionRate())
	fmt.Fprintf(&sb, "Logos hashed:      %d\n", s.Hashed)
	fmt.Fprintf(&sb, "No logo:           %d\n", s.NoLogo)
	fmt.Fprintf(&sb, "Unreadable:        %d\n", s.Unreadable)
	fmt.Fprintf(&sb, "Errors:            %d\n", s.Errors)
	if s.Skipped > 0 {
		fmt.Fprintf(&sb, "Resumed:           %d\n", s.Skipped)
	}
	fmt.Fprintf(&sb, "Similar groups:    %d\n", s.SimilarGroups)
	fmt.Fprintf(&sb, "Unique logos:      %d\n", s.UniqueLogos)
	if w.verbose {
		fmt.Fprintf(&sb, "Comparisons:       %d\n", s.Comparisons)
		fmt.Fprintf(&sb, "Unions:            %d\n", s.Unions)
	}
	if s.Duration > 0 {
		fmt.Fprintf(&sb, "Duration:          %s\n", s.Duration.Round(time.Millisecond))
	}
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n")

	if w.verbose && len(report.Groups) > 0 {
		w.writeGroups(&sb, report.Groups)
	}

	return w.output.Write([]byte(sb.String()))
}

func (w *SummaryWriter) writeGroups(sb *strings.Builder, groups []model.Group) {
	sb.WriteString("\nLargest groups:\n")
	limit := min(len(groups), 10)
	for _, g := range groups[:limit] {
		fmt.Fprintf(sb, "  [%d] %d sites: %s\n", g.ID, g.Size(), g.Websites())
	}
}
