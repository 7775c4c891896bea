package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nao1215/logocluster/internal/model"
)

// Output formats for group reports.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatXLSX     = "xlsx"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Report is the content of a group report.
type Report struct {
	// Groups are the similarity groups, largest first.
	Groups []model.Group

	// Summary holds the run statistics.
	Summary model.Summary

	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time
}

// NewReport returns a Report stamped with the current time.
func NewReport(groups []model.Group, summary model.Summary) *Report {
	return &Report{Groups: groups, Summary: summary, GeneratedAt: time.Now()}
}

// Writer writes a group report to its destination.
type Writer interface {
	// Write outputs the report and returns the number of bytes written.
	Write(report *Report) (int, error)
}

// NewWriter returns the Writer for format.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(output), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	case FormatXLSX:
		return NewXLSXWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// countingWriter counts the bytes passed to w.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
