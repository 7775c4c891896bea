package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/nao1215/logocluster/internal/model"
)

// GroupHeader is the header row of the group CSV.
var GroupHeader = []string{"group_id", "count", "websites"}

// ResultHeader is the header row of the result log.
var ResultHeader = []string{"domain", "home_url", "logo_url", "status", "error"}

// CSVWriter writes groups as CSV rows.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs one row per group in report order.
func (w *CSVWriter) Write(report *Report) (int, error) {
	cw := &countingWriter{w: w.output}
	out := csv.NewWriter(cw)
	if err := out.Write(GroupHeader); err != nil {
		return cw.n, err
	}
	for _, g := range report.Groups {
		row := []string{strconv.Itoa(g.ID), strconv.Itoa(g.Size()), g.Websites()}
		if err := out.Write(row); err != nil {
			return cw.n, err
		}
	}
	out.Flush()
	return cw.n, out.Error()
}

// DefaultFlushEvery is the number of rows ResultLog buffers before flushing.
const DefaultFlushEvery = 50

// ResultLog writes one CSV row per outcome. It satisfies the pipeline's
// sink contract and is safe for concurrent use.
type ResultLog struct {
	mu         sync.Mutex
	out        *csv.Writer
	pending    int
	flushEvery int
}

// ResultLogOption configures a ResultLog.
type ResultLogOption func(*ResultLog)

// WithFlushEvery sets how many rows are buffered between flushes.
func WithFlushEvery(n int) ResultLogOption {
	return func(l *ResultLog) {
		if n > 0 {
			l.flushEvery = n
		}
	}
}

// NewResultLog writes the header to output and returns the log.
func NewResultLog(output io.Writer, opts ...ResultLogOption) (*ResultLog, error) {
	l := &ResultLog{out: csv.NewWriter(output), flushEvery: DefaultFlushEvery}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.out.Write(ResultHeader); err != nil {
		return nil, fmt.Errorf("failed to write result header: %w", err)
	}
	l.out.Flush()
	if err := l.out.Error(); err != nil {
		return nil, fmt.Errorf("failed to write result header: %w", err)
	}
	return l, nil
}

// Record appends the row of o, flushing every flushEvery rows.
func (l *ResultLog) Record(_ context.Context, o *model.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := []string{o.Domain, o.HomeURL, o.LogoURL, o.Status.String(), o.Error}
	if err := l.out.Write(row); err != nil {
		return err
	}
	l.pending++
	if l.pending >= l.flushEvery {
		l.pending = 0
		l.out.Flush()
		return l.out.Error()
	}
	return nil
}

// Flush writes buffered rows.
func (l *ResultLog) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = 0
	l.out.Flush()
	return l.out.Error()
}
