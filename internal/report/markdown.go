package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/logocluster/internal/model"
)

// MarkdownWriter outputs group reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report.Summary)
	w.writeGroups(md, report.Groups)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *Report) {
	md.H1("Logo Similarity Report")
	md.PlainText("")

	rows := [][]string{
		{"Generated", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if report.Summary.RunID != "" {
		rows = append(rows, []string{"Run", "`" + report.Summary.RunID + "`"})
	}
	if report.Summary.Duration > 0 {
		rows = append(rows, []string{"Duration", report.Summary.Duration.Round(time.Millisecond).String()})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s model.Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Domains", strconv.Itoa(s.Total)},
			{"Logos extracted", fmt.Sprintf("%d (%.1f%%)", s.Extracted, s.ExtractionRate())},
			{"Logos hashed", strconv.Itoa(s.Hashed)},
			{"No logo", strconv.Itoa(s.NoLogo)},
			{"Unreadable", strconv.Itoa(s.Unreadable)},
			{"Errors", strconv.Itoa(s.Errors)},
			{"Similar groups", strconv.Itoa(s.SimilarGroups)},
			{"Unique logos", strconv.Itoa(s.UniqueLogos)},
		},
	})
	md.PlainText("")

	if s.Total > 0 {
		w.writePieChart(md, s)
	}
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if s.Extracted > 0 {
		chart.LabelAndIntValue("OK", uint64(s.Extracted)) //nolint:gosec // counts are non-negative
	}
	if s.NoLogo > 0 {
		chart.LabelAndIntValue("No logo", uint64(s.NoLogo)) //nolint:gosec // counts are non-negative
	}
	if s.Unreadable > 0 {
		chart.LabelAndIntValue("Unreadable", uint64(s.Unreadable)) //nolint:gosec // counts are non-negative
	}
	if s.Errors > 0 {
		chart.LabelAndIntValue("Error", uint64(s.Errors)) //nolint:gosec // counts are non-negative
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeGroups(md *markdown.Markdown, groups []model.Group) {
	md.H2("Similar Logo Groups")
	md.PlainText("")

	if len(groups) == 0 {
		md.Tip("No near-duplicate logos were found.")
		md.PlainText("")
		return
	}

	md.Note(fmt.Sprintf("%d group(s) of websites share a near-identical logo.", len(groups)))
	md.PlainText("")

	rows := make([][]string, len(groups))
	for i, g := range groups {
		rows[i] = []string{
			strconv.Itoa(g.ID),
			strconv.Itoa(g.Size()),
			strings.Join(g.Domains(), ", "),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Group", "Count", "Websites"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, g := range groups {
		lines := make([]string, len(g.Members))
		for i, m := range g.Members {
			lines[i] = fmt.Sprintf("%s: %s (%s)", m.Domain, m.LogoURL, m.Hash)
		}
		md.Details(fmt.Sprintf("Group %d", g.ID), strings.Join(lines, "\n"))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [logocluster](https://github.com/nao1215/logocluster)*")
}
