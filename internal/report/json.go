package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/logocluster/internal/model"
)

// JSONWriter outputs group reports in JSON format.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonMember is a group member with its hash in hex.
type jsonMember struct {
	Domain  string `json:"domain"`
	LogoURL string `json:"logo_url"`
	Hash    string `json:"hash"`
}

type jsonGroup struct {
	ID       int          `json:"group_id"`
	Count    int          `json:"count"`
	Websites string       `json:"websites"`
	Members  []jsonMember `json:"members"`
}

// JSONReport is the document written by JSONWriter.
type JSONReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Summary     model.Summary `json:"summary"`
	Groups      []jsonGroup   `json:"groups"`
}

// Write outputs the report as a single JSON document.
func (w *JSONWriter) Write(report *Report) (int, error) {
	doc := JSONReport{
		GeneratedAt: report.GeneratedAt,
		Summary:     report.Summary,
		Groups:      make([]jsonGroup, len(report.Groups)),
	}
	for i, g := range report.Groups {
		members := make([]jsonMember, len(g.Members))
		for j, m := range g.Members {
			members[j] = jsonMember{Domain: m.Domain, LogoURL: m.LogoURL, Hash: m.Hash.String()}
		}
		doc.Groups[i] = jsonGroup{ID: g.ID, Count: g.Size(), Websites: g.Websites(), Members: members}
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(doc, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
