package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/logocluster/internal/model"
	"github.com/nao1215/logocluster/internal/phash"
)

func testReport() *Report {
	return &Report{
		Groups: []model.Group{
			{ID: 1, Members: []model.LogoItem{
				{Domain: "a.com", LogoURL: "https://a.com/logo.png", Hash: phash.FromUint64(0xFF)},
				{Domain: "b.com", LogoURL: "https://b.com/logo.png", Hash: phash.FromUint64(0xFE)},
				{Domain: "c.com", LogoURL: "https://c.com/logo.png", Hash: phash.FromUint64(0xFC)},
			}},
			{ID: 2, Members: []model.LogoItem{
				{Domain: "x.org", LogoURL: "https://x.org/icon.ico", Hash: phash.FromUint64(1)},
				{Domain: "y.org", LogoURL: "https://y.org/icon.ico", Hash: phash.FromUint64(1)},
			}},
		},
		Summary: model.Summary{
			RunID:         "run-1",
			Total:         10,
			Extracted:     7,
			Hashed:        7,
			NoLogo:        2,
			Errors:        1,
			SimilarGroups: 2,
			UniqueLogos:   2,
		},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	for _, format := range []string{FormatCSV, FormatMarkdown, FormatXLSX, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			t.Parallel()
			w, err := NewWriter(format, &bytes.Buffer{})
			if err != nil || w == nil {
				t.Errorf("expected writer, got %v", err)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		t.Parallel()
		if _, err := NewWriter("pdf", &bytes.Buffer{}); !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
	})
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewCSVWriter(&buf).Write(testReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
	}

	want := "group_id,count,websites\n" +
		"1,3,a.com | b.com | c.com\n" +
		"2,2,x.org | y.org\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestCSVWriterNoGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewCSVWriter(&buf).Write(&Report{}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "group_id,count,websites\n" {
		t.Errorf("expected header only, got %q", buf.String())
	}
}

func TestResultLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := NewResultLog(&buf, WithFlushEvery(2))
	if err != nil {
		t.Fatal(err)
	}
	if buf.String() != "domain,home_url,logo_url,status,error\n" {
		t.Errorf("expected header to be written immediately, got %q", buf.String())
	}

	ctx := context.Background()
	outcomes := []*model.Outcome{
		{Domain: "a.com", HomeURL: "https://a.com", LogoURL: "https://a.com/l.png", Status: model.StatusOK},
		{Domain: "b.com", Status: model.StatusError, Error: "fetch: timeout, retry"},
		{Domain: "c.com", Status: model.StatusNoLogo},
	}
	if err := log.Record(ctx, outcomes[0]); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "a.com") {
		t.Error("expected first row to stay buffered")
	}
	if err := log.Record(ctx, outcomes[1]); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "b.com") {
		t.Error("expected rows to be flushed after two records")
	}
	if err := log.Record(ctx, outcomes[2]); err != nil {
		t.Fatal(err)
	}
	if err := log.Flush(); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse result log: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[2][4] != "fetch: timeout, retry" {
		t.Errorf("expected quoted error to round trip, got %q", rows[2][4])
	}
	if rows[3][3] != "NO_LOGO" {
		t.Errorf("expected NO_LOGO, got %q", rows[3][3])
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(testReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Logo Similarity Report",
		"## Summary",
		"## Similar Logo Groups",
		"a.com, b.com, c.com",
		"mermaid",
		"run-1",
		"70.0%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

func TestMarkdownWriterNoGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(&Report{GeneratedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No near-duplicate logos were found.") {
		t.Errorf("expected empty notice, got %q", buf.String())
	}
	if strings.Contains(buf.String(), "mermaid") {
		t.Error("expected no chart without domains")
	}
}

func TestXLSXWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewXLSXWriter(&buf).Write(testReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != buf.Len() {
		t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	groups, err := f.GetRows(SheetGroups)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 group rows, got %d", len(groups))
	}
	if groups[1][0] != "1" || groups[1][1] != "3" || groups[1][2] != "a.com | b.com | c.com" {
		t.Errorf("unexpected first group row %v", groups[1])
	}

	members, err := f.GetRows(SheetMembers)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 6 {
		t.Errorf("expected 6 member rows, got %d", len(members))
	}
	if members[1][3] != "00000000000000ff" {
		t.Errorf("expected hex hash, got %q", members[1][3])
	}

	summary, err := f.GetRows(SheetSummary)
	if err != nil {
		t.Fatal(err)
	}
	if summary[2][0] != "total" || summary[2][1] != "10" {
		t.Errorf("unexpected summary row %v", summary[2])
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(testReport()); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Summary model.Summary `json:"summary"`
		Groups  []struct {
			ID       int    `json:"group_id"`
			Count    int    `json:"count"`
			Websites string `json:"websites"`
			Members  []struct {
				Hash string `json:"hash"`
			} `json:"members"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(doc.Groups) != 2 || doc.Groups[1].Websites != "x.org | y.org" {
		t.Errorf("unexpected groups %+v", doc.Groups)
	}
	if doc.Groups[0].Members[0].Hash != "00000000000000ff" {
		t.Errorf("expected hex hash, got %q", doc.Groups[0].Members[0].Hash)
	}
	if doc.Summary.Total != 10 {
		t.Errorf("expected total 10, got %d", doc.Summary.Total)
	}
}

func TestSummaryWriter(t *testing.T) {
	t.Parallel()

	t.Run("default", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf).Write(testReport()); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, "FINAL STATISTICS") || !strings.Contains(out, "Logos extracted:   7 (70.0%)") {
			t.Errorf("unexpected summary %q", out)
		}
		if strings.Contains(out, "Largest groups") {
			t.Error("expected groups only in verbose mode")
		}
	})

	t.Run("verbose", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf, WithVerbose(true)).Write(testReport()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "[1] 3 sites: a.com | b.com | c.com") {
			t.Errorf("expected group listing, got %q", buf.String())
		}
	})
}
