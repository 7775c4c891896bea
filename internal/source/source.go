// Package source reads the list of domains to scan.
//
// Input is either plain text with one domain per line or CSV. When the
// first CSV row has a column named "domain" (case-insensitive) that
// column is used; otherwise the first column of every row is. Blank
// entries and lines starting with '#' are skipped and duplicates are
// dropped, keeping the first occurrence.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoDomains is returned when an input yields no domain at all.
var ErrNoDomains = errors.New("no domains found in input")

// ReadDomains reads distinct, non-empty domains from r in input order.
func ReadDomains(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	column := 0
	first := true
	seen := make(map[string]struct{})
	var domains []string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read domains: %w", err)
		}
		if first {
			first = false
			if idx := headerIndex(record); idx >= 0 {
				column = idx
				continue
			}
		}
		if column >= len(record) {
			continue
		}
		d := strings.TrimSpace(record[column])
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	return domains, nil
}

func headerIndex(record []string) int {
	for i, field := range record {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(field, "\ufeff")), "domain") {
			return i
		}
	}
	return -1
}

// LoadFile reads domains from the file at path.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	domains, err := ReadDomains(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return domains, nil
}

// Collect merges the domains of every file in paths with the extra
// domains given directly, deduplicated in order. It returns ErrNoDomains
// when the result is empty.
func Collect(paths, extra []string) ([]string, error) {
	seen := make(map[string]struct{})
	var all []string
	add := func(ds []string) {
		for _, d := range ds {
			d = strings.TrimSpace(d)
			if d == "" {
				continue
			}
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			all = append(all, d)
		}
	}

	for _, p := range paths {
		ds, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		add(ds)
	}
	add(extra)

	if len(all) == 0 {
		return nil, ErrNoDomains
	}
	return all, nil
}
