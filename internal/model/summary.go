package model

import "time"

// Summary holds the statistics reported at the end of a run.
type Summary struct {
	RunID         string        `json:"run_id"`
	Total         int           `json:"total"`
	Extracted     int           `json:"extracted"`
	Hashed        int           `json:"hashed"`
	NoLogo        int           `json:"no_logo"`
	Unreadable    int           `json:"unreadable"`
	Errors        int           `json:"errors"`
	Skipped       int           `json:"skipped"`
	SimilarGroups int           `json:"similar_groups"`
	Grouped       int           `json:"grouped"`
	UniqueLogos   int           `json:"unique_logos"`
	Comparisons   int64         `json:"comparisons"`
	Unions        int64         `json:"unions"`
	Duration      time.Duration `json:"duration"`
}

// Record counts an outcome towards the summary.
func (s *Summary) Record(o *Outcome) {
	s.Total++
	switch o.Status {
	case StatusOK:
		s.Extracted++
		if o.Hash.Valid() {
			s.Hashed++
		}
	case StatusNoLogo:
		s.NoLogo++
	case StatusUnreadable:
		s.Unreadable++
	case StatusError:
		s.Errors++
	}
}

// ExtractionRate returns the percentage of domains with an accepted logo.
func (s Summary) ExtractionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Extracted) * 100 / float64(s.Total)
}

// ApplyGroups fills the grouping statistics for groups built from the
// given number of hashed items.
func (s *Summary) ApplyGroups(items int, groups []Group) {
	s.SimilarGroups = len(groups)
	s.Grouped = 0
	for _, g := range groups {
		s.Grouped += g.Size()
	}
	s.UniqueLogos = items - s.Grouped
}
