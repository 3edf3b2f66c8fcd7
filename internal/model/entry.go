package model

import "github.com/baffalop/watsup/internal/timecalc"

// Tag is a labelled slice of an entry's time.
type Tag struct {
	Name     string
	Duration timecalc.Duration
}

// Entry is one project's line in a day's report. Total is the tracker's
// figure and need not equal the sum of the tags.
type Entry struct {
	Project string
	Total   timecalc.Duration
	Tags    []Tag
}

// TagNames returns the entry's tag names in report order.
func (e Entry) TagNames() []string {
	names := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		names[i] = t.Name
	}
	return names
}

// Report is a parsed day (or range) report.
type Report struct {
	DateRange string
	Entries   []Entry
	Total     timecalc.Duration
}
