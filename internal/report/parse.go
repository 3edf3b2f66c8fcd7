// Package report reads the time tracker's plain-text day report.
package report

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/baffalop/watsup/internal/model"
	"github.com/baffalop/watsup/internal/timecalc"
)

const totalPrefix = "Total: "

var projectLine = regexp.MustCompile(`^([^\s-]+)\s+-\s+(.*)$`)

// ParseError reports the first line of a report that does not fit the format.
// Line is 1-based; 0 means the problem is the report as a whole.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return "report parse error: " + e.Reason
	}
	return fmt.Sprintf("report parse error on line %d (%q): %s", e.Line, e.Text, e.Reason)
}

// Parse turns report text into a Report. It either accepts the whole text or
// returns a *ParseError; entries are never silently dropped.
func Parse(text string) (model.Report, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return model.Report{}, &ParseError{Reason: "empty report"}
	}

	rep := model.Report{DateRange: strings.TrimSpace(lines[0]), Entries: []model.Entry{}}
	if len(lines) < 2 || lines[1] != "" {
		return model.Report{}, lineError(lines, 1, "expected a blank line after the date range")
	}

	i := 2
	for i < len(lines) {
		line := lines[i]
		switch {
		case line == "":
			i++

		case strings.HasPrefix(line, totalPrefix):
			if i != len(lines)-1 {
				return model.Report{}, lineError(lines, i+1, "unexpected content after the total line")
			}
			total, err := timecalc.ParseDuration(strings.TrimPrefix(line, totalPrefix))
			if err != nil {
				return model.Report{}, lineError(lines, i, err.Error())
			}
			rep.Total = total
			return rep, nil

		default:
			entry, next, err := parseEntry(lines, i)
			if err != nil {
				return model.Report{}, err
			}
			rep.Entries = append(rep.Entries, entry)
			i = next
		}
	}
	return model.Report{}, &ParseError{Reason: "missing \"Total:\" line"}
}

// parseEntry reads a project line at lines[i] and any tag lines under it. It
// returns the index of the first line after the entry.
func parseEntry(lines []string, i int) (model.Entry, int, error) {
	m := projectLine.FindStringSubmatch(lines[i])
	if m == nil {
		return model.Entry{}, 0, lineError(lines, i, "expected \"<project> - <duration>\"")
	}
	total, err := timecalc.ParseDuration(m[2])
	if err != nil {
		return model.Entry{}, 0, lineError(lines, i, err.Error())
	}
	entry := model.Entry{Project: m[1], Total: total}

	i++
	for i < len(lines) && strings.HasPrefix(lines[i], "\t[") {
		tag, err := parseTag(lines[i])
		if err != nil {
			return model.Entry{}, 0, lineError(lines, i, err.Error())
		}
		entry.Tags = append(entry.Tags, tag)
		i++
	}
	return entry, i, nil
}

// parseTag reads "\t[<name> <duration>]". The name may contain spaces; the
// duration is the longest run of trailing h/m/s components, leaving at least
// one field for the name.
func parseTag(line string) (model.Tag, error) {
	body, ok := strings.CutPrefix(line, "\t[")
	if !ok || !strings.HasSuffix(body, "]") {
		return model.Tag{}, fmt.Errorf("expected \"\\t[<tag> <duration>]\"")
	}
	body = strings.TrimSuffix(body, "]")

	fields := strings.Fields(body)
	split := len(fields)
	for split > 1 && len(fields)-split < 3 && timecalc.IsDurationComponent(fields[split-1]) {
		split--
	}
	if split == len(fields) {
		return model.Tag{}, fmt.Errorf("tag has no duration")
	}
	d, err := timecalc.ParseDuration(strings.Join(fields[split:], " "))
	if err != nil {
		return model.Tag{}, err
	}
	return model.Tag{Name: strings.Join(fields[:split], " "), Duration: d}, nil
}

func lineError(lines []string, i int, reason string) *ParseError {
	text := ""
	if i < len(lines) {
		text = lines[i]
	}
	return &ParseError{Line: i + 1, Text: text, Reason: reason}
}
