package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/logging"
	"github.com/baffalop/watsup/internal/model"
	"github.com/baffalop/watsup/internal/processor"
	"github.com/baffalop/watsup/internal/prompt"
	"github.com/baffalop/watsup/internal/report"
	"github.com/baffalop/watsup/internal/tempo"
	"github.com/baffalop/watsup/internal/timecalc"
)

// item is a post decision with its chosen category attached.
type item struct {
	model.Decision
	Category string
}

// RunDay reconciles one day and returns the updated cache. On error the
// input cache is returned untouched, so nothing half-resolved gets saved.
// Skipping the day at the confirmation still keeps new mappings and
// categories.
func (p *Pipeline) RunDay(ctx context.Context, c cache.Cache, day time.Time) (cache.Cache, error) {
	date := day.Format(timecalc.DateLayout)
	text, err := p.Source.Report(ctx, day)
	if err != nil {
		return c, fmt.Errorf("reading report for %s: %w", date, err)
	}
	rep, err := report.Parse(text)
	if err != nil {
		return c, fmt.Errorf("report for %s: %w", date, err)
	}

	work := c.Clone()
	var decisions []model.Decision
	for _, e := range rep.Entries {
		ds, m, err := processor.ProcessEntry(e, work.Mapping(e.Project), p.Callbacks)
		if err != nil {
			return c, err
		}
		if m != nil {
			work.Mappings[e.Project] = *m
		}
		decisions = append(decisions, ds...)
	}

	var posts []item
	var skips []model.Decision
	for _, d := range decisions {
		if d.IsPost() {
			posts = append(posts, item{Decision: d})
		} else {
			skips = append(skips, d)
		}
	}

	if len(posts) > 0 {
		p.refreshAttributes(ctx, &work)
		if err := p.chooseCategories(&work, posts); err != nil {
			return c, err
		}
	}

	p.printSummary(date, posts, skips)
	if len(posts) == 0 {
		p.Terminal.Write("Nothing to post.\n")
		return work, nil
	}
	p.printPosts(work.Catalog, posts)
	if p.DryRun {
		p.Terminal.Write("Dry run, nothing posted.\n")
		return work, nil
	}

	ok, err := p.confirm()
	if err != nil {
		return c, err
	}
	if !ok {
		p.Terminal.Write("Skipped day.\n")
		return work, nil
	}

	if err := p.resolve(ctx, &work, posts); err != nil {
		return c, err
	}
	failures := p.post(ctx, work, date, posts)
	prompt.Printf(p.Terminal, "Posted %d/%d\n", len(posts)-len(failures), len(posts))
	return work, nil
}

func (p *Pipeline) printSummary(date string, posts []item, skips []model.Decision) {
	var toPost, skipped timecalc.Duration
	for _, it := range posts {
		toPost = toPost.Add(it.Duration)
	}
	for _, s := range skips {
		skipped = skipped.Add(s.Duration)
	}
	prompt.Printf(p.Terminal, "\n%s: %d to post (%s), %d skipped (%s)\n",
		date, len(posts), toPost, len(skips), skipped.Long())
	for _, s := range skips {
		prompt.Printf(p.Terminal, "  - %s (%s)\n", s.Project, s.Duration.Long())
	}
}

func (p *Pipeline) printPosts(catalog cache.CategoryCatalog, posts []item) {
	p.Terminal.Write("\n")
	for _, it := range posts {
		line := fmt.Sprintf("  %-12s %7s  %s", it.Ticket, it.Duration, it.Source)
		if it.Description != "" {
			line += fmt.Sprintf("  %q", it.Description)
		}
		if it.Category != "" {
			name := it.Category
			if o, ok := catalog.Lookup(it.Category); ok {
				name = o.Name
			}
			line += "  [" + name + "]"
		}
		p.Terminal.Write(line + "\n")
	}
}

func (p *Pipeline) confirm() (bool, error) {
	for {
		ans, err := prompt.Ask(p.Terminal, "[Enter] post | [n] skip day: ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(ans) {
		case "":
			return true, nil
		case "n":
			return false, nil
		}
		p.Terminal.Write("  press Enter to post or n to skip the day\n")
	}
}

// resolve fills in the author id, issue ids and account keys the posts need.
// Only the account key lookup may fail without aborting.
func (p *Pipeline) resolve(ctx context.Context, work *cache.Cache, posts []item) error {
	if work.Credentials.AccountID == "" {
		id, err := p.Tracker.CurrentUserID(ctx)
		if err != nil {
			return &LookupError{Err: err}
		}
		work.Credentials.AccountID = id
	}

	seen := map[string]bool{}
	for _, it := range posts {
		t := it.Ticket
		if seen[t] {
			continue
		}
		seen[t] = true

		_, hasID := work.IssueIDs[t]
		_, hasKey := work.AccountKeys[t]
		if hasID && hasKey {
			continue
		}

		issue, err := p.Tracker.Issue(ctx, t)
		if err != nil {
			return &LookupError{Ticket: t, Err: err}
		}
		work.IssueIDs[t] = issue.ID
		if issue.AccountRef == "" {
			continue
		}
		key, err := p.Logger.AccountKey(ctx, issue.AccountRef)
		if err != nil {
			logging.Log.Warnf("%s: resolving account %s failed, posting without an account: %v", t, issue.AccountRef, err)
			continue
		}
		work.AccountKeys[t] = key
	}
	return nil
}

// post submits every worklog in order. A rejected worklog is reported and
// the rest still go out.
func (p *Pipeline) post(ctx context.Context, work cache.Cache, date string, posts []item) []Failure {
	var failures []Failure
	for _, it := range posts {
		w := tempo.Worklog{
			IssueID:          work.IssueIDs[it.Ticket],
			AuthorAccountID:  work.Credentials.AccountID,
			TimeSpentSeconds: it.Duration.Seconds(),
			StartDate:        date,
			StartTime:        p.StartTime,
			Description:      it.Description,
		}
		if key, ok := work.AccountKeys[it.Ticket]; ok && work.Attributes.Account != "" {
			w.Attributes = append(w.Attributes, tempo.AttributeValue{Key: work.Attributes.Account, Value: key})
		}
		if it.Category != "" {
			w.Attributes = append(w.Attributes, tempo.AttributeValue{Key: work.Attributes.Category, Value: it.Category})
		}

		res, err := p.Logger.PostWorklog(ctx, w)
		var f *Failure
		switch {
		case err != nil:
			f = &Failure{Ticket: it.Ticket, Body: err.Error()}
		case !res.OK():
			f = &Failure{Ticket: it.Ticket, Status: res.StatusCode, Body: strings.TrimSpace(res.Body)}
		}
		if f != nil {
			prompt.Printf(p.Terminal, "  ! %s\n", f)
			failures = append(failures, *f)
			continue
		}
		prompt.Printf(p.Terminal, "  ✓ %s OK\n", it.Ticket)
	}
	return failures
}
