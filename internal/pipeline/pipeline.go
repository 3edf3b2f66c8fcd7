// Package pipeline runs the per-day reconciliation: read the report, decide
// what to post, resolve remote identifiers and post worklogs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/httpclient"
	"github.com/baffalop/watsup/internal/jira"
	"github.com/baffalop/watsup/internal/processor"
	"github.com/baffalop/watsup/internal/prompt"
	"github.com/baffalop/watsup/internal/report"
	"github.com/baffalop/watsup/internal/tempo"
)

// IssueTracker resolves tickets to remote issue metadata.
type IssueTracker interface {
	Issue(ctx context.Context, key string) (jira.Issue, error)
	CurrentUserID(ctx context.Context) (string, error)
}

// TimeLogger is the service worklogs are posted to.
type TimeLogger interface {
	WorkAttributes(ctx context.Context) ([]tempo.Attribute, error)
	AttributeValues(ctx context.Context, key string) ([]cache.CategoryOption, error)
	AccountKey(ctx context.Context, ref string) (string, error)
	PostWorklog(ctx context.Context, w tempo.Worklog) (httpclient.Response, error)
}

// LookupError means a ticket's issue id could not be resolved. It aborts the
// run. An empty Ticket refers to the current user lookup.
type LookupError struct {
	Ticket string
	Err    error
}

func (e *LookupError) Error() string {
	if e.Ticket == "" {
		return fmt.Sprintf("looking up current user: %v", e.Err)
	}
	return fmt.Sprintf("looking up %s: %v", e.Ticket, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Failure records a worklog the service did not accept. Status is zero when
// the request never got a response.
type Failure struct {
	Ticket string
	Status int
	Body   string
}

func (f Failure) String() string {
	if f.Status == 0 {
		return fmt.Sprintf("%s FAILED: %s", f.Ticket, f.Body)
	}
	return fmt.Sprintf("%s FAILED (%d): %s", f.Ticket, f.Status, f.Body)
}

// Pipeline holds the collaborators and settings shared by every day of a run.
type Pipeline struct {
	Source    report.Source
	Terminal  prompt.Terminal
	Tracker   IssueTracker
	Logger    TimeLogger
	Callbacks processor.Callbacks

	// StartTime is the clock time every worklog starts at, "15:04:05".
	StartTime   string
	CategoryTTL time.Duration
	// DryRun stops each day after the summary.
	DryRun bool
	Now    func() time.Time

	refreshed bool
}

// Run processes days in order, handing the cache to save after each one.
// A day that is skipped or partially fails does not stop the run.
func (p *Pipeline) Run(ctx context.Context, c cache.Cache, days []time.Time, save func(cache.Cache) error) error {
	for _, day := range days {
		if len(days) > 1 {
			prompt.Printf(p.Terminal, "\n=== %s ===\n", day.Format("Mon 2006-01-02"))
		}
		next, err := p.RunDay(ctx, c, day)
		if err != nil {
			return err
		}
		if err := save(next); err != nil {
			return fmt.Errorf("saving cache: %w", err)
		}
		c = next
	}
	return nil
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
