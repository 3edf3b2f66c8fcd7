package model

import "github.com/baffalop/watsup/internal/timecalc"

// DecisionKind distinguishes posts from skips.
type DecisionKind int

const (
	DecisionPost DecisionKind = iota
	DecisionSkip
)

// Decision is the resolved intent for one entry or one of its tags. Post
// decisions carry an already rounded duration and no remote identifiers.
type Decision struct {
	Kind        DecisionKind
	Ticket      string
	Project     string
	Source      string
	Description string
	Duration    timecalc.Duration
}

// Post builds a post decision, rounding d to five minutes.
func Post(ticketID, source, description string, d timecalc.Duration) Decision {
	return Decision{
		Kind:        DecisionPost,
		Ticket:      ticketID,
		Source:      source,
		Description: description,
		Duration:    d.Round5Min(),
	}
}

// Skip builds a skip decision for a whole project.
func Skip(project string, d timecalc.Duration) Decision {
	return Decision{Kind: DecisionSkip, Project: project, Source: project, Duration: d}
}

func (d Decision) IsPost() bool { return d.Kind == DecisionPost }
