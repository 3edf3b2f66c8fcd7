// Package processor turns one report entry into posting decisions.
//
// ProcessEntry is pure: every interaction with the user is injected as a
// callback, so the decision rules can be exercised without a terminal.
package processor

import (
	"fmt"

	"github.com/baffalop/watsup/internal/model"
	"github.com/baffalop/watsup/internal/ticket"
)

// Action is the user's answer for an unmapped project.
type Action int

const (
	// Accept maps the project to Choice.Ticket from now on.
	Accept Action = iota
	// SkipOnce ignores the entry this time only.
	SkipOnce
	// SkipAlways ignores the project on every run.
	SkipAlways
	// Split asks for a ticket per tag.
	Split
)

// Choice is the answer to EntryPrompt.
type Choice struct {
	Action Action
	Ticket string
}

// TagChoice is the answer to TagPrompt. A zero TagChoice skips the tag.
type TagChoice struct {
	Accept bool
	Ticket string
}

type (
	// EntryPrompt asks how to handle an unmapped entry.
	EntryPrompt func(model.Entry) (Choice, error)
	// TagPrompt asks which ticket a tag goes to during a split.
	TagPrompt func(model.Entry, model.Tag) (TagChoice, error)
	// Describe asks for an optional worklog description.
	Describe func(ticket, source string) (string, error)
)

// Callbacks bundles the interactive behaviours ProcessEntry relies on.
type Callbacks struct {
	Prompt    EntryPrompt
	TagPrompt TagPrompt
	Describe  Describe
}

// ProcessEntry decides what to post for entry given the project's cached
// mapping (nil when there is none). The returned mapping, when non-nil, must
// be stored for entry.Project. Errors only come from the callbacks.
func ProcessEntry(entry model.Entry, cached *model.Mapping, cb Callbacks) ([]model.Decision, *model.Mapping, error) {
	if cached != nil {
		decisions, err := applyMapping(entry, *cached, cb)
		return decisions, nil, err
	}

	choice, err := cb.Prompt(entry)
	if err != nil {
		return nil, nil, err
	}

	switch choice.Action {
	case Accept:
		if !ticket.IsTicket(choice.Ticket) {
			return nil, nil, fmt.Errorf("project %s: %q is not a ticket id", entry.Project, choice.Ticket)
		}
		m := model.TicketMapping(choice.Ticket)
		d, err := postWhole(entry, choice.Ticket, cb.Describe)
		if err != nil {
			return nil, nil, err
		}
		return []model.Decision{d}, &m, nil

	case SkipOnce:
		return nil, nil, nil

	case SkipAlways:
		m := model.SkipMapping()
		return []model.Decision{model.Skip(entry.Project, entry.Total)}, &m, nil

	case Split:
		return split(entry, cb)

	default:
		return nil, nil, fmt.Errorf("project %s: unknown action %d", entry.Project, choice.Action)
	}
}

func applyMapping(entry model.Entry, m model.Mapping, cb Callbacks) ([]model.Decision, error) {
	switch m.Kind {
	case model.MappingSkip:
		return []model.Decision{model.Skip(entry.Project, entry.Total)}, nil

	case model.MappingTicket:
		d, err := postWhole(entry, m.Ticket, cb.Describe)
		if err != nil {
			return nil, err
		}
		return []model.Decision{d}, nil

	case model.MappingAutoExtract:
		var out []model.Decision
		for _, tag := range entry.Tags {
			if ticket.IsTicket(tag.Name) {
				out = append(out, model.Post(tag.Name, tagSource(entry, tag), "", tag.Duration))
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("project %s: unknown mapping kind %d", entry.Project, m.Kind)
	}
}

func postWhole(entry model.Entry, ticketID string, describe Describe) (model.Decision, error) {
	desc, err := describe(ticketID, entry.Project)
	if err != nil {
		return model.Decision{}, err
	}
	return model.Post(ticketID, entry.Project, desc, entry.Total), nil
}

// split asks for every tag in turn. When every tag name is ticket-shaped,
// whatever the user answered, the project is switched to auto-extract so
// that next time the same outcome happens without prompting.
func split(entry model.Entry, cb Callbacks) ([]model.Decision, *model.Mapping, error) {
	var out []model.Decision
	allTickets := len(entry.Tags) > 0 && len(ticket.Extract(entry.TagNames())) == len(entry.Tags)

	for _, tag := range entry.Tags {
		choice, err := cb.TagPrompt(entry, tag)
		if err != nil {
			return nil, nil, err
		}
		if !choice.Accept {
			continue
		}
		if !ticket.IsTicket(choice.Ticket) {
			return nil, nil, fmt.Errorf("tag %s: %q is not a ticket id", tag.Name, choice.Ticket)
		}
		source := tagSource(entry, tag)
		desc, err := cb.Describe(choice.Ticket, source)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, model.Post(choice.Ticket, source, desc, tag.Duration))
	}

	if allTickets {
		m := model.AutoExtractMapping()
		return out, &m, nil
	}
	return out, nil, nil
}

func tagSource(entry model.Entry, tag model.Tag) string {
	return entry.Project + " [" + tag.Name + "]"
}
