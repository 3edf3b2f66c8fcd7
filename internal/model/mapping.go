package model

import (
	"fmt"

	"github.com/baffalop/watsup/internal/ticket"
)

// MappingKind selects how a project's entries are resolved.
type MappingKind int

const (
	// MappingTicket always resolves the project to a fixed ticket.
	MappingTicket MappingKind = iota
	// MappingSkip never posts the project.
	MappingSkip
	// MappingAutoExtract posts one worklog per ticket-shaped tag.
	MappingAutoExtract
)

const (
	skipText        = "skip"
	autoExtractText = "auto-extract"
)

// Mapping is the persisted per-project policy.
type Mapping struct {
	Kind   MappingKind
	Ticket string
}

func TicketMapping(id string) Mapping { return Mapping{Kind: MappingTicket, Ticket: id} }
func SkipMapping() Mapping            { return Mapping{Kind: MappingSkip} }
func AutoExtractMapping() Mapping     { return Mapping{Kind: MappingAutoExtract} }

func (m Mapping) String() string {
	switch m.Kind {
	case MappingSkip:
		return skipText
	case MappingAutoExtract:
		return autoExtractText
	default:
		return m.Ticket
	}
}

// MarshalText encodes the mapping as "skip", "auto-extract" or the ticket id.
func (m Mapping) MarshalText() ([]byte, error) {
	if m.Kind == MappingTicket && !ticket.IsTicket(m.Ticket) {
		return nil, fmt.Errorf("mapping to invalid ticket %q", m.Ticket)
	}
	return []byte(m.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (m *Mapping) UnmarshalText(b []byte) error {
	s := string(b)
	switch {
	case s == skipText:
		*m = SkipMapping()
	case s == autoExtractText:
		*m = AutoExtractMapping()
	case ticket.IsTicket(s):
		*m = TicketMapping(s)
	default:
		return fmt.Errorf("invalid mapping %q: want %q, %q or a ticket id", s, skipText, autoExtractText)
	}
	return nil
}
