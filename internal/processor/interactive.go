package processor

import (
	"strings"

	"github.com/baffalop/watsup/internal/model"
	"github.com/baffalop/watsup/internal/prompt"
	"github.com/baffalop/watsup/internal/ticket"
)

// Interactive returns Callbacks that ask on t.
func Interactive(t prompt.Terminal) Callbacks {
	return Callbacks{
		Prompt:    func(e model.Entry) (Choice, error) { return askEntry(t, e) },
		TagPrompt: func(e model.Entry, tag model.Tag) (TagChoice, error) { return askTag(t, tag) },
		Describe: func(ticketID, source string) (string, error) {
			return prompt.Ask(t, "  Description for "+ticketID+" (optional): ")
		},
	}
}

func askEntry(t prompt.Terminal, e model.Entry) (Choice, error) {
	prompt.Printf(t, "\n%s  %s (rounded %s)\n", e.Project, e.Total.Long(), e.Total.Round5Min())
	for _, tag := range e.Tags {
		prompt.Printf(t, "\t[%s %s]\n", tag.Name, tag.Duration.Long())
	}

	question := "Ticket, [s] skip once, [S] skip always"
	if len(e.Tags) > 0 {
		question += ", [t] split by tags"
	}
	question += " (Enter = skip once): "

	for {
		ans, err := prompt.Ask(t, question)
		if err != nil {
			return Choice{}, err
		}
		switch ans {
		case "", "s":
			return Choice{Action: SkipOnce}, nil
		case "S":
			return Choice{Action: SkipAlways}, nil
		case "t":
			if len(e.Tags) > 0 {
				return Choice{Action: Split}, nil
			}
		}
		if id := strings.ToUpper(ans); ticket.IsTicket(id) {
			return Choice{Action: Accept, Ticket: id}, nil
		}
		prompt.Printf(t, "  %q is not a ticket id (e.g. PROJ-123)\n", ans)
	}
}

func askTag(t prompt.Terminal, tag model.Tag) (TagChoice, error) {
	shaped := ticket.IsTicket(tag.Name)
	question := "  [" + tag.Name + " " + tag.Duration.Long() + "] ticket ([s] skip, Enter = skip): "
	if shaped {
		question = "  [" + tag.Name + " " + tag.Duration.Long() + "] ticket ([s] skip, Enter = " + tag.Name + "): "
	}

	for {
		ans, err := prompt.Ask(t, question)
		if err != nil {
			return TagChoice{}, err
		}
		switch {
		case ans == "" && shaped:
			return TagChoice{Accept: true, Ticket: tag.Name}, nil
		case ans == "" || ans == "s":
			return TagChoice{}, nil
		}
		if id := strings.ToUpper(ans); ticket.IsTicket(id) {
			return TagChoice{Accept: true, Ticket: id}, nil
		}
		prompt.Printf(t, "  %q is not a ticket id (e.g. PROJ-123)\n", ans)
	}
}
