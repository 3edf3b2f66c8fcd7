package pipeline

import (
	"strings"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/prompt"
)

// EnsureCredentials asks for any missing credential. The flag reports whether
// the returned cache differs from c and should be saved.
func EnsureCredentials(t prompt.Terminal, c cache.Cache) (cache.Cache, bool, error) {
	if c.Credentials.Complete() {
		return c, false, nil
	}

	out := c.Clone()
	cr := &out.Credentials
	t.Write("Some credentials are missing. They are kept in the watsup cache file.\n")
	fields := []struct {
		dst      *string
		question string
		secret   bool
	}{
		{&cr.JiraURL, "Jira URL (e.g. https://acme.atlassian.net): ", false},
		{&cr.JiraEmail, "Jira email: ", false},
		{&cr.JiraToken, "Jira API token: ", true},
		{&cr.TempoToken, "Tempo API token: ", true},
	}
	for _, f := range fields {
		if *f.dst != "" {
			continue
		}
		v, err := prompt.AskRequired(t, f.question, f.secret)
		if err != nil {
			return c, false, err
		}
		*f.dst = v
	}
	cr.JiraURL = normalizeURL(cr.JiraURL)
	return out, true, nil
}

func normalizeURL(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	return u
}
