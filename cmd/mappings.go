package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/model"
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "List remembered project mappings",
	Args:  cobra.NoArgs,
	RunE:  runMappings,
}

var forgetCmd = &cobra.Command{
	Use:   "forget PROJECT...",
	Short: "Forget project mappings so the next run asks again",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runForget,
}

func runMappings(cmd *cobra.Command, args []string) error {
	c := loadCache(cachePath())
	writeMappings(cmd.OutOrStdout(), c.Mappings)
	return nil
}

func writeMappings(w io.Writer, mappings map[string]model.Mapping) {
	if len(mappings) == 0 {
		fmt.Fprintln(w, "No mappings yet.")
		return
	}
	projects := make([]string, 0, len(mappings))
	width := 0
	for p := range mappings {
		projects = append(projects, p)
		width = max(width, len(p))
	}
	sort.Strings(projects)
	for _, p := range projects {
		fmt.Fprintf(w, "%-*s  %s\n", width, p, mappings[p])
	}
}

func runForget(cmd *cobra.Command, args []string) error {
	path := cachePath()
	c, removed := forget(loadCache(path), args, cmd.OutOrStdout())
	if removed {
		if err := cache.Save(path, c); err != nil {
			exitRuntime(err)
		}
	}
	return nil
}

// forget removes the projects' mappings and reports whether any existed.
func forget(c cache.Cache, projects []string, w io.Writer) (cache.Cache, bool) {
	out := c.Clone()
	removed := false
	for _, p := range projects {
		m, ok := out.Mappings[p]
		if !ok {
			fmt.Fprintf(w, "No mapping for %s\n", p)
			continue
		}
		delete(out.Mappings, p)
		removed = true
		fmt.Fprintf(w, "Forgot %s (was %s)\n", p, m)
	}
	return out, removed
}
