package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/ticket"
)

var categoryCmd = &cobra.Command{
	Use:   "category TICKET [VALUE]",
	Short: "Always use a category for a ticket, or clear it",
	Long: `With VALUE, worklogs for TICKET get that category without asking.
Without VALUE, the override is removed and watsup asks again.
Known category values are listed when the catalog has been fetched.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCategory,
}

func runCategory(cmd *cobra.Command, args []string) error {
	value := ""
	if len(args) == 2 {
		value = args[1]
	}
	path := cachePath()
	c, err := setCategory(loadCache(path), args[0], value, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := cache.Save(path, c); err != nil {
		exitRuntime(err)
	}
	return nil
}

// setCategory sets or, for an empty value, clears a ticket's category
// override. A value missing from the catalog is kept but only used once the
// catalog contains it.
func setCategory(c cache.Cache, ticketID, value string, w io.Writer) (cache.Cache, error) {
	ticketID = strings.ToUpper(ticketID)
	if !ticket.IsTicket(ticketID) {
		return c, fmt.Errorf("%q is not a ticket id (e.g. PROJ-123)", ticketID)
	}

	out := c.Clone()
	if value == "" {
		delete(out.CategoryOverrides, ticketID)
		fmt.Fprintf(w, "Cleared category override for %s\n", ticketID)
		return out, nil
	}

	out.CategoryOverrides[ticketID] = value
	if o, ok := out.Catalog.Lookup(value); ok {
		fmt.Fprintf(w, "%s will be posted as %s\n", ticketID, o.Name)
		return out, nil
	}
	fmt.Fprintf(w, "%s will be posted as %s once that category is known\n", ticketID, value)
	if len(out.Catalog.Options) > 0 {
		fmt.Fprintln(w, "Known categories:")
		for _, o := range out.Catalog.Options {
			fmt.Fprintf(w, "  %s  %s\n", o.Value, o.Name)
		}
	}
	return out, nil
}
