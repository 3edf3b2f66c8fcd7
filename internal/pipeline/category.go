package pipeline

import (
	"context"
	"strconv"
	"strings"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/logging"
	"github.com/baffalop/watsup/internal/prompt"
	"github.com/baffalop/watsup/internal/tempo"
)

// refreshAttributes discovers the work attribute keys and refetches a stale
// category catalog. It runs at most once per run and only warns on failure.
func (p *Pipeline) refreshAttributes(ctx context.Context, work *cache.Cache) {
	if p.refreshed {
		return
	}
	keysMissing := work.Attributes.Account == "" || work.Attributes.Category == ""
	stale := work.Catalog.Stale(p.now(), p.CategoryTTL)
	if !keysMissing && !stale {
		return
	}
	p.refreshed = true

	if keysMissing {
		attrs, err := p.Logger.WorkAttributes(ctx)
		if err != nil {
			logging.Log.Warnf("fetching work attributes failed: %v", err)
		} else {
			work.Attributes.Account = tempo.AccountAttribute(attrs)
			work.Attributes.Category = tempo.CategoryAttribute(attrs)
			logging.Log.Debugf("work attributes: account=%q category=%q", work.Attributes.Account, work.Attributes.Category)
			if work.Attributes.Category == "" {
				work.Catalog = cache.CategoryCatalog{}
				return
			}
		}
	}
	if work.Attributes.Category == "" || !stale {
		return
	}

	opts, err := p.Logger.AttributeValues(ctx, work.Attributes.Category)
	if err != nil {
		logging.Log.Warnf("fetching categories failed: %v", err)
		return
	}
	work.Catalog = cache.CategoryCatalog{FetchedAt: p.now(), Options: opts}
}

// chooseCategories attaches a category to every post when a catalog is
// available. A ticket appearing twice in a day is only asked about once.
func (p *Pipeline) chooseCategories(work *cache.Cache, posts []item) error {
	if len(work.Catalog.Options) == 0 || work.Attributes.Category == "" {
		return nil
	}
	chosen := map[string]string{}
	for i := range posts {
		t := posts[i].Ticket
		v, ok := chosen[t]
		if !ok {
			var err error
			if v, err = p.category(work, t); err != nil {
				return err
			}
			chosen[t] = v
		}
		posts[i].Category = v
	}
	return nil
}

func (p *Pipeline) category(work *cache.Cache, ticketID string) (string, error) {
	catalog := work.Catalog
	if o, ok := work.CategoryOverrides[ticketID]; ok {
		if _, found := catalog.Lookup(o); found {
			return o, nil
		}
		logging.Log.Warnf("category override %q for %s is not a known category, ignoring it", o, ticketID)
	}

	last, hasLast := catalog.Lookup(work.Categories[ticketID])
	prompt.Printf(p.Terminal, "  Category for %s:\n", ticketID)
	for i, o := range catalog.Options {
		prompt.Printf(p.Terminal, "    %d) %s\n", i+1, o.Name)
	}
	question := "  Choose [1-" + strconv.Itoa(len(catalog.Options)) + "] (Enter = none): "
	if hasLast {
		question = "  Choose [1-" + strconv.Itoa(len(catalog.Options)) + "] (Enter = " + last.Name + "): "
	}

	for {
		ans, err := prompt.Ask(p.Terminal, question)
		if err != nil {
			return "", err
		}
		if ans == "" {
			return last.Value, nil
		}
		if v, ok := pick(catalog, ans); ok {
			work.Categories[ticketID] = v
			return v, nil
		}
		prompt.Printf(p.Terminal, "  %q is not one of the listed categories\n", ans)
	}
}

// pick matches an answer by list number, value or display name.
func pick(catalog cache.CategoryCatalog, ans string) (string, bool) {
	if n, err := strconv.Atoi(ans); err == nil {
		if n >= 1 && n <= len(catalog.Options) {
			return catalog.Options[n-1].Value, true
		}
		return "", false
	}
	for _, o := range catalog.Options {
		if strings.EqualFold(o.Value, ans) || strings.EqualFold(o.Name, ans) {
			return o.Value, true
		}
	}
	return "", false
}
