package cache_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/model"
)

func TestLoadNotExist(t *testing.T) {
	c, err := cache.Load(filepath.Join(t.TempDir(), "cache.toml"))
	if err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if c.Mappings == nil || c.IssueIDs == nil || c.AccountKeys == nil || c.Categories == nil || c.CategoryOverrides == nil {
		t.Error("Load on missing file left a nil table")
	}
	if c.Mapping("anything") != nil {
		t.Error("empty cache returned a mapping")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.toml")
	fetched := time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)

	c := cache.New()
	c.Credentials = cache.Credentials{JiraURL: "https://acme.atlassian.net", JiraEmail: "me@acme.test", JiraToken: "j", TempoToken: "t", AccountID: "acc-1"}
	c.Mappings["architecture"] = model.TicketMapping("PROJ-123")
	c.Mappings["breaks"] = model.SkipMapping()
	c.Mappings["cr"] = model.AutoExtractMapping()
	c.IssueIDs["PROJ-123"] = 10042
	c.AccountKeys["PROJ-123"] = "ACME-DEV"
	c.Categories["PROJ-123"] = "dev"
	c.CategoryOverrides["FK-1"] = "meet"
	c.Attributes = cache.AttributeKeys{Account: "_Account_", Category: "_Category_"}
	c.Catalog = cache.CategoryCatalog{FetchedAt: fetched, Options: []cache.CategoryOption{{Value: "dev", Name: "Development"}}}

	if err := cache.Save(path, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after Save")
	}

	got, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if got.Credentials != c.Credentials {
		t.Errorf("Credentials = %+v, want %+v", got.Credentials, c.Credentials)
	}
	if m := got.Mapping("architecture"); m == nil || *m != model.TicketMapping("PROJ-123") {
		t.Errorf("architecture mapping = %v", m)
	}
	if m := got.Mapping("breaks"); m == nil || m.Kind != model.MappingSkip {
		t.Errorf("breaks mapping = %v", m)
	}
	if m := got.Mapping("cr"); m == nil || m.Kind != model.MappingAutoExtract {
		t.Errorf("cr mapping = %v", m)
	}
	if got.IssueIDs["PROJ-123"] != 10042 || got.AccountKeys["PROJ-123"] != "ACME-DEV" {
		t.Errorf("resolved ids = %v / %v", got.IssueIDs, got.AccountKeys)
	}
	if got.Categories["PROJ-123"] != "dev" || got.CategoryOverrides["FK-1"] != "meet" {
		t.Errorf("categories = %v / %v", got.Categories, got.CategoryOverrides)
	}
	if got.Attributes != c.Attributes {
		t.Errorf("Attributes = %+v", got.Attributes)
	}
	if !got.Catalog.FetchedAt.Equal(fetched) || len(got.Catalog.Options) != 1 {
		t.Errorf("Catalog = %+v", got.Catalog)
	}
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.toml")
	data := `
[mappings]
cr = "auto-extract"

[some_future_table]
x = 1
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load partial file: %v", err)
	}
	if m := c.Mapping("cr"); m == nil || m.Kind != model.MappingAutoExtract {
		t.Errorf("cr mapping = %v", m)
	}
	if c.IssueIDs == nil || c.Credentials.Complete() {
		t.Errorf("absent fields did not load as defaults: %+v", c)
	}
}

func TestLoadCorrupt(t *testing.T) {
	tests := map[string]string{
		"syntax":      "[mappings\ncr = ",
		"bad mapping": "[mappings]\ncr = \"sometimes\"\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.toml")
			if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := cache.Load(path)
			var cerr *cache.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("Load error = %v, want *ConfigError", err)
			}
			if !strings.Contains(err.Error(), path) {
				t.Errorf("error %q does not name the file", err)
			}
			// The file is left in place for the user to fix.
			if _, err := os.Stat(path); err != nil {
				t.Errorf("corrupt cache file was moved: %v", err)
			}
		})
	}
}

func TestClone(t *testing.T) {
	c := cache.New()
	c.Mappings["a"] = model.SkipMapping()
	c.Catalog.Options = []cache.CategoryOption{{Value: "v"}}

	cl := c.Clone()
	cl.Mappings["b"] = model.AutoExtractMapping()
	cl.IssueIDs["X-1"] = 1
	cl.Catalog.Options[0].Value = "changed"

	if len(c.Mappings) != 1 || len(c.IssueIDs) != 0 {
		t.Error("Clone shares tables with the original")
	}
	if c.Catalog.Options[0].Value != "v" {
		t.Error("Clone shares catalog options with the original")
	}
}

func TestCatalogStale(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	empty := cache.CategoryCatalog{FetchedAt: now}
	if !empty.Stale(now, time.Hour) {
		t.Error("empty catalog is not stale")
	}
	fresh := cache.CategoryCatalog{FetchedAt: now.Add(-time.Hour), Options: []cache.CategoryOption{{Value: "v"}}}
	if fresh.Stale(now, 2*time.Hour) {
		t.Error("fresh catalog is stale")
	}
	if !fresh.Stale(now, 30*time.Minute) {
		t.Error("old catalog is not stale")
	}
	if o, ok := fresh.Lookup("v"); !ok || o.Value != "v" {
		t.Error("Lookup missed an existing value")
	}
	if _, ok := fresh.Lookup("w"); ok {
		t.Error("Lookup found a missing value")
	}
}
