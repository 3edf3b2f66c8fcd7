// Package cache persists project mappings, credentials and the remote
// identifiers resolved on earlier runs.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/baffalop/watsup/internal/model"
)

// Credentials for the issue tracker and the time-logging service.
type Credentials struct {
	JiraURL    string `toml:"jira_url"`
	JiraEmail  string `toml:"jira_email"`
	JiraToken  string `toml:"jira_token"`
	TempoToken string `toml:"tempo_token"`
	// AccountID is the current user's issue-tracker account, fetched once.
	AccountID string `toml:"account_id"`
}

// Complete reports whether every prompted credential is present.
func (c Credentials) Complete() bool {
	return c.JiraURL != "" && c.JiraEmail != "" && c.JiraToken != "" && c.TempoToken != ""
}

// AttributeKeys are the discovered work-attribute keys.
type AttributeKeys struct {
	Account  string `toml:"account"`
	Category string `toml:"category"`
}

// CategoryOption is one entry in the category catalog.
type CategoryOption struct {
	Value string `toml:"value"`
	Name  string `toml:"name"`
}

// CategoryCatalog is the fetched list of category values.
type CategoryCatalog struct {
	FetchedAt time.Time        `toml:"fetched_at"`
	Options   []CategoryOption `toml:"options"`
}

// Lookup returns the option with the given value.
func (c CategoryCatalog) Lookup(value string) (CategoryOption, bool) {
	for _, o := range c.Options {
		if o.Value == value {
			return o, true
		}
	}
	return CategoryOption{}, false
}

// Stale reports whether the catalog is empty or older than ttl at now.
func (c CategoryCatalog) Stale(now time.Time, ttl time.Duration) bool {
	return len(c.Options) == 0 || now.Sub(c.FetchedAt) > ttl
}

// Cache is everything persisted between runs. Every field is optional in the
// file; absent tables load as empty.
type Cache struct {
	Credentials       Credentials              `toml:"credentials"`
	Mappings          map[string]model.Mapping `toml:"mappings"`
	IssueIDs          map[string]int64         `toml:"issue_ids"`
	AccountKeys       map[string]string        `toml:"account_keys"`
	Categories        map[string]string        `toml:"categories"`
	CategoryOverrides map[string]string        `toml:"category_overrides"`
	Attributes        AttributeKeys            `toml:"attributes"`
	Catalog           CategoryCatalog          `toml:"category_catalog"`
}

// New returns an empty cache with all tables allocated.
func New() Cache {
	var c Cache
	c.ensure()
	return c
}

func (c *Cache) ensure() {
	if c.Mappings == nil {
		c.Mappings = map[string]model.Mapping{}
	}
	if c.IssueIDs == nil {
		c.IssueIDs = map[string]int64{}
	}
	if c.AccountKeys == nil {
		c.AccountKeys = map[string]string{}
	}
	if c.Categories == nil {
		c.Categories = map[string]string{}
	}
	if c.CategoryOverrides == nil {
		c.CategoryOverrides = map[string]string{}
	}
}

// Clone returns a deep copy, so a stage can work on its own value and hand it
// back only when it succeeds.
func (c Cache) Clone() Cache {
	out := c
	out.Mappings = cloneMap(c.Mappings)
	out.IssueIDs = cloneMap(c.IssueIDs)
	out.AccountKeys = cloneMap(c.AccountKeys)
	out.Categories = cloneMap(c.Categories)
	out.CategoryOverrides = cloneMap(c.CategoryOverrides)
	out.Catalog.Options = append([]CategoryOption(nil), c.Catalog.Options...)
	out.ensure()
	return out
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Mapping returns the project's mapping, or nil when none is stored.
func (c Cache) Mapping(project string) *model.Mapping {
	m, ok := c.Mappings[project]
	if !ok {
		return nil
	}
	return &m
}

// ConfigError means the cache file exists but cannot be used. It is fatal:
// resetting the cache would lose mappings and risk duplicate postings.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cache file %s is unusable (fix or delete it): %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads the cache at path. A missing file yields an empty cache.
func Load(path string) (Cache, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return Cache{}, &ConfigError{Path: path, Err: err}
	}

	var c Cache
	if _, err := toml.Decode(string(data), &c); err != nil {
		return Cache{}, &ConfigError{Path: path, Err: err}
	}
	c.ensure()
	return c, nil
}

// Save atomically overwrites the cache file at path.
func Save(path string, c Cache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("cache error creating directories: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("cache error encoding TOML: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("cache error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("cache error renaming temp file: %w", err)
	}
	return nil
}
