package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/baffalop/watsup/internal/logging"
)

// Config holds user settings, stored in ~/.watsup/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	Report ReportConfig `json:"report"`
	Jira   JiraConfig   `json:"jira"`
	Tempo  TempoConfig  `json:"tempo"`
	HTTP   HTTPConfig   `json:"http"`
}

// ReportConfig describes how to invoke the time tracker.
type ReportConfig struct {
	// Command is the tracker executable.
	Command string `json:"command"`
	// Args precede the --from/--to arguments.
	Args []string `json:"args"`
}

// JiraConfig holds issue-tracker settings.
type JiraConfig struct {
	// AccountField is the issue field carrying the account reference.
	AccountField string `json:"account_field"`
}

// TempoConfig holds time-logging service settings.
type TempoConfig struct {
	BaseURL string `json:"base_url"`
	// StartTime is the time of day given to every posted worklog.
	StartTime string `json:"start_time"`
	// CategoryTTLHours is how long a fetched category catalog is trusted.
	CategoryTTLHours int `json:"category_ttl_hours"`
}

// HTTPConfig tunes the remote clients.
type HTTPConfig struct {
	RetryMax          int     `json:"retry_max"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

const (
	DefaultReportCommand    = "watson"
	DefaultAccountField     = "io.tempo.jira__account"
	DefaultTempoBaseURL     = "https://api.tempo.io/4"
	DefaultStartTime        = "09:00:00"
	DefaultCategoryTTLHours = 168
	DefaultRetryMax         = 3
	DefaultRequestsPerSec   = 5
)

// DefaultReportArgs are passed to the tracker before --from and --to.
var DefaultReportArgs = []string{"report", "--no-pager", "--no-color"}

// Default returns a Config pre-filled with sensible defaults.
func Default() Config {
	var cfg Config
	cfg.fillDefaults()
	return cfg
}

// CategoryTTL returns the catalog lifetime as a duration.
func (c Config) CategoryTTL() time.Duration {
	return time.Duration(c.Tempo.CategoryTTLHours) * time.Hour
}

// fillDefaults replaces zero-valued fields with built-in defaults so callers
// always get a usable Config even if the user only partially fills in the file.
func (c *Config) fillDefaults() {
	if c.Report.Command == "" {
		c.Report.Command = DefaultReportCommand
	}
	if c.Report.Args == nil {
		c.Report.Args = append([]string{}, DefaultReportArgs...)
	}
	if c.Jira.AccountField == "" {
		c.Jira.AccountField = DefaultAccountField
	}
	if c.Tempo.BaseURL == "" {
		c.Tempo.BaseURL = DefaultTempoBaseURL
	}
	if c.Tempo.StartTime == "" {
		c.Tempo.StartTime = DefaultStartTime
	}
	if c.Tempo.CategoryTTLHours <= 0 {
		c.Tempo.CategoryTTLHours = DefaultCategoryTTLHours
	}
	if c.HTTP.RetryMax <= 0 {
		c.HTTP.RetryMax = DefaultRetryMax
	}
	if c.HTTP.RequestsPerSecond <= 0 {
		c.HTTP.RequestsPerSecond = DefaultRequestsPerSec
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// watsup configuration – ~/.watsup/config.json
//
// All settings are optional; the built-in defaults shown below work for a
// standard watson + Jira Cloud + Tempo setup. Credentials are not kept here:
// they are asked for on first run and stored in ~/.watsup/cache.toml.
{
  // ── Time tracker ──────────────────────────────────────────────────────────
  "report": {
    // Executable that prints the day report.
    "command": "watson",
    // Arguments placed before --from <date> --to <date>.
    "args": ["report", "--no-pager", "--no-color"]
  },

  // ── Jira ──────────────────────────────────────────────────────────────────
  "jira": {
    // Issue field holding the Tempo account linked to an issue.
    "account_field": "io.tempo.jira__account"
  },

  // ── Tempo ─────────────────────────────────────────────────────────────────
  "tempo": {
    "base_url": "https://api.tempo.io/4",
    // Start time given to every posted worklog.
    "start_time": "09:00:00",
    // Hours before the category list is fetched again.
    "category_ttl_hours": 168
  },

  // ── HTTP ──────────────────────────────────────────────────────────────────
  "http": {
    // Retries for lookups. Worklog posts are never retried.
    "retry_max": 3,
    "requests_per_second": 5
  }
}
`

// Dir returns the watsup data directory (~/.watsup).
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".watsup"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads the config at path, creating it with annotated defaults on first
// run. Lines starting with // are treated as comments and stripped before
// JSON parsing.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			logging.Log.Warnf("could not create config file %s: %v", path, writeErr)
		}
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
