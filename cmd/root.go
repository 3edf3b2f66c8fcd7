package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/baffalop/watsup/internal/cache"
	"github.com/baffalop/watsup/internal/config"
	"github.com/baffalop/watsup/internal/jira"
	"github.com/baffalop/watsup/internal/logging"
	"github.com/baffalop/watsup/internal/pipeline"
	"github.com/baffalop/watsup/internal/processor"
	"github.com/baffalop/watsup/internal/prompt"
	"github.com/baffalop/watsup/internal/report"
	"github.com/baffalop/watsup/internal/tempo"
	"github.com/baffalop/watsup/internal/timecalc"
)

var (
	fromFlag   string
	toFlag     string
	offsetFlag int
	dryRun     bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "watsup [DATE | -N]",
	Short: "Post watson time to Jira as Tempo worklogs",
	Long: `watsup reads a day's watson report, asks which Jira ticket each project
belongs to, and posts the rounded time as Tempo worklogs.

Answers are remembered in ~/.watsup/cache.toml so later runs only ask about
new projects. DATE is YYYY-MM-DD; -N means N days ago; the default is today.`,
	Args:              cobra.MaximumNArgs(1),
	SilenceErrors:     true,
	PersistentPreRunE: setLogLevel,
	RunE:              runSync,
}

// Execute is the entry point called from main.
func Execute() {
	rootCmd.SetArgs(normalizeArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&fromFlag, "from", "", "First day of a range (YYYY-MM-DD or -N)")
	rootCmd.Flags().StringVar(&toFlag, "to", "", "Last day of a range, inclusive (default today)")
	rootCmd.Flags().IntVar(&offsetFlag, "offset", 0, "Day relative to today, e.g. -1 for yesterday")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be posted without posting")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(mappingsCmd)
	rootCmd.AddCommand(forgetCmd)
	rootCmd.AddCommand(categoryCmd)
}

func setLogLevel(cmd *cobra.Command, args []string) error {
	return logging.SetLevel(logLevel)
}

var offsetArg = regexp.MustCompile(`^-[0-9]+$`)

// normalizeArgs rewrites a bare "-3" into "--offset=-3" so that it is not
// taken for a shorthand flag. Values of flags that take one are left alone.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			return append(out, args[i:]...)
		}
		if offsetArg.MatchString(a) && !(i > 0 && takesValue(args[i-1])) {
			a = "--offset=" + a
		}
		out = append(out, a)
	}
	return out
}

func takesValue(flag string) bool {
	switch flag {
	case "--from", "--to", "--offset", "--loglevel":
		return true
	}
	return false
}

// resolveDays turns the date arguments into the list of days to process.
func resolveDays(args []string, from, to string, offset int, offsetSet bool, now time.Time) ([]time.Time, error) {
	if to != "" && from == "" {
		return nil, errors.New("--to needs --from")
	}
	singles := len(args)
	if offsetSet {
		singles++
	}
	if singles > 1 || (singles == 1 && from != "") {
		return nil, errors.New("give a single DATE, an offset, or a --from/--to range, not several")
	}

	if from != "" {
		start, err := timecalc.ParseDay(from, now)
		if err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
		end, err := timecalc.ParseDay(to, now)
		if err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
		if start.After(end) {
			return nil, fmt.Errorf("--from %s is after --to %s", start.Format(timecalc.DateLayout), end.Format(timecalc.DateLayout))
		}
		return timecalc.Days(start, end), nil
	}

	arg := ""
	if len(args) == 1 {
		arg = args[0]
	}
	if offsetSet {
		arg = strconv.Itoa(offset)
	}
	day, err := timecalc.ParseDay(arg, now)
	if err != nil {
		return nil, err
	}
	return []time.Time{day}, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	days, err := resolveDays(args, fromFlag, toFlag, offsetFlag, cmd.Flags().Changed("offset"), time.Now())
	if err != nil {
		return err
	}

	dir, cfg := loadConfig()
	cachePath := filepath.Join(dir, "cache.toml")
	c := loadCache(cachePath)

	term := prompt.NewConsole()
	c, changed, err := pipeline.EnsureCredentials(term, c)
	if err != nil {
		exitRuntime(err)
	}
	if changed {
		if err := cache.Save(cachePath, c); err != nil {
			exitRuntime(err)
		}
	}

	ctx := cmd.Context()
	p := &pipeline.Pipeline{
		Source:   report.CommandSource{Command: cfg.Report.Command, Args: cfg.Report.Args},
		Terminal: term,
		Tracker: jira.NewClient(jira.Options{
			BaseURL:      c.Credentials.JiraURL,
			Email:        c.Credentials.JiraEmail,
			Token:        c.Credentials.JiraToken,
			AccountField: cfg.Jira.AccountField,
			RetryMax:     cfg.HTTP.RetryMax,
			RPS:          cfg.HTTP.RequestsPerSecond,
		}),
		Logger: tempo.NewClient(ctx, tempo.Options{
			BaseURL:  cfg.Tempo.BaseURL,
			Token:    c.Credentials.TempoToken,
			RetryMax: cfg.HTTP.RetryMax,
			RPS:      cfg.HTTP.RequestsPerSecond,
		}),
		Callbacks:   processor.Interactive(term),
		StartTime:   cfg.Tempo.StartTime,
		CategoryTTL: cfg.CategoryTTL(),
		DryRun:      dryRun,
	}
	save := func(c cache.Cache) error { return cache.Save(cachePath, c) }
	if err := p.Run(ctx, c, days, save); err != nil {
		exitRuntime(err)
	}
	return nil
}

func loadConfig() (string, config.Config) {
	dir, err := config.Dir()
	if err != nil {
		exitRuntime(err)
	}
	cfg, err := config.Load(filepath.Join(dir, "config.json"))
	if err != nil {
		exitRuntime(err)
	}
	return dir, cfg
}

func loadCache(path string) cache.Cache {
	c, err := cache.Load(path)
	if err != nil {
		exitRuntime(err)
	}
	return c
}

// cachePath returns the cache location for the maintenance commands, which
// do not need the rest of the config.
func cachePath() string {
	dir, err := config.Dir()
	if err != nil {
		exitRuntime(err)
	}
	return filepath.Join(dir, "cache.toml")
}

// exitRuntime reports a failure that is not a usage error and exits with 2.
func exitRuntime(err error) {
	fmt.Fprintln(os.Stderr, "watsup:", err)
	os.Exit(2)
}
