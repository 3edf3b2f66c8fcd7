// Package logging holds the process-wide logger.
package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It writes to stderr so that it never mixes with
// the interactive prompts on stdout.
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// SetLevel sets the log level from its name.
func SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "info":
		Log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	default:
		return fmt.Errorf("bad log level %q (want debug, info, warn or error)", level)
	}
	return nil
}

// Leveled adapts Log to the key/value logger interface used by
// hashicorp/go-retryablehttp.
type Leveled struct{}

func (Leveled) Error(msg string, kv ...interface{}) { Log.WithFields(fields(kv)).Error(msg) }
func (Leveled) Warn(msg string, kv ...interface{})  { Log.WithFields(fields(kv)).Warn(msg) }
func (Leveled) Info(msg string, kv ...interface{})  { Log.WithFields(fields(kv)).Debug(msg) }
func (Leveled) Debug(msg string, kv ...interface{}) { Log.WithFields(fields(kv)).Debug(msg) }

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
