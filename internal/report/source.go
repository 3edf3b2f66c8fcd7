package report

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/baffalop/watsup/internal/logging"
	"github.com/baffalop/watsup/internal/timecalc"
)

// Source produces raw report text for one day.
type Source interface {
	Report(ctx context.Context, day time.Time) (string, error)
}

// CommandSource runs the tracker's CLI, appending --from and --to to Args.
type CommandSource struct {
	Command string
	Args    []string
}

func (s CommandSource) Report(ctx context.Context, day time.Time) (string, error) {
	date := day.Format(timecalc.DateLayout)
	args := append(append([]string{}, s.Args...), "--from", date, "--to", date)
	logging.Log.Debugf("running %s %s", s.Command, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, s.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running %s: %w, stderr: %s", s.Command, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
