// Package prompt is the line-oriented terminal used for every question the
// tool asks.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal reads answers and writes output. Empty input is a valid answer.
type Terminal interface {
	ReadLine() (string, error)
	ReadSecret() (string, error)
	Write(s string)
}

// Console is a Terminal over a reader and writer. Secrets are read without
// echo when the input is a terminal.
type Console struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

// NewConsole returns a Console on stdin and stdout.
func NewConsole() *Console {
	fd := int(os.Stdin.Fd())
	return &Console{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		fd:  fd,
		tty: term.IsTerminal(fd),
	}
}

// NewStreamConsole returns a Console on arbitrary streams; secrets are echoed.
func NewStreamConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out, fd: -1}
}

func (c *Console) ReadLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) ReadSecret() (string, error) {
	if !c.tty {
		return c.ReadLine()
	}
	b, err := term.ReadPassword(c.fd)
	fmt.Fprintln(c.out)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(b), nil
}

func (c *Console) Write(s string) {
	fmt.Fprint(c.out, s)
}

// Printf formats to the terminal.
func Printf(t Terminal, format string, args ...any) {
	t.Write(fmt.Sprintf(format, args...))
}

// Ask writes question and returns the trimmed answer.
func Ask(t Terminal, question string) (string, error) {
	t.Write(question)
	line, err := t.ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskSecret writes question and returns the answer read without echo.
func AskSecret(t Terminal, question string) (string, error) {
	t.Write(question)
	s, err := t.ReadSecret()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// AskRequired repeats question until the answer is non-empty.
func AskRequired(t Terminal, question string, secret bool) (string, error) {
	for {
		var ans string
		var err error
		if secret {
			ans, err = AskSecret(t, question)
		} else {
			ans, err = Ask(t, question)
		}
		if err != nil || ans != "" {
			return ans, err
		}
	}
}
