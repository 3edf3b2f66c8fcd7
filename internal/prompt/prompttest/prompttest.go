// Package prompttest provides a scripted Terminal for tests.
package prompttest

import (
	"fmt"
	"strings"
)

// Script answers reads from a fixed list and records everything written.
// Reading past the end of the list is an error, which makes unexpected
// prompts fail the test.
type Script struct {
	Answers []string
	Reads   int
	out     strings.Builder
}

// New returns a Script with the given answers.
func New(answers ...string) *Script {
	return &Script{Answers: answers}
}

func (s *Script) ReadLine() (string, error) {
	if s.Reads >= len(s.Answers) {
		return "", fmt.Errorf("unexpected prompt after %d answers; output so far:\n%s", s.Reads, s.out.String())
	}
	ans := s.Answers[s.Reads]
	s.Reads++
	return ans, nil
}

func (s *Script) ReadSecret() (string, error) { return s.ReadLine() }

func (s *Script) Write(str string) { s.out.WriteString(str) }

// Output returns everything written so far.
func (s *Script) Output() string { return s.out.String() }

// Remaining is the number of unused answers.
func (s *Script) Remaining() int { return len(s.Answers) - s.Reads }
