// Package prompt implements interactive numbered-list selection for
// picking budgets and accounts.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Option is one selectable name/id pair.
type Option struct {
	Name string
	ID   string
}

// Selector asks the user to pick from a list. A single-option list is
// selected automatically without prompting.
type Selector struct {
	in  *bufio.Reader
	out io.Writer
}

// New creates a Selector reading from in and writing to out.
func New(in io.Reader, out io.Writer) *Selector {
	return &Selector{in: bufio.NewReader(in), out: out}
}

// Pick displays msg and the options, then reads an integer choice until a
// valid one is given. Returns the chosen option's ID.
func (s *Selector) Pick(msg string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("nothing to select from")
	}
	if len(options) == 1 {
		return options[0].ID, nil
	}

	for i, o := range options {
		fmt.Fprintf(s.out, "| %d | %s\n", i+1, o.Name)
	}
	for {
		fmt.Fprintf(s.out, "%s (range 1 - %d): ", msg, len(options))
		line, err := s.in.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading selection: %w", err)
		}
		choice, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr != nil || choice < 1 || choice > len(options) {
			fmt.Fprintln(s.out, "not a number in the accepted range, please try again")
			continue
		}
		return options[choice-1].ID, nil
	}
}
