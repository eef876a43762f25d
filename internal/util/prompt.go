// BYZRA ⸻ internal/util/prompt.go
// line prompts for the interactive session

package util

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads answers line by line from one reader. Keep a single
// Prompter per input stream; bufio may read ahead past the current line.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(r), out: w}
}

// Input writes label and returns the first non-empty trimmed line.
// io.EOF once input ends with nothing usable.
func (p *Prompter) Input(label string) (string, error) {
	for {
		fmt.Fprint(p.out, label)

		line, err := p.in.ReadString('\n')
		input := strings.TrimSpace(line)
		if input != "" {
			return input, nil
		}
		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", fmt.Errorf("failed to read input: %w", err)
		}

		fmt.Fprintln(p.out, "Input cannot be empty.")
	}
}

// Confirm asks until the answer is y/yes or n/no.
func (p *Prompter) Confirm(question string) (bool, error) {
	for {
		answer, err := p.Input(question)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}

		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}
